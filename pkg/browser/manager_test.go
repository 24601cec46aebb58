package browser

import (
	"errors"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubPlaywright(t *testing.T, install func(...*playwright.RunOptions) error) *int {
	t.Helper()
	origInstall, origRun := installPlaywright, runPlaywright
	t.Cleanup(func() {
		installPlaywright, runPlaywright = origInstall, origRun
	})

	calls := 0
	installPlaywright = func(opts ...*playwright.RunOptions) error {
		calls++
		return install(opts...)
	}
	runPlaywright = func(...*playwright.RunOptions) (*playwright.Playwright, error) {
		return nil, errors.New("driver unavailable")
	}
	return &calls
}

func TestStartSession_InitializesPlaywright(t *testing.T) {
	calls := stubPlaywright(t, func(...*playwright.RunOptions) error {
		return errors.New("offline")
	})

	m := NewSessionManager()
	_, err := m.StartSession("formforest", SessionOptions{Headless: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to install playwright: offline")
	assert.Equal(t, 1, *calls)
	assert.False(t, m.initialized)
}

func TestInitialize_RunFailure(t *testing.T) {
	stubPlaywright(t, func(...*playwright.RunOptions) error { return nil })

	m := NewSessionManager()
	err := m.Initialize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start playwright: driver unavailable")

	_, err = m.StartSession("formforest", SessionOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start playwright", "start retries initialization")
}

func TestSessionManager_Limits(t *testing.T) {
	m := NewSessionManager()
	m.sessions["a"] = nil
	m.maxSessions = 1

	_, err := m.StartSession("a", SessionOptions{})
	assert.EqualError(t, err, `session "a" already exists`)
	_, err = m.StartSession("b", SessionOptions{})
	assert.EqualError(t, err, "maximum number of sessions (1) reached")
}

func TestCloseSession_Unknown(t *testing.T) {
	m := NewSessionManager()
	assert.EqualError(t, m.CloseSession("missing"), `session "missing" not found`)
	assert.NoError(t, m.Shutdown())
}
