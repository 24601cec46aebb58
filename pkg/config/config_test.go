package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/formforest/pkg/autofill/classify"
	"github.com/entrhq/formforest/pkg/autofill/form"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	require.NoError(t, c.Validate())
	assert.Equal(t, 64, c.Autofill.MaxTreeDepth)
	assert.ElementsMatch(t, []form.FieldType{form.FieldTypeCreditCardNumber, form.FieldTypeCreditCardCVC}, c.Autofill.SensitiveFieldTypes)
	assert.True(t, c.Browser.Headless)
	assert.Equal(t, 30*time.Second, c.Browser.Timeout)
	assert.False(t, c.Debug())
}

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), c)
	})

	t.Run("overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		data := `
autofill:
  max_tree_depth: 8
  sensitive_field_types: [cc_number, password]
  classifier_rules:
    - type: zip
      patterns: ["plz"]
browser:
  headless: false
  timeout: 5s
logging:
  verbosity: debug
`
		require.NoError(t, os.WriteFile(path, []byte(data), 0600))

		c, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 8, c.Autofill.MaxTreeDepth)
		assert.Equal(t, []form.FieldType{form.FieldTypeCreditCardNumber, form.FieldTypePassword}, c.Autofill.SensitiveFieldTypes)
		assert.False(t, c.Browser.Headless)
		assert.Equal(t, 5*time.Second, c.Browser.Timeout)
		assert.Equal(t, 1280, c.Browser.Viewport.Width, "untouched keys keep defaults")
		assert.True(t, c.Debug())

		classifier, err := c.Classifier()
		require.NoError(t, err)
		assert.Equal(t, form.FieldTypeZip, classifier.Classify(form.FormFieldData{Name: "plz"}))
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("autofill: [\n"), 0600))

		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("logging:\n  verbosity: loud\n"), 0600))

		_, err := Load(path)
		assert.ErrorContains(t, err, "verbosity")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "negative depth", mutate: func(c *Config) { c.Autofill.MaxTreeDepth = -1 }, wantErr: true},
		{name: "unknown sensitive type", mutate: func(c *Config) {
			c.Autofill.SensitiveFieldTypes = []form.FieldType{"shoe_size"}
		}, wantErr: true},
		{name: "bad classifier pattern", mutate: func(c *Config) {
			c.Autofill.ClassifierRules = []classify.Rule{{Type: form.FieldTypeCity, Patterns: []string{"[x"}}}
		}, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.Browser.Timeout = -time.Second }, wantErr: true},
		{name: "negative viewport", mutate: func(c *Config) { c.Browser.Viewport.Width = -1 }, wantErr: true},
		{name: "empty verbosity defaults", mutate: func(c *Config) { c.Logging.Verbosity = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.NotEmpty(t, c.Logging.Verbosity)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c := DefaultConfig()
	c.Autofill.TrustAllOrigins = true
	c.Browser.Viewport = Viewport{Width: 800, Height: 600}

	require.NoError(t, c.Save(path))
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)
}
