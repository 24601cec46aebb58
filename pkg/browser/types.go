// Package browser snapshots the frame tree of a live page into renderer
// forms and fills renderer forms back into the page's frames.
package browser

import (
	"time"

	"github.com/playwright-community/playwright-go"
)

const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 800

	// DefaultTimeout is the default operation timeout in milliseconds
	DefaultTimeout = 30000

	// DefaultMaxSessions limits concurrently open sessions
	DefaultMaxSessions = 4
)

// Session represents an active browser session with its associated resources.
type Session struct {
	// Name is the unique identifier for this session
	Name string

	Browser playwright.Browser
	Context playwright.BrowserContext
	Page    playwright.Page

	Headless bool

	CreatedAt  time.Time
	LastUsedAt time.Time

	// CurrentURL is the URL of the current page
	CurrentURL string
}

// SessionOptions configures a new browser session.
type SessionOptions struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// Viewport sets the initial viewport size
	Viewport *Viewport

	// Timeout sets the default timeout for operations (in milliseconds)
	Timeout float64
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// NavigateOptions configures page navigation behavior.
type NavigateOptions struct {
	// WaitUntil specifies when to consider navigation successful
	// Valid values: "load", "domcontentloaded", "networkidle"
	WaitUntil string

	// Timeout in milliseconds (0 means default)
	Timeout float64
}
