package browser

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// pageFrame is the part of a live frame a snapshot needs.
type pageFrame interface {
	URL() string
	Content() (string, error)
	Children() []pageFrame

	// IFrameIndex is the position of the frame's <iframe> element among
	// the iframes of its parent's document.
	IFrameIndex() (int, error)

	// Allow is the allow attribute of the frame's <iframe> element.
	Allow() (string, error)

	Fill(selector, controlType, value string) error
}

// pwFrame adapts a playwright frame.
type pwFrame struct {
	frame playwright.Frame
}

func (f pwFrame) URL() string {
	return f.frame.URL()
}

func (f pwFrame) Content() (string, error) {
	return f.frame.Content()
}

func (f pwFrame) Children() []pageFrame {
	var children []pageFrame
	for _, c := range f.frame.ChildFrames() {
		children = append(children, pwFrame{frame: c})
	}
	return children
}

const iframeIndexScript = `el => Array.from(el.ownerDocument.querySelectorAll("iframe")).indexOf(el)`

func (f pwFrame) IFrameIndex() (int, error) {
	el, err := f.frame.FrameElement()
	if err != nil {
		return 0, fmt.Errorf("failed to get frame element: %w", err)
	}
	v, err := el.Evaluate(iframeIndexScript)
	if err != nil {
		return 0, fmt.Errorf("failed to locate frame element: %w", err)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("unexpected frame index %v", v)
	}
}

func (f pwFrame) Allow() (string, error) {
	el, err := f.frame.FrameElement()
	if err != nil {
		return "", fmt.Errorf("failed to get frame element: %w", err)
	}
	return el.GetAttribute("allow")
}

func (f pwFrame) Fill(selector, controlType, value string) error {
	switch controlType {
	case "select-one", "select-multiple":
		_, err := f.frame.SelectOption(selector, playwright.SelectOptionValues{Values: &[]string{value}})
		return err
	case "checkbox", "radio":
		return f.frame.SetChecked(selector, isChecked(value))
	default:
		return f.frame.Fill(selector, value)
	}
}

// isChecked reports whether a fill value selects a checkbox or radio
// control.
func isChecked(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "off", "false", "no":
		return false
	}
	return true
}
