// Package browser abstracts headless-browser automation behind a small
// capability interface so the pool and renderer are testable without
// spawning real Chromium processes.
package browser

import (
	"context"
	"time"
)

// Box is a pixel-space rectangle.
type Box struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// MessageRect is the raw measured geometry of one rendered chat bubble,
// relative to the chat container's origin, plus the metadata the front end
// exposes on the element.
type MessageRect struct {
	Y      float64
	Height float64
	Width  float64
	Sender string
	Text   string
	IsMine bool
}

// Page is a single browser tab driven through one render pass.
type Page interface {
	// WaitVisible blocks until the selector matches a visible element or
	// the timeout elapses.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error

	// SetViewport resizes the page viewport.
	SetViewport(ctx context.Context, width, height int) error

	// DispatchEvent dispatches a CustomEvent with the given detail payload
	// on the page's window.
	DispatchEvent(ctx context.Context, name string, detail any) error

	// ElementBox measures the bounding box of the first element matching
	// the selector, in viewport coordinates.
	ElementBox(ctx context.Context, selector string) (Box, error)

	// MessageRects measures every element matching messageSelector,
	// relative to the origin of containerSelector, in document order.
	MessageRects(ctx context.Context, containerSelector, messageSelector string) ([]MessageRect, error)

	// Screenshot captures the clipped region to a PNG file at outPath.
	Screenshot(ctx context.Context, clip Box, outPath string) error

	Close() error
}

// Browser is one headless browser process able to open pages.
type Browser interface {
	OpenPage(ctx context.Context, url string, width, height int) (Page, error)
	Close() error
}

// Engine launches browser processes. The production implementation drives
// headless Chromium over CDP; tests substitute a fake.
type Engine interface {
	Launch(ctx context.Context) (Browser, error)
}
