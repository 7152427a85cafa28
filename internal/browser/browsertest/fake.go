// Package browsertest provides in-memory fakes for the browser capability
// interfaces, so pool and renderer behavior can be tested without Chromium.
package browsertest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"chatshot/internal/browser"
)

// FakeEngine launches FakeBrowser instances and counts launches.
type FakeEngine struct {
	mu       sync.Mutex
	launched []*FakeBrowser

	// LaunchErr, when set, is returned by Launch.
	LaunchErr error
	// PageHook, when set, configures every page opened by launched browsers.
	PageHook func(p *FakePage)
}

func (e *FakeEngine) Launch(ctx context.Context) (browser.Browser, error) {
	if e.LaunchErr != nil {
		return nil, e.LaunchErr
	}
	b := &FakeBrowser{engine: e}
	e.mu.Lock()
	e.launched = append(e.launched, b)
	e.mu.Unlock()
	return b, nil
}

// LaunchCount reports how many browsers have been launched.
func (e *FakeEngine) LaunchCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.launched)
}

// Launched returns all launched browsers in order.
func (e *FakeEngine) Launched() []*FakeBrowser {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*FakeBrowser, len(e.launched))
	copy(out, e.launched)
	return out
}

// FakeBrowser records opened pages and whether it was closed.
type FakeBrowser struct {
	engine *FakeEngine
	closed atomic.Bool
	pages  atomic.Int32
}

func (b *FakeBrowser) OpenPage(ctx context.Context, url string, width, height int) (browser.Page, error) {
	if b.closed.Load() {
		return nil, fmt.Errorf("browser is closed")
	}
	b.pages.Add(1)
	p := &FakePage{
		URL:       url,
		Width:     width,
		Height:    height,
		Viewports: [][2]int{{width, height}},
		ContainerBox: browser.Box{
			X: 0, Y: 0, Width: float64(width), Height: 800,
		},
	}
	if b.engine != nil && b.engine.PageHook != nil {
		b.engine.PageHook(p)
	}
	return p, nil
}

func (b *FakeBrowser) Close() error {
	b.closed.Store(true)
	return nil
}

// Closed reports whether Close was called.
func (b *FakeBrowser) Closed() bool {
	return b.closed.Load()
}

// PageCount reports how many pages were opened on this browser.
func (b *FakeBrowser) PageCount() int {
	return int(b.pages.Load())
}

// FakePage scripts one render pass. Zero values behave like a healthy page
// showing an empty chat; tests populate Rects and error fields as needed.
type FakePage struct {
	URL    string
	Width  int
	Height int

	// ContainerBox is returned by ElementBox for any selector.
	ContainerBox browser.Box
	// Rects is returned by MessageRects.
	Rects []browser.MessageRect
	// RectsFunc, when set, computes the rects from page state instead of
	// Rects, letting tests derive bubbles from what was dispatched.
	RectsFunc func(p *FakePage) []browser.MessageRect

	WaitErr       error
	DispatchErr   error
	MeasureErr    error
	ScreenshotErr error

	// Dispatched records every event dispatched into the page.
	Dispatched []DispatchedEvent
	// Viewports records the initial viewport and every change after it.
	Viewports [][2]int

	closed atomic.Bool
}

// DispatchedEvent is one recorded CustomEvent dispatch.
type DispatchedEvent struct {
	Name   string
	Detail any
}

func (p *FakePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return p.WaitErr
}

func (p *FakePage) SetViewport(ctx context.Context, width, height int) error {
	p.Viewports = append(p.Viewports, [2]int{width, height})
	p.Width, p.Height = width, height
	return nil
}

func (p *FakePage) DispatchEvent(ctx context.Context, name string, detail any) error {
	if p.DispatchErr != nil {
		return p.DispatchErr
	}
	p.Dispatched = append(p.Dispatched, DispatchedEvent{Name: name, Detail: detail})
	return nil
}

func (p *FakePage) ElementBox(ctx context.Context, selector string) (browser.Box, error) {
	if p.MeasureErr != nil {
		return browser.Box{}, p.MeasureErr
	}
	return p.ContainerBox, nil
}

func (p *FakePage) MessageRects(ctx context.Context, containerSelector, messageSelector string) ([]browser.MessageRect, error) {
	if p.MeasureErr != nil {
		return nil, p.MeasureErr
	}
	if p.RectsFunc != nil {
		return p.RectsFunc(p), nil
	}
	return p.Rects, nil
}

func (p *FakePage) Screenshot(ctx context.Context, clip browser.Box, outPath string) error {
	if p.ScreenshotErr != nil {
		return p.ScreenshotErr
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	// A tiny placeholder file stands in for PNG bytes.
	return os.WriteFile(outPath, []byte("fake-png"), 0o644)
}

func (p *FakePage) Close() error {
	p.closed.Store(true)
	return nil
}

// Closed reports whether the page was closed.
func (p *FakePage) Closed() bool {
	return p.closed.Load()
}
