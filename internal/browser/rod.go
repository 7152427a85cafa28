package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodEngine launches headless Chromium processes via go-rod.
type RodEngine struct {
	// Bin optionally points at a specific Chromium binary. When empty the
	// launcher resolves (and if needed downloads) its own browser.
	Bin string
}

// NewRodEngine creates the production browser engine.
func NewRodEngine() *RodEngine {
	return &RodEngine{Bin: os.Getenv("CHROMIUM_BIN")}
}

// Launch starts one headless Chromium process and connects to it.
func (e *RodEngine) Launch(ctx context.Context) (Browser, error) {
	l := launcher.New().Headless(true)
	if e.Bin != "" {
		l = l.Bin(e.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect to chromium: %w", err)
	}

	return &rodBrowser{browser: b, launcher: l}, nil
}

type rodBrowser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
}

func (b *rodBrowser) OpenPage(ctx context.Context, url string, width, height int) (Page, error) {
	page, err := b.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	p := &rodPage{page: page}
	if err := p.SetViewport(ctx, width, height); err != nil {
		_ = page.Close()
		return nil, err
	}
	return p, nil
}

func (b *rodBrowser) Close() error {
	err := b.browser.Close()
	b.launcher.Cleanup()
	return err
}

type rodPage struct {
	page *rod.Page
}

func (p *rodPage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	el, err := p.page.Context(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		return fmt.Errorf("wait for %q: %w", selector, err)
	}
	if err := el.WaitVisible(); err != nil {
		return fmt.Errorf("wait visible %q: %w", selector, err)
	}
	return nil
}

func (p *rodPage) SetViewport(ctx context.Context, width, height int) error {
	err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(p.page.Context(ctx))
	if err != nil {
		return fmt.Errorf("set viewport %dx%d: %w", width, height, err)
	}
	return nil
}

func (p *rodPage) DispatchEvent(ctx context.Context, name string, detail any) error {
	_, err := p.page.Context(ctx).Evaluate(rod.Eval(`(name, detail) => {
		window.dispatchEvent(new CustomEvent(name, { detail }));
	}`, name, detail))
	if err != nil {
		return fmt.Errorf("dispatch %q: %w", name, err)
	}
	return nil
}

func (p *rodPage) ElementBox(ctx context.Context, selector string) (Box, error) {
	res, err := p.page.Context(ctx).Evaluate(rod.Eval(`(sel) => {
		const el = document.querySelector(sel);
		if (!el) return null;
		const r = el.getBoundingClientRect();
		return { x: r.x, y: r.y, width: r.width, height: r.height };
	}`, selector))
	if err != nil {
		return Box{}, fmt.Errorf("measure %q: %w", selector, err)
	}
	if res.Value.Nil() {
		return Box{}, fmt.Errorf("element %q not found", selector)
	}

	v := res.Value
	return Box{
		X:      v.Get("x").Num(),
		Y:      v.Get("y").Num(),
		Width:  v.Get("width").Num(),
		Height: v.Get("height").Num(),
	}, nil
}

func (p *rodPage) MessageRects(ctx context.Context, containerSelector, messageSelector string) ([]MessageRect, error) {
	res, err := p.page.Context(ctx).Evaluate(rod.Eval(`(containerSel, msgSel) => {
		const container = document.querySelector(containerSel);
		if (!container) return null;
		const origin = container.getBoundingClientRect();
		return Array.from(document.querySelectorAll(msgSel)).map((el) => {
			const r = el.getBoundingClientRect();
			const textEl = el.querySelector('.message-text') || el;
			return {
				y: r.y - origin.y,
				height: r.height,
				width: r.width,
				sender: el.dataset.sender || '',
				text: (textEl.textContent || '').trim(),
				isMine: el.classList.contains('mine'),
			};
		});
	}`, containerSelector, messageSelector))
	if err != nil {
		return nil, fmt.Errorf("measure messages %q: %w", messageSelector, err)
	}
	if res.Value.Nil() {
		return nil, fmt.Errorf("container %q not found", containerSelector)
	}

	arr := res.Value.Arr()
	rects := make([]MessageRect, 0, len(arr))
	for _, item := range arr {
		rects = append(rects, MessageRect{
			Y:      item.Get("y").Num(),
			Height: item.Get("height").Num(),
			Width:  item.Get("width").Num(),
			Sender: item.Get("sender").Str(),
			Text:   item.Get("text").Str(),
			IsMine: item.Get("isMine").Bool(),
		})
	}
	return rects, nil
}

func (p *rodPage) Screenshot(ctx context.Context, clip Box, outPath string) error {
	data, err := p.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			X:      clip.X,
			Y:      clip.Y,
			Width:  clip.Width,
			Height: clip.Height,
			Scale:  1,
		},
	})
	if err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	return nil
}

func (p *rodPage) Close() error {
	return p.page.Close()
}
