package render

import (
	"context"
	"fmt"
	"math"
	"time"

	"chatshot/internal/browser"
	"chatshot/internal/chat"
	"chatshot/internal/pkg/errors"
	"chatshot/internal/pkg/logger"
)

const (
	// chatContainerSelector marks both readiness and the capture region.
	chatContainerSelector = ".whatsapp-chat"
	// messageSelector matches one rendered bubble per message.
	messageSelector = ".message-wrapper"
	// updateEvent is the CustomEvent the chat front end listens for.
	updateEvent = "chatshot:update-messages"

	// generousHeight leaves room for long conversations before the
	// viewport is shrunk to the measured container.
	generousHeight = 4096
)

// Options configures a single render pass.
type Options struct {
	// ChatURL is the address of the chat front end.
	ChatURL string
	// Width and Height are the requested image dimensions in pixels.
	Width  int
	Height int
	// ReadyTimeout bounds how long to wait for the chat container.
	ReadyTimeout time.Duration
	// SettleDelay is how long to wait after injecting messages before
	// measuring, covering render and animation.
	SettleDelay time.Duration
	// OutPath is where the captured PNG is written.
	OutPath string
}

// Result is the output of one render pass.
type Result struct {
	ImagePath   string
	Coordinates []chat.Coordinate
}

// Renderer drives a browser page through load, inject, measure and capture.
// It holds no per-job state; one Renderer serves concurrent jobs.
type Renderer struct {
	log *logger.Logger
}

// NewRenderer creates a renderer.
func NewRenderer(log *logger.Logger) *Renderer {
	return &Renderer{log: log}
}

// updateDetail is the payload delivered with the update event.
type updateDetail struct {
	Messages     []chat.Message `json:"messages"`
	Participants [2]string      `json:"participants"`
}

// Render produces a screenshot of the conversation plus per-message
// coordinates. The page is always closed before returning.
func (r *Renderer) Render(ctx context.Context, b browser.Browser, messages []chat.Message, participants [2]string, opts Options) (*Result, error) {
	const op = "render.Renderer.Render"

	height := opts.Height
	if height < generousHeight {
		height = generousHeight
	}

	page, err := b.OpenPage(ctx, opts.ChatURL, opts.Width, height)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeCapture, op, "open chat page")
	}
	defer page.Close()

	if err := page.WaitVisible(ctx, chatContainerSelector, opts.ReadyTimeout); err != nil {
		return nil, errors.RenderTimeout("chat container readiness").
			WithField("selector", chatContainerSelector).
			WithField("timeout", opts.ReadyTimeout.String())
	}

	detail := updateDetail{Messages: messages, Participants: participants}
	if err := page.DispatchEvent(ctx, updateEvent, detail); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeCapture, op, "dispatch message update")
	}

	if err := sleepCtx(ctx, opts.SettleDelay); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeRenderTimeout, op, "settle wait")
	}

	box, err := page.ElementBox(ctx, chatContainerSelector)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeCapture, op, "measure chat container")
	}

	// Shrink the viewport to the rendered content so the capture has no
	// trailing blank space.
	contentBottom := int(math.Round(box.Y + box.Height))
	if contentBottom < 1 {
		contentBottom = 1
	}
	if err := page.SetViewport(ctx, opts.Width, contentBottom); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeCapture, op, "resize viewport")
	}

	rects, err := page.MessageRects(ctx, chatContainerSelector, messageSelector)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeCapture, op, "measure message bubbles")
	}
	if len(rects) != len(messages) {
		return nil, errors.Capture(
			fmt.Sprintf("rendered %d bubbles for %d messages", len(rects), len(messages))).
			WithField("expected", len(messages)).
			WithField("rendered", len(rects))
	}

	if err := page.Screenshot(ctx, box, opts.OutPath); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeCapture, op, "capture screenshot")
	}

	coords := make([]chat.Coordinate, len(rects))
	for i, rect := range rects {
		coords[i] = chat.Coordinate{
			Index:  i,
			Y:      int(math.Round(rect.Y)),
			Height: int(math.Round(rect.Height)),
			Width:  int(math.Round(rect.Width)),
			Sender: rect.Sender,
			Text:   rect.Text,
			IsMine: rect.IsMine,
		}
	}

	r.log.Debug("render pass complete",
		"messages", len(messages),
		"image", opts.OutPath,
		"content_height", contentBottom,
	)

	return &Result{ImagePath: opts.OutPath, Coordinates: coords}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
