package render

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatshot/internal/browser"
	"chatshot/internal/browser/browsertest"
	"chatshot/internal/chat"
	"chatshot/internal/config"
	"chatshot/internal/pkg/errors"
	"chatshot/internal/pkg/logger"
	"chatshot/internal/sink"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		ChatAppURL:     "http://localhost:8089",
		MaxConcurrent:  5,
		MaxPooled:      3,
		BrowserTimeout: time.Second,
		SettleDelay:    0,
		DefaultHeight:  1920,
		DefaultWidth:   1080,
		OutputDir:      t.TempDir(),
	}
}

// bubblesFromDispatch mirrors the injected conversation back as measured
// rects, one bubble per message, the way a healthy chat page behaves.
func bubblesFromDispatch(p *browsertest.FakePage) []browser.MessageRect {
	if len(p.Dispatched) == 0 {
		return nil
	}
	detail, ok := p.Dispatched[0].Detail.(updateDetail)
	if !ok {
		return nil
	}
	rects := make([]browser.MessageRect, len(detail.Messages))
	y := 10.0
	for i, m := range detail.Messages {
		rects[i] = browser.MessageRect{
			Y:      y,
			Height: 50,
			Width:  240,
			Sender: m.User.Name,
			Text:   m.Text,
			IsMine: m.IsMine,
		}
		y += 58
	}
	return rects
}

func testService(t *testing.T, cfg *config.Config, hook func(p *browsertest.FakePage)) (*Service, *browsertest.FakeEngine, *browser.Pool) {
	t.Helper()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	engine := &browsertest.FakeEngine{PageHook: func(p *browsertest.FakePage) {
		p.RectsFunc = bubblesFromDispatch
		if hook != nil {
			hook(p)
		}
	}}
	pool := browser.NewPool(engine, cfg.MaxPooled, log)
	svc := NewService(cfg,
		NewAdmission(cfg.MaxConcurrent),
		pool,
		NewRenderer(log),
		sink.New(nil, false, log),
		log,
	)
	return svc, engine, pool
}

func sampleRequest() Request {
	return Request{
		Messages: []chat.IncomingMessage{
			{Sender: "Ana", Text: "Oi, tudo bem?"},
			{Sender: "Bruno", Text: "Tudo sim! E com você?"},
			{Sender: "Ana", Text: "Também, obrigada!"},
		},
		Participants: [2]string{"Ana", "Bruno"},
	}
}

func TestGenerateEndToEnd(t *testing.T) {
	svc, _, _ := testService(t, testConfig(t), nil)

	resp, err := svc.Generate(context.Background(), sampleRequest())
	require.NoError(t, err)
	require.NotEmpty(t, resp.JobID)
	require.NotEmpty(t, resp.ImagePath)
	require.Len(t, resp.Coordinates, 3)

	for i, c := range resp.Coordinates {
		require.Equal(t, i, c.Index)
		require.Positive(t, c.Height)
		require.GreaterOrEqual(t, c.Y, 0)
	}
	// Second participant's messages are mine, first participant's are not.
	require.False(t, resp.Coordinates[0].IsMine)
	require.True(t, resp.Coordinates[1].IsMine)
	require.False(t, resp.Coordinates[2].IsMine)
	require.Equal(t, "Oi, tudo bem?", resp.Coordinates[0].Text)
}

func TestGenerateValidationNeverAdmits(t *testing.T) {
	svc, engine, _ := testService(t, testConfig(t), nil)

	req := sampleRequest()
	req.Messages = nil
	_, err := svc.Generate(context.Background(), req)
	require.True(t, errors.IsValidation(err))

	require.Equal(t, 0, engine.LaunchCount(), "invalid jobs must not reach the browser")
	st := svc.QueueStatus()
	require.Equal(t, int64(0), st.Running)
	require.Equal(t, int64(0), st.Queued)
}

func TestGenerateReleasesBrowserOnCaptureError(t *testing.T) {
	svc, _, pool := testService(t, testConfig(t), func(p *browsertest.FakePage) {
		p.ScreenshotErr = context.DeadlineExceeded
	})

	_, err := svc.Generate(context.Background(), sampleRequest())
	require.True(t, errors.IsCode(err, errors.CodeCapture))

	require.Equal(t, 1, pool.IdleCount(), "browser goes back to the pool after a failed capture")
	require.Equal(t, int64(0), svc.QueueStatus().Running)
}

func TestGenerateTimeoutSurfacesAsRenderTimeout(t *testing.T) {
	svc, _, _ := testService(t, testConfig(t), func(p *browsertest.FakePage) {
		p.WaitErr = context.DeadlineExceeded
	})

	_, err := svc.Generate(context.Background(), sampleRequest())
	require.True(t, errors.IsRenderTimeout(err))
}

func TestGenerateConcurrencyCap(t *testing.T) {
	cfg := testConfig(t)
	cfg.SettleDelay = 30 * time.Millisecond
	svc, _, _ := testService(t, cfg, nil)

	const jobs = 10
	stop := make(chan struct{})
	var peak atomic.Int64
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			r := svc.QueueStatus().Running
			for {
				p := peak.Load()
				if r <= p || peak.CompareAndSwap(p, r) {
					break
				}
			}
			time.Sleep(time.Millisecond)
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Generate(context.Background(), sampleRequest())
			require.NoError(t, err)
		}()
	}
	wg.Wait()
	close(stop)

	require.LessOrEqual(t, peak.Load(), int64(cfg.MaxConcurrent))

	st := svc.QueueStatus()
	require.Equal(t, int64(0), st.Running)
	require.Equal(t, int64(0), st.Queued)
}
