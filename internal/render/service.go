package render

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"chatshot/internal/browser"
	"chatshot/internal/chat"
	"chatshot/internal/config"
	"chatshot/internal/pkg/errors"
	"chatshot/internal/pkg/logger"
	"chatshot/internal/sink"
)

// Request is one screenshot job as the caller describes it.
type Request struct {
	Messages     []chat.IncomingMessage
	Participants [2]string
	// OutputDir overrides the configured screenshot directory when set.
	OutputDir string
	// Height and Width override the configured image size when positive.
	Height int
	Width  int
}

// Response is the outcome of a completed job.
type Response struct {
	JobID       string
	ImagePath   string
	Coordinates []chat.Coordinate
}

// Service runs render jobs end to end: validate, wait for an admission
// slot, adapt messages, drive a pooled browser, persist the capture.
// All job state lives on the stack of Generate; the service itself only
// holds shared immutable collaborators.
type Service struct {
	cfg       *config.Config
	admission *Admission
	pool      *browser.Pool
	renderer  *Renderer
	sink      *sink.Sink
	log       *logger.Logger
}

// NewService wires a render service from its collaborators.
func NewService(cfg *config.Config, adm *Admission, pool *browser.Pool, r *Renderer, snk *sink.Sink, log *logger.Logger) *Service {
	return &Service{
		cfg:       cfg,
		admission: adm,
		pool:      pool,
		renderer:  r,
		sink:      snk,
		log:       log,
	}
}

// QueueStatus exposes admission occupancy for health reporting.
func (s *Service) QueueStatus() QueueStatus {
	return s.admission.Status()
}

// PoolStatus exposes browser pool occupancy for health reporting.
func (s *Service) PoolStatus() (idle, maxPooled int) {
	return s.pool.IdleCount(), s.pool.MaxPooled()
}

// Generate runs one job. Validation happens before admission, so malformed
// requests never consume a slot.
func (s *Service) Generate(ctx context.Context, req Request) (*Response, error) {
	const op = "render.Service.Generate"

	if err := chat.Validate(req.Messages, req.Participants); err != nil {
		return nil, err
	}

	jobID := uuid.NewString()
	ctx = logger.ContextWithJobID(ctx, jobID)
	log := s.log.WithJobID(jobID)

	start := time.Now()
	if err := s.admission.Acquire(ctx); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, op, "admission wait")
	}
	defer s.admission.Release()

	if wait := time.Since(start); wait > time.Second {
		log.Info("job admitted after queueing", "waited", wait.String())
	}

	messages := chat.Adapt(req.Messages, req.Participants)

	width, height := s.cfg.DefaultWidth, s.cfg.DefaultHeight
	if req.Width > 0 {
		width = req.Width
	}
	if req.Height > 0 {
		height = req.Height
	}

	outDir := s.cfg.OutputDir
	if req.OutputDir != "" {
		outDir = req.OutputDir
	}
	fileName := fmt.Sprintf("chat_%s.png", jobID)
	outPath := filepath.Join(outDir, fileName)

	b, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeCapture, op, "acquire browser")
	}
	// The handle goes back to the pool on every outcome; render failures
	// do not poison the browser, only the page, which the renderer closes.
	defer s.pool.Release(b)

	res, err := s.renderer.Render(ctx, b, messages, req.Participants, Options{
		ChatURL:      s.cfg.ChatAppURL,
		Width:        width,
		Height:       height,
		ReadyTimeout: s.cfg.BrowserTimeout,
		SettleDelay:  s.cfg.SettleDelay,
		OutPath:      outPath,
	})
	if err != nil {
		log.Error("render failed", "error", err)
		return nil, err
	}

	finalPath, err := s.sink.Persist(ctx, res.ImagePath, fileName)
	if err != nil {
		log.Error("persist failed", "error", err)
		return nil, err
	}

	log.Info("job complete",
		"messages", len(messages),
		"image", finalPath,
		"took", time.Since(start).String(),
	)

	return &Response{
		JobID:       jobID,
		ImagePath:   finalPath,
		Coordinates: res.Coordinates,
	}, nil
}
