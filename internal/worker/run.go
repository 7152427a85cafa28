// Package worker consumes render jobs from a Redis list, so batch video
// pipelines can submit conversations without holding an HTTP connection
// open for each one.
package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"chatshot/internal/chat"
	"chatshot/internal/pkg/errors"
	"chatshot/internal/pkg/logger"
	"chatshot/internal/render"
	"chatshot/internal/worker/queue"
)

// jobPayload is the queued job shape, mirroring the HTTP request body
// plus an optional caller-chosen job id for result correlation.
type jobPayload struct {
	JobID        string                 `json:"job_id"`
	Messages     []chat.IncomingMessage `json:"messages"`
	Participants []string               `json:"participants"`
	OutputDir    string                 `json:"outputDir"`
	ImgSize      []int                  `json:"img_size"`
}

// jobResult is what gets pushed back on the per-job result key.
type jobResult struct {
	Success            bool              `json:"success"`
	ImagePaths         []string          `json:"imagePaths,omitempty"`
	MessageCoordinates []chat.Coordinate `json:"messageCoordinates,omitempty"`
	Error              string            `json:"error,omitempty"`
	Code               string            `json:"code,omitempty"`
}

func Run(ctx context.Context, d Deps) error {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	log = log.WithComponent("worker")

	q := queue.NewRedisQueue(d.RDB, d.QueueName)

	for {
		select {
		case <-ctx.Done():
			log.Info("worker context canceled, stopping")
			return ctx.Err()
		default:
		}

		// Bound each blocking pop so shutdown is never stuck behind BRPOP.
		popCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		payload, err := q.Pop(popCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				log.Info("worker stopping due to context cancellation")
				return ctx.Err()
			}
			if popCtx.Err() == context.DeadlineExceeded {
				continue
			}
			log.Warn("queue pop error, retrying",
				"error", err.Error(),
			)
			time.Sleep(1 * time.Second)
			continue
		}

		if payload == "" {
			continue
		}

		processPayload(ctx, q, d.Service, log, payload)
	}
}

func processPayload(ctx context.Context, q *queue.RedisQueue, svc *render.Service, log *logger.Logger, payload string) {
	var job jobPayload
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		log.Warn("dropping malformed job payload", "error", err.Error())
		return
	}
	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}

	jobCtx := logger.ContextWithJobID(ctx, job.JobID)
	jobLog := log.WithJobID(job.JobID)

	jobLog.Info("processing job")
	startTime := time.Now()

	result := runJob(jobCtx, svc, job)

	raw, err := json.Marshal(result)
	if err != nil {
		jobLog.Error("could not encode job result", "error", err.Error())
		return
	}
	if err := q.PushResult(jobCtx, job.JobID, string(raw)); err != nil {
		jobLog.Error("could not publish job result", "error", err.Error())
	}

	if result.Success {
		jobLog.Info("job completed",
			"duration_ms", time.Since(startTime).Milliseconds(),
		)
	} else {
		jobLog.Error("job failed",
			"error", result.Error,
			"duration_ms", time.Since(startTime).Milliseconds(),
		)
	}
}

func runJob(ctx context.Context, svc *render.Service, job jobPayload) jobResult {
	if len(job.Participants) != 2 {
		return failure(errors.ValidationField("participants", "exactly two participants are required"))
	}
	if len(job.ImgSize) != 0 && len(job.ImgSize) != 2 {
		return failure(errors.ValidationField("img_size", "img_size must be [height, width]"))
	}

	req := render.Request{
		Messages:     job.Messages,
		Participants: [2]string{job.Participants[0], job.Participants[1]},
		OutputDir:    job.OutputDir,
	}
	if len(job.ImgSize) == 2 {
		req.Height = job.ImgSize[0]
		req.Width = job.ImgSize[1]
	}

	resp, err := svc.Generate(ctx, req)
	if err != nil {
		return failure(err)
	}

	return jobResult{
		Success:            true,
		ImagePaths:         []string{resp.ImagePath},
		MessageCoordinates: resp.Coordinates,
	}
}

func failure(err error) jobResult {
	return jobResult{
		Success: false,
		Error:   err.Error(),
		Code:    string(errors.GetCode(err)),
	}
}
