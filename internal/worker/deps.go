package worker

import (
	"github.com/redis/go-redis/v9"

	"chatshot/internal/pkg/logger"
	"chatshot/internal/render"
)

type Deps struct {
	RDB       *redis.Client
	Service   *render.Service
	QueueName string
	Log       *logger.Logger
}
