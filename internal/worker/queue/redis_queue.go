package queue

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// resultTTL keeps finished job results around long enough for the
// pipeline to collect them without leaking keys forever.
const resultTTL = 24 * time.Hour

type RedisQueue struct {
	rdb       *redis.Client
	queueName string
}

func NewRedisQueue(rdb *redis.Client, queueName string) *RedisQueue {
	return &RedisQueue{rdb: rdb, queueName: queueName}
}

// Pop blocks until a job payload is available (BRPOP).
func (q *RedisQueue) Pop(ctx context.Context) (string, error) {
	res, err := q.rdb.BRPop(ctx, 0, q.queueName).Result()
	if err != nil {
		return "", err
	}
	if len(res) < 2 {
		return "", nil
	}
	return res[1], nil
}

// PushResult publishes a job outcome under a per-job key so the submitter
// can BRPOP it without scanning.
func (q *RedisQueue) PushResult(ctx context.Context, jobID string, payload string) error {
	key := q.queueName + ":results:" + jobID
	if err := q.rdb.LPush(ctx, key, payload).Err(); err != nil {
		return err
	}
	return q.rdb.Expire(ctx, key, resultTTL).Err()
}
