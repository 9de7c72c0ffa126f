package queue

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueue is a FIFO of job ids on a Redis list: LPUSH in, BRPOP out.
type RedisQueue struct {
	rdb       redis.UniversalClient
	queueName string
}

func NewRedisQueue(rdb redis.UniversalClient, queueName string) *RedisQueue {
	return &RedisQueue{rdb: rdb, queueName: queueName}
}

// Name is the Redis key backing the queue.
func (q *RedisQueue) Name() string { return q.queueName }

// Push enqueues a job id.
func (q *RedisQueue) Push(ctx context.Context, jobID string) error {
	return q.rdb.LPush(ctx, q.queueName, jobID).Err()
}

// Pop blocks for up to timeout (0 = forever) or until ctx is done. It returns
// "" and a nil error when the timeout passes with nothing queued.
func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.queueName).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if len(res) < 2 {
		return "", nil
	}
	return res[1], nil
}

// Len reports the number of queued ids.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.queueName).Result()
}
