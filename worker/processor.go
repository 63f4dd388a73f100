package worker

import (
	"context"

	"github.com/blogforge/blogforge-api/internal/logger"
	"github.com/blogforge/blogforge-api/tasks"
	"github.com/go-redis/redis/v8"
)

// TaskHandler is a function that processes a task payload.
type TaskHandler func(ctx context.Context, payload string) error

// Processor holds the queue connection and registered task handlers.
type Processor struct {
	RDB      *redis.Client
	handlers map[string]TaskHandler
	log      *logger.Logger
}

// NewProcessor creates a new worker processor.
func NewProcessor(rdb *redis.Client) *Processor {
	return &Processor{
		RDB:      rdb,
		handlers: make(map[string]TaskHandler),
		log:      logger.New(),
	}
}

// Register maps a queue name (task type) to a handler function.
func (p *Processor) Register(queueName string, handler TaskHandler) {
	p.handlers[queueName] = handler
	p.log.WithField("queue", queueName).Info("registered queue handler")
}

// Enqueue adds a new task to a queue.
func (p *Processor) Enqueue(ctx context.Context, queueName string, payload interface{}) error {
	payloadStr, err := tasks.Marshal(payload)
	if err != nil {
		return err
	}
	return p.RDB.LPush(ctx, queueName, payloadStr).Err()
}

// Listen starts the worker, listening on all registered queues. BRPop blocks
// until a task is available on any of them, so this is safe to run on
// multiple worker instances.
func (p *Processor) Listen(ctx context.Context, queueNames ...string) {
	p.log.WithField("queues", queueNames).Info("worker listening")

	for {
		result, err := p.RDB.BRPop(ctx, 0, queueNames...).Result()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.log.WithError(err).Error("error popping from queue")
			continue
		}

		// result[0] is the queue name, result[1] is the payload
		queueName := result[0]
		payload := result[1]

		handler, ok := p.handlers[queueName]
		if !ok {
			p.log.WithField("queue", queueName).Error("no handler registered for queue")
			continue
		}

		p.log.WithField("queue", queueName).Info("received task")

		if err := handler(ctx, payload); err != nil {
			p.log.WithError(err).WithField("queue", queueName).Error("error processing task")
		}
	}
}
