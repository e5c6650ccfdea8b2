package mailer

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrQueueFull is returned by Enqueue when the buffer has no room.
var ErrQueueFull = errors.New("mailer: queue full, message not queued")

type queuedMessage struct {
	msg     Message
	retries int
}

// Queue sends messages in the background at a fixed rate.
type Queue struct {
	mailer   *Mailer
	ch       chan queuedMessage
	rate     time.Duration
	maxRetry int
	backoff  time.Duration
}

func NewQueue(m *Mailer, rate time.Duration, bufferSize, maxRetry int) *Queue {
	return &Queue{
		mailer:   m,
		ch:       make(chan queuedMessage, bufferSize),
		rate:     rate,
		maxRetry: maxRetry,
		backoff:  5 * time.Second,
	}
}

// Start processes queued messages at the configured rate until ctx is cancelled.
// On shutdown it drains any remaining messages before returning.
func (q *Queue) Start(ctx context.Context) error {
	ticker := time.NewTicker(q.rate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			q.drain()
			return nil
		case <-ticker.C:
			select {
			case item := <-q.ch:
				q.attempt(ctx, item)
			default:
			}
		}
	}
}

// Enqueue adds a message to the queue without blocking.
func (q *Queue) Enqueue(msg Message) error {
	select {
	case q.ch <- queuedMessage{msg: msg}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Enabled reports whether the underlying mailer can send.
func (q *Queue) Enabled() bool {
	return q.mailer.Enabled()
}

// attempt sends a message, scheduling a context-aware retry with backoff on failure.
func (q *Queue) attempt(ctx context.Context, item queuedMessage) {
	err := q.mailer.Send(item.msg)
	if err == nil {
		return
	}

	if item.retries >= q.maxRetry {
		slog.Error("mailer: message dropped after max retries", "to", item.msg.To, "subject", item.msg.Subject, "err", err)
		return
	}

	item.retries++
	backoff := time.Duration(item.retries) * q.backoff
	slog.Warn("mailer: send failed, retrying with backoff", "to", item.msg.To, "retry", item.retries, "backoff", backoff, "err", err)

	go func() {
		select {
		case <-time.After(backoff):
			select {
			case q.ch <- item:
			default:
				slog.Error("mailer: requeue failed, queue full, message dropped", "to", item.msg.To)
			}
		case <-ctx.Done():
			slog.Warn("mailer: retry cancelled during shutdown", "to", item.msg.To)
		}
	}()
}

// drain flushes remaining queued messages on shutdown, best-effort.
func (q *Queue) drain() {
	for {
		select {
		case item := <-q.ch:
			if err := q.mailer.Send(item.msg); err != nil {
				slog.Error("mailer: drain send failed", "to", item.msg.To, "err", err)
			}
		default:
			return
		}
	}
}
