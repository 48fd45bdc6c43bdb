package state

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomyedwab/smartexpense/database/events"
)

// LiveQuery delivers the full result of a query once on subscription and
// again after every committed write to one of its tables. Changes that land
// while the reader is busy are folded into a single re-run, so the reader
// always ends up with the latest state.
type LiveQuery[T any] struct {
	updates chan T
	cancel  context.CancelFunc
	done    chan struct{}

	mu  sync.Mutex
	err error
}

// Watch starts a live query. It stops when ctx ends or Close is called; the
// Updates channel is closed afterwards.
func Watch[T any](ctx context.Context, es *events.EventState, log zerolog.Logger, fetch func(context.Context) (T, error), tables ...string) *LiveQuery[T] {
	ctx, cancel := context.WithCancel(ctx)
	q := &LiveQuery[T]{
		updates: make(chan T),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	// Subscribe before the first fetch so no write can slip in between.
	sub := es.Subscribe(tables...)
	go q.run(ctx, es, sub, log, fetch)
	return q
}

func (q *LiveQuery[T]) run(ctx context.Context, es *events.EventState, sub *events.Subscription, log zerolog.Logger, fetch func(context.Context) (T, error)) {
	defer close(q.done)
	defer close(q.updates)
	defer es.Unsubscribe(sub)

	for {
		result, err := fetch(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Error().Err(err).Str("subscription", sub.ID.String()).Msg("live query failed")
				q.mu.Lock()
				q.err = err
				q.mu.Unlock()
			}
			return
		}

		select {
		case q.updates <- result:
		case <-ctx.Done():
			return
		}

		select {
		case _, ok := <-sub.C():
			if !ok {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// Updates returns the result channel.
func (q *LiveQuery[T]) Updates() <-chan T {
	return q.updates
}

// Err returns the query error that stopped the live query, if any.
func (q *LiveQuery[T]) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

// Close stops the live query and waits for it to release its subscription.
func (q *LiveQuery[T]) Close() {
	q.cancel()
	<-q.done
}
