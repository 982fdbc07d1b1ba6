package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyang/prodline/internal/domain/event"
	porteventbus "github.com/alanyang/prodline/internal/port/eventbus"
)

var _ porteventbus.EventBus = (*EventBus)(nil)

const (
	minReconnectDelay = 100 * time.Millisecond
	maxReconnectDelay = 5 * time.Second
)

// EventBus fans pipeline events out through Postgres NOTIFY so every server
// process sharing the database sees them.
type EventBus struct {
	pool *pgxpool.Pool

	mu        sync.Mutex
	listeners map[*listener]struct{}
}

func New(pool *pgxpool.Pool) *EventBus {
	return &EventBus{
		pool:      pool,
		listeners: make(map[*listener]struct{}),
	}
}

// Publish sends an event via pg_notify on the channel for its type.
func (eb *EventBus) Publish(ctx context.Context, e event.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	channel := channelName(event.ChannelFor(e.Type))
	if _, err := eb.pool.Exec(ctx, "SELECT pg_notify($1, $2)", channel, string(payload)); err != nil {
		return fmt.Errorf("publishing event on channel %s: %w", channel, err)
	}
	return nil
}

// Subscribe dedicates one pooled connection to LISTEN on ch. The first LISTEN
// runs before Subscribe returns; if the connection drops later it is replaced
// and events published in the gap are lost.
func (eb *EventBus) Subscribe(ctx context.Context, ch event.Channel, handler porteventbus.Handler) (porteventbus.Subscription, error) {
	l := &listener{
		pool:    eb.pool,
		channel: channelName(ch),
		handler: handler,
		done:    make(chan struct{}),
	}
	conn, err := l.listen(ctx)
	if err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel

	eb.mu.Lock()
	eb.listeners[l] = struct{}{}
	eb.mu.Unlock()

	go func() {
		defer func() {
			eb.mu.Lock()
			delete(eb.listeners, l)
			eb.mu.Unlock()
			close(l.done)
		}()
		l.run(subCtx, conn)
	}()
	return l, nil
}

// Close stops every live subscription. Safe to call more than once.
func (eb *EventBus) Close() {
	eb.mu.Lock()
	live := make([]*listener, 0, len(eb.listeners))
	for l := range eb.listeners {
		live = append(live, l)
	}
	eb.mu.Unlock()

	for _, l := range live {
		l.Unsubscribe()
	}
}

type listener struct {
	pool    *pgxpool.Pool
	channel string
	handler porteventbus.Handler
	cancel  context.CancelFunc
	done    chan struct{}
}

func (l *listener) Unsubscribe() {
	l.cancel()
	<-l.done
}

func (l *listener) listen(ctx context.Context) (*pgxpool.Conn, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection for LISTEN: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+l.channel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("executing LISTEN on channel %s: %w", l.channel, err)
	}
	return conn, nil
}

func (l *listener) run(ctx context.Context, conn *pgxpool.Conn) {
	delay := minReconnectDelay
	for {
		err := l.drain(ctx, conn)
		release(conn, l.channel)
		if ctx.Err() != nil {
			return
		}
		slog.Warn("eventbus: listener connection lost", "channel", l.channel, "error", err)

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			conn, err = l.listen(ctx)
			if err == nil {
				delay = minReconnectDelay
				break
			}
			slog.Warn("eventbus: relisten failed", "channel", l.channel, "retry_in", delay, "error", err)
			delay = min(delay*2, maxReconnectDelay)
		}
	}
}

// drain dispatches notifications until the connection fails or ctx ends.
func (l *listener) drain(ctx context.Context, conn *pgxpool.Conn) error {
	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		var e event.Event
		if err := json.Unmarshal([]byte(n.Payload), &e); err != nil {
			slog.Warn("eventbus: dropping malformed payload", "channel", l.channel, "error", err)
			continue
		}
		l.handler(ctx, e)
	}
}

func release(conn *pgxpool.Conn, channel string) {
	if !conn.Conn().IsClosed() {
		conn.Exec(context.Background(), "UNLISTEN "+channel) //nolint:errcheck
	}
	conn.Release()
}

func channelName(ch event.Channel) string {
	return "prodline_" + string(ch)
}
