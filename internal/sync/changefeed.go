package sync

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

var errSubscriptionClosed = errors.New("change feed subscription closed")

// The change feed carries no per-collection granularity: every event means
// "something in the store changed, resync everything". That is how
// concurrent operators converge without a manual reload.

// ChangeEvent is the published payload. Only its presence matters; the
// fields exist for log forensics.
type ChangeEvent struct {
	Origin    string `json:"origin"`
	Timestamp int64  `json:"timestamp"`
}

// RedisPublisher announces store changes on a pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	origin  string
	logger  *zap.Logger
}

func NewRedisPublisher(client *redis.Client, channel, origin string, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel, origin: origin, logger: logger}
}

func (p *RedisPublisher) Publish(ctx context.Context) error {
	payload, err := json.Marshal(ChangeEvent{Origin: p.origin, Timestamp: time.Now().Unix()})
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, payload).Err()
}

// Listener subscribes to the change channel and triggers a debounced full
// sync on every event. Bursts of writes collapse into a single refresh; no
// loading indicator is surfaced, this runs entirely in the background.
type Listener struct {
	client   *redis.Client
	channel  string
	debounce time.Duration
	resync   func(ctx context.Context)
	logger   *zap.Logger
}

// NewListener wires the feed to a resync callback (normally a closure around
// Engine.FullSync that drops the error after logging).
func NewListener(client *redis.Client, channel string, debounce time.Duration, resync func(ctx context.Context), logger *zap.Logger) *Listener {
	if debounce <= 0 {
		debounce = 350 * time.Millisecond
	}
	return &Listener{
		client:   client,
		channel:  channel,
		debounce: debounce,
		resync:   resync,
		logger:   logger,
	}
}

// Start blocks until ctx is cancelled, resubscribing with exponential
// backoff when the connection drops. The backoff resets to one second once a
// session establishes, so a drop after hours of healthy listening reconnects
// quickly.
func (l *Listener) Start(ctx context.Context) error {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		established, err := l.consume(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		if established {
			backoff = time.Second
		}
		l.logger.Error("change feed subscription lost",
			zap.Error(err),
			zap.Duration("backoff", backoff),
		)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// consume runs one subscription session. established reports whether the
// subscription was up before the error, which lets Start reset its backoff.
func (l *Listener) consume(ctx context.Context) (bool, error) {
	sub := l.client.Subscribe(ctx, l.channel)
	defer sub.Close()

	// Force the subscription to establish before entering the loop.
	if _, err := sub.Receive(ctx); err != nil {
		return false, err
	}
	l.logger.Info("change feed listener started", zap.String("channel", l.channel))

	msgs := sub.Channel()
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return true, nil
		case msg, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return true, nil
				}
				return true, errSubscriptionClosed
			}
			l.logger.Debug("change event received", zap.String("payload", msg.Payload))
			if timer == nil {
				timer = time.NewTimer(l.debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(l.debounce)
			}
		case <-fire:
			timer = nil
			fire = nil
			l.resync(ctx)
		}
	}
}
