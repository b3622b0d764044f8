package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nerrad567/temppub/internal/reading"
)

// Defaults applied by New when the matching option is zero.
const (
	DefaultMaxAttempts    = 3
	DefaultConnectTimeout = 5 * time.Second
	DefaultAckTimeout     = 5 * time.Second
)

// errAttemptPanicked marks an attempt that was aborted by a recovered panic.
var errAttemptPanicked = errors.New("publisher: attempt panicked")

// Session is the connection lifecycle the publisher drives.
// *mqtt.Session satisfies it.
type Session interface {
	Connect() error
	AwaitConnected(ctx context.Context, timeout time.Duration) error
	Publish(payload []byte) error
	AwaitPublished(ctx context.Context, timeout time.Duration) error
	Reset()
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Attempt describes one connect → publish → disconnect cycle.
type Attempt struct {
	TemperatureID string
	Value         float64
	Topic         string
	Number        int
	MaxAttempts   int
	Err           error
	Duration      time.Duration
	At            time.Time
}

// Succeeded reports whether the broker acknowledged the attempt's message.
func (a Attempt) Succeeded() bool {
	return a.Err == nil
}

// AttemptRecorder receives every attempt, successful or not.
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, attempt Attempt) error
}

// ReadingSink receives readings after the broker acknowledged them.
type ReadingSink interface {
	WriteTemperature(temperatureID string, value float64)
}

// Options configures a Publisher.
type Options struct {
	// Session is required.
	Session Session

	// Schema validates every payload. Defaults to reading.DefaultSchema().
	Schema *reading.Schema

	// Topic is recorded with each attempt; the session owns the real topic.
	Topic string

	MaxAttempts    int
	ConnectTimeout time.Duration
	AckTimeout     time.Duration
	RetryDelay     time.Duration

	// NewID generates a temperature identifier per attempt.
	// Defaults to reading.NewID.
	NewID func() string

	Recorder AttemptRecorder
	Sink     ReadingSink
	Logger   Logger
}

// Publisher publishes single temperature readings with bounded retries.
//
// Thread Safety: a Publisher drives one Session and must not be used by
// more than one goroutine at a time.
type Publisher struct {
	session        Session
	schema         *reading.Schema
	topic          string
	maxAttempts    int
	connectTimeout time.Duration
	ackTimeout     time.Duration
	retryDelay     time.Duration
	newID          func() string
	recorder       AttemptRecorder
	sink           ReadingSink
	logger         Logger
}

// New validates opts and returns a Publisher.
func New(opts Options) (*Publisher, error) {
	if opts.Session == nil {
		return nil, fmt.Errorf("%w: session is required", ErrInvalidOptions)
	}
	if opts.MaxAttempts < 0 {
		return nil, fmt.Errorf("%w: max attempts %d is negative", ErrInvalidOptions, opts.MaxAttempts)
	}
	if opts.ConnectTimeout < 0 || opts.AckTimeout < 0 || opts.RetryDelay < 0 {
		return nil, fmt.Errorf("%w: timeouts and retry delay cannot be negative", ErrInvalidOptions)
	}

	p := &Publisher{
		session:        opts.Session,
		schema:         opts.Schema,
		topic:          opts.Topic,
		maxAttempts:    opts.MaxAttempts,
		connectTimeout: opts.ConnectTimeout,
		ackTimeout:     opts.AckTimeout,
		retryDelay:     opts.RetryDelay,
		newID:          opts.NewID,
		recorder:       opts.Recorder,
		sink:           opts.Sink,
		logger:         opts.Logger,
	}
	if p.schema == nil {
		p.schema = reading.DefaultSchema()
	}
	if p.maxAttempts == 0 {
		p.maxAttempts = DefaultMaxAttempts
	}
	if p.connectTimeout == 0 {
		p.connectTimeout = DefaultConnectTimeout
	}
	if p.ackTimeout == 0 {
		p.ackTimeout = DefaultAckTimeout
	}
	if p.newID == nil {
		p.newID = reading.NewID
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	return p, nil
}

// MaxAttempts returns the attempt budget used by Publish.
func (p *Publisher) MaxAttempts() int {
	return p.maxAttempts
}

// Publish sends value with the configured attempt budget.
// See PublishWithAttempts.
func (p *Publisher) Publish(ctx context.Context, value any) (bool, error) {
	return p.PublishWithAttempts(ctx, value, p.maxAttempts)
}

// PublishWithAttempts sends value as one temperature reading, trying at
// most attempts times.
//
// Returns:
//   - true, nil: the broker acknowledged the reading
//   - false, nil: every attempt failed (logged, not an error)
//   - false, err: the reading is invalid (*reading.FormatError,
//     *reading.TypeError, *reading.SchemaError), attempts < 1, or ctx was
//     cancelled
func (p *Publisher) PublishWithAttempts(ctx context.Context, value any, attempts int) (bool, error) {
	if attempts < 1 {
		return false, fmt.Errorf("%w: attempts must be at least 1, got %d", ErrInvalidOptions, attempts)
	}

	for n := 1; n <= attempts; n++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		payload, err := p.schema.NewPayload(p.newID(), value)
		if err != nil {
			p.logger.Error("invalid temperature reading", "value", value, "error", err)
			return false, err
		}
		body, err := payload.Encode()
		if err != nil {
			return false, fmt.Errorf("encoding payload: %w", err)
		}

		started := time.Now()
		err = p.attempt(ctx, body)
		p.record(ctx, Attempt{
			TemperatureID: payload.TemperatureID,
			Value:         payload.Value,
			Topic:         p.topic,
			Number:        n,
			MaxAttempts:   attempts,
			Err:           err,
			Duration:      time.Since(started),
			At:            started.UTC(),
		})

		if err == nil {
			p.logger.Info("temperature published",
				"temperature_id", payload.TemperatureID,
				"value", payload.Value,
				"attempt", n,
			)
			if p.sink != nil {
				p.sink.WriteTemperature(payload.TemperatureID, payload.Value)
			}
			return true, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}

		p.logger.Warn("publish attempt failed",
			"temperature_id", payload.TemperatureID,
			"attempt", n,
			"max_attempts", attempts,
			"error", err,
		)

		if n < attempts && p.retryDelay > 0 {
			timer := time.NewTimer(p.retryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return false, ctx.Err()
			case <-timer.C:
			}
		}
	}

	p.logger.Error("temperature reading not published, attempts exhausted",
		"value", value,
		"attempts", attempts,
	)
	return false, nil
}

// attempt runs one full session cycle. The session is reset on entry and
// on every exit, including a panic, which is converted into an error.
func (p *Publisher) attempt(ctx context.Context, body []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errAttemptPanicked, r)
		}
	}()

	p.session.Reset()
	defer p.session.Reset()

	if err := p.session.Connect(); err != nil {
		return err
	}
	if err := p.session.AwaitConnected(ctx, p.connectTimeout); err != nil {
		return err
	}
	if err := p.session.Publish(body); err != nil {
		return err
	}
	return p.session.AwaitPublished(ctx, p.ackTimeout)
}

func (p *Publisher) record(ctx context.Context, a Attempt) {
	if p.recorder == nil {
		return
	}
	// Recording must survive the cancellation that may have ended the attempt.
	if err := p.recorder.RecordAttempt(context.WithoutCancel(ctx), a); err != nil {
		p.logger.Warn("recording publish attempt failed",
			"temperature_id", a.TemperatureID,
			"attempt", a.Number,
			"error", err,
		)
	}
}
