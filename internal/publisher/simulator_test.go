package publisher

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/temppub/internal/infrastructure/config"
	"github.com/nerrad567/temppub/internal/reading"
)

// fixedSource always yields the same 64 bits.
type fixedSource uint64

func (f fixedSource) Uint64() uint64 { return uint64(f) }

type fakePublisher struct {
	mu     sync.Mutex
	values []float64
	result bool
	err    error
	// cancel is called after stopAfter publishes.
	cancel    context.CancelFunc
	stopAfter int
}

func (f *fakePublisher) Publish(_ context.Context, value any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = append(f.values, value.(float64))
	if f.cancel != nil && len(f.values) >= f.stopAfter {
		f.cancel()
	}
	return f.result, f.err
}

func simConfig() config.SimulationConfig {
	return config.SimulationConfig{
		Interval: time.Millisecond,
		MinValue: config.DefaultSimMinValue,
		MaxValue: config.DefaultSimMaxValue,
	}
}

func TestSimulator_NextWithinRange(t *testing.T) {
	sim, err := NewSimulator(&fakePublisher{}, simConfig(), nil)
	if err != nil {
		t.Fatalf("NewSimulator() error = %v", err)
	}
	sim.SetRand(rand.New(rand.NewPCG(1, 2)))

	for range 10000 {
		v := sim.Next()
		if v < 18.0 || v > 28.0 {
			t.Fatalf("Next() = %v, outside [18.0, 28.0]", v)
		}
		if v != reading.Round(v) {
			t.Fatalf("Next() = %v, not rounded to one decimal", v)
		}
	}
}

func TestSimulator_NextBoundaries(t *testing.T) {
	tests := []struct {
		name   string
		source rand.Source
		want   float64
	}{
		{"lowest draw", fixedSource(0), 18.0},
		{"highest draw", fixedSource(math.MaxUint64), 28.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, err := NewSimulator(&fakePublisher{}, simConfig(), nil)
			if err != nil {
				t.Fatalf("NewSimulator() error = %v", err)
			}
			sim.SetRand(rand.New(tt.source))
			if got := sim.Next(); got != tt.want {
				t.Errorf("Next() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSimulator_RunUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := &fakePublisher{result: true, cancel: cancel, stopAfter: 5}
	sim, err := NewSimulator(pub, simConfig(), nil)
	if err != nil {
		t.Fatalf("NewSimulator() error = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- sim.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v, want nil on cancellation", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not stop after cancellation")
	}

	published, failed := sim.Stats()
	if published != 5 || failed != 0 {
		t.Errorf("Stats() = %d, %d; want 5, 0", published, failed)
	}
	for _, v := range pub.values {
		if v < 18.0 || v > 28.0 {
			t.Errorf("published %v outside [18.0, 28.0]", v)
		}
	}
}

func TestSimulator_RunContinuesAfterFailedReading(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := &fakePublisher{result: false, cancel: cancel, stopAfter: 3}
	sim, err := NewSimulator(pub, simConfig(), nil)
	if err != nil {
		t.Fatalf("NewSimulator() error = %v", err)
	}

	if err := sim.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, failed := sim.Stats(); failed != 3 {
		t.Errorf("failed = %d, want 3", failed)
	}
}

func TestSimulator_RunStopsOnInvalidReading(t *testing.T) {
	pub := &fakePublisher{err: &reading.TypeError{Field: reading.FieldValue, Value: "x"}}
	sim, err := NewSimulator(pub, simConfig(), nil)
	if err != nil {
		t.Fatalf("NewSimulator() error = %v", err)
	}

	err = sim.Run(context.Background())
	if !errors.Is(err, reading.ErrInvalidType) {
		t.Errorf("Run() error = %v, want ErrInvalidType", err)
	}
	if len(pub.values) != 1 {
		t.Errorf("published %d readings, want 1", len(pub.values))
	}
}

func TestNewSimulator_Invalid(t *testing.T) {
	tests := []struct {
		name string
		pub  ValuePublisher
		cfg  config.SimulationConfig
	}{
		{"nil publisher", nil, simConfig()},
		{"min above max", &fakePublisher{}, config.SimulationConfig{MinValue: 30, MaxValue: 20}},
		{"negative interval", &fakePublisher{}, config.SimulationConfig{Interval: -time.Second, MaxValue: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSimulator(tt.pub, tt.cfg, nil); !errors.Is(err, ErrInvalidOptions) {
				t.Errorf("NewSimulator() error = %v, want ErrInvalidOptions", err)
			}
		})
	}
}
