package commercial

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samirrijal/voltfinder/internal/pkg/metrics"
)

// ErrSDKUnavailable wraps every load failure.
var ErrSDKUnavailable = errors.New("maps sdk unavailable")

// DefaultLoadTimeout bounds a single load attempt.
const DefaultLoadTimeout = 30 * time.Second

// LoadState is the lifecycle of a Loader.
type LoadState int

const (
	StateIdle LoadState = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s LoadState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("LoadState(%d)", int(s))
}

type loadResult struct {
	sdk SDK
	err error
}

// Loader loads the SDK at most once at a time. Callers arriving while an
// attempt is in flight wait for that attempt. A failed attempt is reported
// to all of its waiters and leaves the Loader in StateFailed; the next Load
// starts a new attempt.
type Loader struct {
	load    LoadFunc
	timeout time.Duration
	log     *slog.Logger

	mu       sync.Mutex
	state    LoadState
	sdk      SDK
	err      error
	attempts int
	waiters  []chan loadResult
}

// NewLoader creates an idle Loader. Most code should use SharedLoader.
func NewLoader(load LoadFunc, timeout time.Duration) *Loader {
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	return &Loader{
		load:    load,
		timeout: timeout,
		log:     slog.Default().With("component", "sdk_loader"),
	}
}

var (
	sharedOnce   sync.Once
	sharedLoader *Loader
)

// SharedLoader returns the process-wide Loader. load is only used by the
// first call.
func SharedLoader(load LoadFunc) *Loader {
	sharedOnce.Do(func() {
		sharedLoader = NewLoader(load, DefaultLoadTimeout)
	})
	return sharedLoader
}

// State returns the current state.
func (l *Loader) State() LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Attempts returns how many load attempts were started.
func (l *Loader) Attempts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.attempts
}

// Waiting returns the number of callers blocked on the in-flight attempt.
func (l *Loader) Waiting() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.waiters)
}

// Load returns the SDK, starting an attempt if none is loaded or in flight.
// Cancelling ctx abandons the wait for this caller only; the attempt
// itself keeps running for the other waiters.
func (l *Loader) Load(ctx context.Context) (SDK, error) {
	l.mu.Lock()
	switch l.state {
	case StateLoaded:
		sdk := l.sdk
		l.mu.Unlock()
		return sdk, nil
	case StateIdle, StateFailed:
		l.state = StateLoading
		l.err = nil
		l.attempts++
		go l.run(l.attempts)
	}
	ch := make(chan loadResult, 1)
	l.waiters = append(l.waiters, ch)
	l.mu.Unlock()

	select {
	case r := <-ch:
		return r.sdk, r.err
	case <-ctx.Done():
		l.dropWaiter(ch)
		return nil, ctx.Err()
	}
}

func (l *Loader) run(attempt int) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	sdk, err := l.load(ctx)
	if err == nil && sdk == nil {
		err = errors.New("loader returned no sdk")
	}

	l.mu.Lock()
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrSDKUnavailable, err)
		l.state = StateFailed
		l.err = err
		sdk = nil
	} else {
		l.state = StateLoaded
		l.sdk = sdk
	}
	waiters := l.waiters
	l.waiters = nil
	l.mu.Unlock()

	if err != nil {
		metrics.SDKLoads.WithLabelValues("error").Inc()
		l.log.Warn("sdk load failed", "attempt", attempt, "error", err)
	} else {
		metrics.SDKLoads.WithLabelValues("ok").Inc()
		l.log.Debug("sdk loaded", "attempt", attempt)
	}

	for _, ch := range waiters {
		ch <- loadResult{sdk: sdk, err: err}
	}
}

func (l *Loader) dropWaiter(ch chan loadResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, w := range l.waiters {
		if w == ch {
			l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
			return
		}
	}
}
