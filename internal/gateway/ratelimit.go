package gateway

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// RateClass selects which outbound budget a request draws from. Hazard
// overlay queries are far heavier than everything else and get their own,
// much slower, class.
type RateClass string

const (
	ClassDefault RateClass = "default"
	ClassHazard  RateClass = "hazard"
)

// Tuner thresholds. Once a minute a class with at least tunerMinSamples
// recorded outcomes has its limit nudged up on sustained success or down on
// sustained failure.
const (
	tunerInterval    = time.Minute
	tunerMinSamples  = 10
	tunerRaiseAbove  = 0.95
	tunerLowerBelow  = 0.80
	tunerLimitCeil   = 10
	tunerLimitFloor  = 1
)

type classWindow struct {
	limit    int
	interval time.Duration
	stamps   []time.Time
	success  int
	failure  int
}

// Limiter implements per-class sliding-window rate limiting: it keeps the
// timestamps of the last limit requests per class and blocks until the oldest
// falls outside the interval.
type Limiter struct {
	mu      sync.Mutex
	classes map[RateClass]*classWindow
}

// NewLimiter creates a limiter with the given default-class requests per
// second. The hazard class is fixed at one request per five seconds.
func NewLimiter(defaultPerSecond int) *Limiter {
	if defaultPerSecond < 1 {
		defaultPerSecond = 1
	}
	return &Limiter{
		classes: map[RateClass]*classWindow{
			ClassDefault: {limit: defaultPerSecond, interval: time.Second},
			ClassHazard:  {limit: 1, interval: 5 * time.Second},
		},
	}
}

func (l *Limiter) window(class RateClass) *classWindow {
	w, ok := l.classes[class]
	if !ok {
		w = l.classes[ClassDefault]
	}
	return w
}

// Acquire blocks until a slot in the class window is free or ctx is done.
func (l *Limiter) Acquire(ctx context.Context, class RateClass) error {
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("rate-limit wait: %w", err)
		}

		l.mu.Lock()
		w := l.window(class)
		now := time.Now()
		keep := w.stamps[:0]
		for _, s := range w.stamps {
			if now.Sub(s) < w.interval {
				keep = append(keep, s)
			}
		}
		w.stamps = keep
		if len(w.stamps) < w.limit {
			w.stamps = append(w.stamps, now)
			l.mu.Unlock()
			return nil
		}
		wait := w.stamps[0].Add(w.interval).Sub(now)
		l.mu.Unlock()

		if wait <= 0 {
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("rate-limit wait: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

// Record feeds the adaptive tuner with the outcome of one upstream call.
func (l *Limiter) Record(class RateClass, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	w := l.window(class)
	if ok {
		w.success++
	} else {
		w.failure++
	}
}

// Limit returns the current per-interval limit of a class.
func (l *Limiter) Limit(class RateClass) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.window(class).limit
}

// StartTuner runs the adaptive tuning loop until ctx is cancelled.
func (l *Limiter) StartTuner(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(tunerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.tune()
			}
		}
	}()
}

// tune adjusts each class limit from its recorded success rate. Counters are
// reset only when an adjustment happens, so sparse traffic keeps accumulating
// toward the sample minimum.
func (l *Limiter) tune() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for class, w := range l.classes {
		total := w.success + w.failure
		if total < tunerMinSamples {
			continue
		}
		rate := float64(w.success) / float64(total)
		adjusted := false
		switch {
		case rate > tunerRaiseAbove && w.limit < tunerLimitCeil:
			w.limit++
			adjusted = true
		case rate < tunerLowerBelow && w.limit > tunerLimitFloor:
			w.limit--
			adjusted = true
		}
		if adjusted {
			log.Printf("[gateway] tuned %s rate class to %d/%s (success %.0f%% over %d calls)",
				class, w.limit, w.interval, rate*100, total)
			w.success = 0
			w.failure = 0
		}
	}
}
