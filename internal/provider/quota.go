package provider

import (
	"fmt"
	"sync"
	"time"

	"github.com/docufield/extractor/internal/common"
)

// QuotaTracker enforces a free-tier ceiling: a sliding one-minute request
// window plus a per-calendar-day counter. Reserve is the single entry point
// so the check and the record are atomic; quota cannot be exceeded by
// concurrent callers racing between them.
type QuotaTracker struct {
	mu        sync.Mutex
	perMinute int // 0 disables the limit
	perDay    int
	window    []time.Time
	day       time.Time
	dayCount  int
	now       func() time.Time
}

func NewQuotaTracker(perMinute, perDay int) *QuotaTracker {
	return &QuotaTracker{
		perMinute: perMinute,
		perDay:    perDay,
		now:       time.Now,
	}
}

// Reserve records one request if neither limit would be exceeded, or fails
// with ErrRateLimited without recording anything. The caller must not issue
// the backend call when Reserve fails.
func (q *QuotaTracker) Reserve() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now().UTC()
	q.prune(now)

	if q.perMinute > 0 && len(q.window) >= q.perMinute {
		return fmt.Errorf("%w: %d requests in the last minute (limit %d)",
			common.ErrRateLimited, len(q.window), q.perMinute)
	}
	if q.perDay > 0 && q.dayCount >= q.perDay {
		return fmt.Errorf("%w: %d requests today (limit %d)",
			common.ErrRateLimited, q.dayCount, q.perDay)
	}

	q.window = append(q.window, now)
	q.dayCount++
	return nil
}

// Remaining reports how many requests are left in the current minute and day.
func (q *QuotaTracker) Remaining() (minute, day int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.prune(q.now().UTC())
	minute, day = -1, -1
	if q.perMinute > 0 {
		minute = q.perMinute - len(q.window)
	}
	if q.perDay > 0 {
		day = q.perDay - q.dayCount
	}
	return minute, day
}

// prune drops window entries older than one minute and rolls the day
// counter over at midnight UTC. Caller holds the lock.
func (q *QuotaTracker) prune(now time.Time) {
	cutoff := now.Add(-time.Minute)
	kept := q.window[:0]
	for _, t := range q.window {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	q.window = kept

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if !q.day.Equal(today) {
		q.day = today
		q.dayCount = 0
	}
}
