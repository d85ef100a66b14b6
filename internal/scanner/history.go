package scanner

import (
	"sync"
	"time"

	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/domain"
)

// History is the bounded most-recent-first buffer of scan attempts shown to
// the operator. Purely session state, never persisted.
type History struct {
	mu     sync.Mutex
	max    int
	events []domain.ScanEvent
}

func NewHistory(max int) *History {
	if max < 1 {
		max = 1
	}
	return &History{max: max}
}

// Record prepends a new scan attempt in the processing state.
func (h *History) Record(code string, at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.events = append([]domain.ScanEvent{{
		Code:      code,
		Timestamp: at,
		Status:    domain.ScanProcessing,
	}}, h.events...)
	if len(h.events) > h.max {
		h.events = h.events[:h.max]
	}
}

// Resolve updates the most recent event for code that is still processing.
func (h *History) Resolve(code string, status domain.ScanStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.events {
		if h.events[i].Code == code && h.events[i].Status == domain.ScanProcessing {
			h.events[i].Status = status
			return
		}
	}
}

// Recent returns a copy of the buffer, most recent first.
func (h *History) Recent() []domain.ScanEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]domain.ScanEvent, len(h.events))
	copy(out, h.events)
	return out
}
