// Package board keeps the acquired places and the latest user-facing notice
// for the HTTP API.
package board

import (
	"sync"
	"time"

	"github.com/placebadges/acquisition/internal/core/domain"
	"github.com/placebadges/acquisition/internal/pkg/clock"
)

const defaultCapacity = 100

// Notice kinds.
const (
	NoticeAcquired         = "place_acquired"
	NoticeDuplicate        = "duplicate"
	NoticeNoCurrentReading = "no_current_reading"
	NoticeReset            = "reset"
)

// Notice is the last message that would have been shown to the user.
type Notice struct {
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Entry is an acquired place as shown on the board.
type Entry struct {
	Place      domain.PlaceRecord `json:"place"`
	AcquiredAt time.Time          `json:"acquired_at"`
}

// View is a consistent copy of the board.
type View struct {
	Places []Entry `json:"places"`
	Notice *Notice `json:"notice,omitempty"`
	Total  int     `json:"total"`
}

// Board implements ports.AcquisitionSink and ports.ResetObserver. It keeps
// the most recent places, newest first, up to its capacity.
type Board struct {
	clock    clock.Clock
	capacity int

	mu     sync.RWMutex
	places []Entry
	total  int
	notice *Notice
}

// New returns an empty board. A non-positive capacity selects 100.
func New(clk clock.Clock, capacity int) *Board {
	if clk == nil {
		clk = clock.System{}
	}
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Board{clock: clk, capacity: capacity}
}

func (b *Board) OnPlaceAcquired(place domain.PlaceRecord) {
	now := b.clock.Now().UTC()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.places = append([]Entry{{Place: place, AcquiredAt: now}}, b.places...)
	if len(b.places) > b.capacity {
		b.places = b.places[:b.capacity]
	}
	b.total++
	b.setNotice(NoticeAcquired, "New place: "+place.Name, now)
}

func (b *Board) OnDuplicateDetected() {
	b.note(NoticeDuplicate, "You already have this location badge")
}

func (b *Board) OnNoCurrentReading() {
	b.note(NoticeNoCurrentReading, "Location data is not available")
}

// OnReset empties the board.
func (b *Board) OnReset() {
	now := b.clock.Now().UTC()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.places = nil
	b.total = 0
	b.setNotice(NoticeReset, "All places cleared", now)
}

// View returns a copy of the board.
func (b *Board) View() View {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v := View{Places: make([]Entry, len(b.places)), Total: b.total}
	copy(v.Places, b.places)
	if b.notice != nil {
		n := *b.notice
		v.Notice = &n
	}
	return v
}

func (b *Board) note(kind, msg string) {
	now := b.clock.Now().UTC()
	b.mu.Lock()
	b.setNotice(kind, msg, now)
	b.mu.Unlock()
}

func (b *Board) setNotice(kind, msg string, at time.Time) {
	b.notice = &Notice{Kind: kind, Message: msg, At: at}
}
