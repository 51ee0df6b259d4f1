package session

import (
	"context"
	"sync"
	"time"

	"github.com/ariebrainware/patient-console/view"
	cache "github.com/patrickmn/go-cache"
)

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

type timeScheduler struct{}

func (timeScheduler) AfterFunc(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

type memoryPage struct {
	mu  sync.Mutex
	doc *Document
}

// MemoryStore keeps documents in process memory. Sessions expire after the
// configured TTL of inactivity; notifications are removed by the Scheduler
// once their lifetime ends.
type MemoryStore struct {
	pages     *cache.Cache
	busy      *cache.Cache
	ttl       time.Duration
	busyTTL   time.Duration
	scheduler Scheduler
	now       func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithScheduler replaces the timer used to remove notifications.
func WithScheduler(s Scheduler) MemoryOption {
	return func(m *MemoryStore) {
		m.scheduler = s
	}
}

// WithMemoryBusyTTL bounds how long a control stays busy without a release.
func WithMemoryBusyTTL(ttl time.Duration) MemoryOption {
	return func(m *MemoryStore) {
		if ttl > 0 {
			m.busyTTL = ttl
		}
	}
}

// WithMemoryClock replaces the store's clock.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) {
		m.now = now
	}
}

// NewMemoryStore returns a store whose sessions live for ttl after their last write.
func NewMemoryStore(ttl time.Duration, opts ...MemoryOption) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	s := &MemoryStore{
		pages:     cache.New(ttl, 10*time.Minute),
		busy:      cache.New(ttl, 10*time.Minute),
		ttl:       ttl,
		busyTTL:   DefaultBusyTTL,
		scheduler: timeScheduler{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) page(sid string) *memoryPage {
	if v, ok := s.pages.Get(sid); ok {
		return v.(*memoryPage)
	}
	p := &memoryPage{doc: newDocument()}
	if err := s.pages.Add(sid, p, cache.DefaultExpiration); err != nil {
		if v, ok := s.pages.Get(sid); ok {
			return v.(*memoryPage)
		}
	}
	return p
}

// Load returns a copy of the session's document.
func (s *MemoryStore) Load(_ context.Context, sid string) (*Document, error) {
	doc := newDocument()
	if v, ok := s.pages.Get(sid); ok {
		p := v.(*memoryPage)
		p.mu.Lock()
		for id, html := range p.doc.Containers {
			doc.Containers[id] = html
		}
		for form, values := range p.doc.Forms {
			doc.Forms[form] = copyValues(values)
		}
		doc.Cards = append(doc.Cards, p.doc.Cards...)
		doc.Notifications = append(doc.Notifications, p.doc.Notifications...)
		doc.Pending = p.doc.Pending
		p.mu.Unlock()
	}
	for _, control := range view.Controls() {
		if _, ok := s.busy.Get(busyKey(sid, control)); ok {
			doc.Busy[control] = true
		}
	}
	return doc, nil
}

// Apply commits patch and schedules removal of its notifications.
func (s *MemoryStore) Apply(_ context.Context, sid string, patch *Patch) error {
	if patch == nil || patch.Empty() {
		return nil
	}
	p := s.page(sid)
	p.mu.Lock()
	applyPatch(p.doc, patch)
	p.mu.Unlock()
	s.pages.Set(sid, p, cache.DefaultExpiration)

	for _, n := range patch.Notifications {
		id := n.ID
		s.scheduler.AfterFunc(n.ExpiresAt.Sub(s.now()), func() {
			s.removeNotification(sid, id)
		})
	}
	return nil
}

func (s *MemoryStore) removeNotification(sid, id string) {
	v, ok := s.pages.Get(sid)
	if !ok {
		return
	}
	p := v.(*memoryPage)
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.doc.Notifications[:0]
	for _, n := range p.doc.Notifications {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	p.doc.Notifications = kept
}

// Acquire marks control busy. go-cache's Add fails when the key exists,
// which makes the check and the mark one atomic step.
func (s *MemoryStore) Acquire(_ context.Context, sid, control string) (bool, error) {
	if err := s.busy.Add(busyKey(sid, control), struct{}{}, s.busyTTL); err != nil {
		return false, nil
	}
	return true, nil
}

// Release clears the busy mark of control.
func (s *MemoryStore) Release(_ context.Context, sid, control string) error {
	s.busy.Delete(busyKey(sid, control))
	return nil
}

func busyKey(sid, control string) string {
	return "busy:" + sid + ":" + control
}

var _ Store = (*MemoryStore)(nil)
