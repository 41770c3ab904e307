package buffer

import (
	"sync"
	"time"

	"github.com/ppiankov/chatguard/internal/model"
)

// MaxMessages is how many of a sender's messages a buffer retains.
const MaxMessages = 10

// Buffer is one sender's recent history in one channel.
type Buffer struct {
	Key            model.BufferKey `json:"key"`
	Messages       []string        `json:"messages"`
	RiskScore      int             `json:"risk_score"`
	LastAnalysisAt time.Time       `json:"last_analysis_at"`
}

// Copy returns a deep copy of b.
func (b Buffer) Copy() Buffer {
	b.Messages = append([]string(nil), b.Messages...)
	return b
}

type entry struct {
	mu  sync.Mutex
	buf Buffer
	// dead is set under mu when the entry leaves the map.
	dead bool
}

// Store holds conversation buffers keyed by (channel, sender). Each key has
// its own lock, so work on different keys never contends. Buffers live until
// Delete or Prune is called; the store never evicts on its own.
type Store struct {
	entries sync.Map // model.BufferKey -> *entry
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for LastAnalysisAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{now: func() time.Time { return time.Now().UTC() }}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) entry(key model.BufferKey, create bool) *entry {
	if v, ok := s.entries.Load(key); ok {
		return v.(*entry)
	}
	if !create {
		return nil
	}
	e := &entry{buf: Buffer{Key: key, Messages: []string{}}}
	actual, _ := s.entries.LoadOrStore(key, e)
	return actual.(*entry)
}

// Now returns the store's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// Exclusive runs fn with the key's buffer while holding the key's lock,
// creating an empty buffer first if none exists. fn may modify the buffer;
// the message cap is re-applied afterwards. If the entry is removed while
// fn waits for the lock, fn runs on a fresh buffer instead.
func (s *Store) Exclusive(key model.BufferKey, fn func(b *Buffer)) {
	for {
		e := s.entry(key, true)
		e.mu.Lock()
		if e.dead {
			e.mu.Unlock()
			continue
		}
		fn(&e.buf)
		e.buf.Messages = tail(e.buf.Messages, MaxMessages)
		e.mu.Unlock()
		return
	}
}

// Update replaces the key's history with the last MaxMessages entries of
// history and stamps LastAnalysisAt. history must already be filtered to
// the sender.
func (s *Store) Update(key model.BufferKey, history []string) {
	s.Exclusive(key, func(b *Buffer) {
		b.Messages = append([]string(nil), tail(history, MaxMessages)...)
		b.LastAnalysisAt = s.now()
	})
}

// Append adds one message to the key's history, evicting the oldest past
// MaxMessages, and stamps LastAnalysisAt so Prune treats it as fresh.
func (s *Store) Append(key model.BufferKey, text string) {
	s.Exclusive(key, func(b *Buffer) {
		b.Messages = append(b.Messages, text)
		b.LastAnalysisAt = s.now()
	})
}

// SetRiskScore records the most recent conversation score for key.
func (s *Store) SetRiskScore(key model.BufferKey, score int) {
	s.Exclusive(key, func(b *Buffer) {
		b.RiskScore = score
		b.LastAnalysisAt = s.now()
	})
}

// Get returns a copy of the key's buffer, or false if nothing was recorded.
func (s *Store) Get(key model.BufferKey) (Buffer, bool) {
	e := s.entry(key, false)
	if e == nil {
		return Buffer{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dead {
		return Buffer{}, false
	}
	return e.buf.Copy(), true
}

// Delete drops the key's buffer, e.g. at session end. A write already
// holding the key's lock completes first and is dropped with the buffer;
// an Evaluate racing a Reset may therefore lose its stored score.
func (s *Store) Delete(key model.BufferKey) {
	if e := s.entry(key, false); e != nil {
		s.remove(key, e)
	}
}

// Prune drops every buffer last analysed before cutoff and returns how many
// were removed. It runs only when the caller invokes it.
func (s *Store) Prune(cutoff time.Time) int {
	removed := 0
	s.entries.Range(func(k, v any) bool {
		e := v.(*entry)
		e.mu.Lock()
		stale := !e.dead && e.buf.LastAnalysisAt.Before(cutoff)
		if stale {
			e.dead = true
			s.entries.CompareAndDelete(k, e)
			removed++
		}
		e.mu.Unlock()
		return true
	})
	return removed
}

// remove retires e under its lock so no writer can touch it afterwards.
func (s *Store) remove(key model.BufferKey, e *entry) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dead {
		return
	}
	e.dead = true
	s.entries.CompareAndDelete(key, e)
}

// Len returns the number of buffered keys.
func (s *Store) Len() int {
	n := 0
	s.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func tail(msgs []string, n int) []string {
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
