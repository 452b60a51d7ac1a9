package assistant

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Retirement records why a proposal left the store.
type Retirement int

const (
	RetiredDecided Retirement = iota + 1
	RetiredExpired
)

// retirementTTL bounds how long the store remembers why an id left.
const retirementTTL = 30 * time.Minute

type StoreOption func(*ProposalStore)

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) StoreOption {
	return func(s *ProposalStore) {
		s.now = now
	}
}

// ProposalStore holds pending proposals keyed by id. Expiry is checked
// lazily on lookup; there is no background sweep of pending entries.
type ProposalStore struct {
	mu        sync.RWMutex
	proposals map[string]*Proposal
	now       func() time.Time

	// retired remembers recently removed ids so callers can tell a decided
	// proposal from an expired one.
	retired *gocache.Cache
}

func NewProposalStore(opts ...StoreOption) *ProposalStore {
	s := &ProposalStore{
		proposals: make(map[string]*Proposal),
		now:       time.Now,
		retired:   gocache.New(retirementTTL, 2*retirementTTL),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ProposalStore) Put(p *Proposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals[p.ID] = p
	s.retired.Delete(p.ID)
}

// Get returns a live proposal without removing it. An expired proposal is
// evicted and reported as missing.
func (s *ProposalStore) Get(id string) (*Proposal, bool) {
	s.mu.RLock()
	p, ok := s.proposals[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !p.Expired(s.now()) {
		return p, true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.proposals[id]; ok && cur == p {
		s.evictLocked(id)
	}
	return nil, false
}

// Pop atomically removes and returns a live proposal. An expired proposal is
// removed and reported as missing.
func (s *ProposalStore) Pop(id string) (*Proposal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.proposals[id]
	if !ok {
		return nil, false
	}
	if p.Expired(s.now()) {
		s.evictLocked(id)
		return nil, false
	}

	delete(s.proposals, id)
	s.retired.SetDefault(id, RetiredDecided)
	return p, true
}

// Retired reports why id was removed, if it was removed recently.
func (s *ProposalStore) Retired(id string) (Retirement, bool) {
	v, ok := s.retired.Get(id)
	if !ok {
		return 0, false
	}
	r, ok := v.(Retirement)
	return r, ok
}

func (s *ProposalStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.proposals)
}

func (s *ProposalStore) evictLocked(id string) {
	delete(s.proposals, id)
	s.retired.SetDefault(id, RetiredExpired)
}
