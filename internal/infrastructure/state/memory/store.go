// Package memory holds the in-process analysis state store: one
// AnalysisState per case, written exclusively by the orchestrator and read
// by API handlers and watchers as immutable snapshots.
package memory

import (
	"context"
	"sync"

	"github.com/kachastepien/Backoffice/internal/core/domain"
)

const watchBuffer = 16

type Store struct {
	mu       sync.RWMutex
	states   map[string]domain.AnalysisState
	watchers map[string]map[uint64]chan domain.AnalysisState
	nextID   uint64
}

func NewStore() *Store {
	return &Store{
		states:   make(map[string]domain.AnalysisState),
		watchers: make(map[string]map[uint64]chan domain.AnalysisState),
	}
}

func (s *Store) Get(caseID string) (domain.AnalysisState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[caseID]
	if !ok {
		return domain.AnalysisState{}, false
	}
	return snapshot(state), true
}

func (s *Store) Put(caseID string, state domain.AnalysisState) {
	stored := snapshot(state)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[caseID] = stored
	s.notifyLocked(caseID, stored)
}

func (s *Store) Delete(caseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, caseID)
	s.notifyLocked(caseID, domain.IdleAnalysisState())
}

// notifyLocked fans a state out to the case's watchers. The caller holds the
// mutex; watcher channels are closed under the same mutex, so a send can
// never hit a closed channel. Sends never block: a slow watcher catches up
// on the next transition.
func (s *Store) notifyLocked(caseID string, state domain.AnalysisState) {
	for _, ch := range s.watchers[caseID] {
		select {
		case ch <- state:
		default:
		}
	}
}

// Watch registers an observer for one case. The current state, if any, is
// delivered first; the channel closes when ctx is done.
func (s *Store) Watch(ctx context.Context, caseID string) <-chan domain.AnalysisState {
	ch := make(chan domain.AnalysisState, watchBuffer)

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	if s.watchers[caseID] == nil {
		s.watchers[caseID] = make(map[uint64]chan domain.AnalysisState)
	}
	s.watchers[caseID][id] = ch
	if current, ok := s.states[caseID]; ok {
		// Fresh buffered channel, cannot block.
		ch <- snapshot(current)
	}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		// Removal and close happen in one critical section so no publisher
		// can send to the channel after it is closed.
		s.mu.Lock()
		delete(s.watchers[caseID], id)
		if len(s.watchers[caseID]) == 0 {
			delete(s.watchers, caseID)
		}
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// snapshot clones the mutable parts of a state. The result pointer is shared
// on purpose: a published AnalysisResult is immutable by contract.
func snapshot(state domain.AnalysisState) domain.AnalysisState {
	out := state
	if state.Files != nil {
		out.Files = make([]domain.FileMeta, len(state.Files))
		copy(out.Files, state.Files)
	}
	return out
}
