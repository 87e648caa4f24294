package store

import (
	"context"
	"slices"
	"sync"

	"github.com/rickgao/dao-risk/internal/model"
)

// Memory is an in-process store with the same upsert and cursor semantics
// as Postgres. It backs dry runs and tests.
type Memory struct {
	mu        sync.RWMutex
	cursors   map[model.Stream]model.Cursor
	proposals map[string]model.Proposal
	votes     map[string]model.Vote
	saves     int
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		cursors:   make(map[model.Stream]model.Cursor),
		proposals: make(map[string]model.Proposal),
		votes:     make(map[string]model.Vote),
	}
}

// LastCursor returns the stored cursor for stream.
func (m *Memory) LastCursor(_ context.Context, stream model.Stream) (model.Cursor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cursors[stream], nil
}

// ResetCursor forgets the cursor for stream.
func (m *Memory) ResetCursor(_ context.Context, stream model.Stream) error {
	m.mu.Lock()
	delete(m.cursors, stream)
	m.mu.Unlock()
	return nil
}

// SaveProposals upserts proposals tagged with tag and sets the cursor.
func (m *Memory) SaveProposals(_ context.Context, proposals []model.Proposal, tag, next model.Cursor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range proposals {
		p.Cursor = tag
		m.proposals[p.ID] = p
	}
	m.cursors[model.StreamProposals] = next
	m.saves++
	return nil
}

// SaveVotes upserts votes and sets the cursor.
func (m *Memory) SaveVotes(_ context.Context, votes []model.Vote, next model.Cursor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range votes {
		m.votes[v.ID] = v
	}
	m.cursors[model.StreamVotes] = next
	m.saves++
	return nil
}

// Proposal returns a stored proposal by id.
func (m *Memory) Proposal(id string) (model.Proposal, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.proposals[id]
	return p, ok
}

// Proposals returns all stored proposals ordered by creation time.
func (m *Memory) Proposals() []model.Proposal {
	m.mu.RLock()
	out := make([]model.Proposal, 0, len(m.proposals))
	for _, p := range m.proposals {
		out = append(out, p)
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b model.Proposal) int {
		if a.Created != b.Created {
			if a.Created < b.Created {
				return -1
			}
			return 1
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out
}

// VoteCount returns the number of distinct stored votes.
func (m *Memory) VoteCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.votes)
}

// Saves returns how many save calls succeeded.
func (m *Memory) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
