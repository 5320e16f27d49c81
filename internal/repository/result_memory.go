package repository

import (
	"context"
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

type memoryResult struct {
	mu           sync.RWMutex
	byRoom       map[string][]*entity.MatchResult
	totals       entity.ResultTotals
	historyLimit int
}

// NewMemoryResultRepository - same contract as the redis repository, kept in process memory.
func NewMemoryResultRepository(historyLimit int) ResultRepository {
	return &memoryResult{
		byRoom:       make(map[string][]*entity.MatchResult),
		historyLimit: historyLimit,
	}
}

func (that *memoryResult) Save(_ context.Context, result *entity.MatchResult) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	stored := *result
	history := append([]*entity.MatchResult{&stored}, that.byRoom[result.RoomID]...)
	if that.historyLimit > 0 && len(history) > that.historyLimit {
		history = history[:that.historyLimit]
	}

	that.byRoom[result.RoomID] = history
	that.totals.Add(result.Outcome(), 1)

	return nil
}

func (that *memoryResult) ListByRoom(_ context.Context, roomID string) ([]*entity.MatchResult, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	history := that.byRoom[roomID]
	results := make([]*entity.MatchResult, 0, len(history))
	for _, result := range history {
		copied := *result
		results = append(results, &copied)
	}

	return results, nil
}

func (that *memoryResult) Totals(_ context.Context) (entity.ResultTotals, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.totals, nil
}
