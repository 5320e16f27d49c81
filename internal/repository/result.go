package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const totalsKey = "results:totals"

type ResultRepository interface {
	Save(ctx context.Context, result *entity.MatchResult) error
	ListByRoom(ctx context.Context, roomID string) ([]*entity.MatchResult, error)
	Totals(ctx context.Context) (entity.ResultTotals, error)
}

type dbResult struct {
	client       *redis.Client
	historyLimit int64
}

// NewResultRepository - keeps the latest historyLimit results per room in a redis list, newest first.
func NewResultRepository(client *redis.Client, historyLimit int) ResultRepository {
	return &dbResult{
		client:       client,
		historyLimit: int64(historyLimit),
	}
}

func resultsKey(roomID string) string {
	return "room:" + roomID + ":results"
}

func (that *dbResult) Save(ctx context.Context, result *entity.MatchResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("could not marshal result: %w", err)
	}

	key := resultsKey(result.RoomID)

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, resultJSON)
		if that.historyLimit > 0 {
			pipe.LTrim(ctx, key, 0, that.historyLimit-1)
		}
		pipe.HIncrBy(ctx, totalsKey, result.Outcome(), 1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}

	return nil
}

func (that *dbResult) ListByRoom(ctx context.Context, roomID string) ([]*entity.MatchResult, error) {
	response, err := that.client.LRange(ctx, resultsKey(roomID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	results := make([]*entity.MatchResult, 0, len(response))
	for _, raw := range response {
		var result entity.MatchResult
		if err = json.Unmarshal([]byte(raw), &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}
		results = append(results, &result)
	}

	return results, nil
}

func (that *dbResult) Totals(ctx context.Context) (entity.ResultTotals, error) {
	var totals entity.ResultTotals

	response, err := that.client.HGetAll(ctx, totalsKey).Result()
	if err != nil {
		return totals, fmt.Errorf("failed to get totals: %w", err)
	}

	for outcome, raw := range response {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return totals, fmt.Errorf("invalid total for %s: %w", outcome, err)
		}
		totals.Add(outcome, n)
	}

	return totals, nil
}
