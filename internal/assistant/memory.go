package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"family-site/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultHistoryTTL = 7 * 24 * time.Hour
	// DefaultHistoryTurns counts question and answer pairs.
	DefaultHistoryTurns = 20
)

// Memory keeps recent chat turns per conversation in a Redis list, one item
// per message. A turn is a question with its answer, so maxTurns turns are
// 2*maxTurns items.
type Memory struct {
	client   redis.UniversalClient
	prefix   string
	ttl      time.Duration
	maxTurns int
}

func NewMemory(client redis.UniversalClient, ttl time.Duration, maxTurns int) *Memory {
	if ttl <= 0 {
		ttl = DefaultHistoryTTL
	}
	if maxTurns <= 0 {
		maxTurns = DefaultHistoryTurns
	}

	return &Memory{client: client, prefix: "chat:conversation:", ttl: ttl, maxTurns: maxTurns}
}

func (m *Memory) key(id string) string {
	return m.prefix + id
}

// Load returns the stored turns, oldest first. Unknown ids give an empty history.
func (m *Memory) Load(ctx context.Context, id string) ([]models.ChatTurn, error) {
	raw, err := m.client.LRange(ctx, m.key(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load conversation %s: %w", id, err)
	}

	turns := make([]models.ChatTurn, 0, len(raw))
	for _, item := range raw {
		var turn models.ChatTurn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			continue
		}
		turns = append(turns, turn)
	}

	return turns, nil
}

// Append adds messages, keeps only the newest maxTurns turns and refreshes the TTL.
func (m *Memory) Append(ctx context.Context, id string, turns ...models.ChatTurn) error {
	if len(turns) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(turns))
	for _, turn := range turns {
		b, err := json.Marshal(turn)
		if err != nil {
			return fmt.Errorf("encode chat turn: %w", err)
		}
		values = append(values, b)
	}

	key := m.key(id)
	_, err := m.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		pipe.LTrim(ctx, key, int64(-2*m.maxTurns), -1)
		pipe.Expire(ctx, key, m.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save conversation %s: %w", id, err)
	}

	return nil
}
