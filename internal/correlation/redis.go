package correlation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"sigil/pkg/domain"
	"sigil/pkg/platform/sentinel"
)

// RedisTable backs the correlation table with Redis so multiple vault
// instances can share outstanding requests. SETNX gives duplicate-safe
// registration; GETDEL gives the atomic consume.
//
// Entries carry no TTL: a disclosure request may stay outstanding
// indefinitely and must still correlate when the callback finally arrives.
type RedisTable struct {
	client    redis.Cmdable
	keyPrefix string
}

// entry is the stored form of a Target. The record ID and field are kept as
// explicit JSON fields; nothing is ever packed arithmetically.
type entry struct {
	RecordID uint64  `json:"record_id"`
	Field    *string `json:"field,omitempty"`
}

// NewRedisTable builds a table scoped to the given namespace. Each protocol
// instance gets its own namespace so request IDs never cross protocols.
func NewRedisTable(client redis.Cmdable, namespace string) *RedisTable {
	return &RedisTable{client: client, keyPrefix: "sigil:correlation:" + namespace + ":"}
}

func (t *RedisTable) Register(ctx context.Context, requestID domain.RequestID, target Target) error {
	e := entry{RecordID: uint64(target.RecordID)}
	if target.Field != nil {
		f := target.Field.String()
		e.Field = &f
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal correlation entry: %w", err)
	}

	ok, err := t.client.SetNX(ctx, t.keyPrefix+requestID.String(), payload, 0).Result()
	if err != nil {
		return fmt.Errorf("register correlation entry: %w", err)
	}
	if !ok {
		return sentinel.ErrConflict
	}
	return nil
}

func (t *RedisTable) Consume(ctx context.Context, requestID domain.RequestID) (Target, error) {
	payload, err := t.client.GetDel(ctx, t.keyPrefix+requestID.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Target{}, sentinel.ErrNotFound
		}
		return Target{}, fmt.Errorf("consume correlation entry: %w", err)
	}

	var e entry
	if err := json.Unmarshal(payload, &e); err != nil {
		return Target{}, fmt.Errorf("unmarshal correlation entry: %w", err)
	}

	target := Target{RecordID: domain.RecordID(e.RecordID)}
	if e.Field != nil {
		field, err := domain.ParsePlanField(*e.Field)
		if err != nil {
			return Target{}, fmt.Errorf("corrupt correlation entry: %w", err)
		}
		target.Field = &field
	}
	return target, nil
}
