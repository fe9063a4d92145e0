package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BaSui01/retainflow/types"
)

// RedisSink appends entries to a capped Redis stream.
type RedisSink struct {
	client redis.UniversalClient
	stream string
	maxLen int64
}

// NewRedisSink creates a stream sink. maxLen <= 0 leaves the stream uncapped.
func NewRedisSink(client redis.UniversalClient, stream string, maxLen int64) *RedisSink {
	if stream == "" {
		stream = "retainflow:audit"
	}
	return &RedisSink{client: client, stream: stream, maxLen: maxLen}
}

// Append implements Sink.
func (s *RedisSink) Append(ctx context.Context, e types.AuditEntry) error {
	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"id":          e.ID,
			"customer_id": e.CustomerID,
			"action":      string(e.Action),
			"reason":      e.Reason,
			"status":      e.Status,
			"timestamp":   e.Timestamp.UTC().Format(time.RFC3339Nano),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return nil
}

// Recent reads up to count of the newest entries, newest first.
func (s *RedisSink) Recent(ctx context.Context, count int64) ([]types.AuditEntry, error) {
	msgs, err := s.client.XRevRangeN(ctx, s.stream, "+", "-", count).Result()
	if err != nil {
		return nil, fmt.Errorf("xrevrange %s: %w", s.stream, err)
	}
	out := make([]types.AuditEntry, 0, len(msgs))
	for _, m := range msgs {
		str := func(k string) string {
			v, _ := m.Values[k].(string)
			return v
		}
		ts, _ := time.Parse(time.RFC3339Nano, str("timestamp"))
		out = append(out, types.AuditEntry{
			ID:         str("id"),
			CustomerID: str("customer_id"),
			Action:     types.AccountAction(str("action")),
			Reason:     str("reason"),
			Status:     str("status"),
			Timestamp:  ts,
		})
	}
	return out, nil
}
