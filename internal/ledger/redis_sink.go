package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/bordrail/internal/model"
)

// RedisSink pushes bookings onto the tail of a Redis list as JSON.
type RedisSink struct {
	rdb *redis.Client
	key string
}

func NewRedisSink(rdb *redis.Client, key string) *RedisSink {
	return &RedisSink{rdb: rdb, key: key}
}

type redisRecord struct {
	RouteID    int    `json:"route_id"`
	UserID     int    `json:"user_id"`
	Day        string `json:"day"`
	Time       string `json:"time,omitempty"`
	RecordedAt string `json:"recorded_at"`
}

func (s *RedisSink) Append(ctx context.Context, rec model.BookingRecord) error {
	body, err := json.Marshal(redisRecord{
		RouteID:    rec.RouteID,
		UserID:     rec.UserID,
		Day:        rec.Day,
		Time:       rec.Time,
		RecordedAt: rec.RecordedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	if err := s.rdb.RPush(ctx, s.key, body).Err(); err != nil {
		return fmt.Errorf("redis rpush %s: %w", s.key, err)
	}
	return nil
}
