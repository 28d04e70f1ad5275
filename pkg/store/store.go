// Package store keeps the verdict history of live sessions in redis.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/chenBenjamin97/pushup-analyzer/pkg/config"
	"github.com/chenBenjamin97/pushup-analyzer/pkg/stream"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

//ErrDisabled is returned by reads when redis is turned off in the configuration
var ErrDisabled = errors.New("verdict store disabled")

//VerdictStore is a stream.Sink writing every verdict to
//<prefix>:session:<id>:verdicts (sorted by time) and counting them in <prefix>:session:<id>:summary
type VerdictStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

//New returns a store; with redis disabled it accepts and drops every write
func New(cfg config.Redis) *VerdictStore {
	s := &VerdictStore{prefix: cfg.Prefix, ttl: cfg.TTL}
	if !cfg.Enabled {
		logrus.Info("verdict store disabled by configuration")
		return s
	}

	s.client = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return s
}

func (s *VerdictStore) Enabled() bool {
	return s.client != nil
}

func (s *VerdictStore) VerdictsKey(session string) string {
	return fmt.Sprintf("%s:session:%s:verdicts", s.prefix, session)
}

func (s *VerdictStore) SummaryKey(session string) string {
	return fmt.Sprintf("%s:session:%s:summary", s.prefix, session)
}

//Ping checks the connection
func (s *VerdictStore) Ping(ctx context.Context) error {
	if !s.Enabled() {
		return ErrDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Ping: could not reach redis, got '%w'", err)
	}
	return nil
}

func (s *VerdictStore) Publish(ctx context.Context, e stream.Event) error {
	if !s.Enabled() {
		return nil
	}

	member, err := json.Marshal(e)
	if err != nil {
		return err
	}

	verdicts, summary := s.VerdictsKey(e.Session), s.SummaryKey(e.Session)

	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, verdicts, &redis.Z{Score: float64(e.At.UnixNano() / int64(time.Millisecond)), Member: member})
	pipe.HIncrBy(ctx, summary, e.Verdict.String(), 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, verdicts, s.ttl)
		pipe.Expire(ctx, summary, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("Publish: %w", err)
	}
	return nil
}

//History returns the verdicts of a session, oldest first
func (s *VerdictStore) History(ctx context.Context, session string) ([]stream.Event, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}

	members, err := s.client.ZRange(ctx, s.VerdictsKey(session), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("History: %w", err)
	}

	events := make([]stream.Event, 0, len(members))
	for _, m := range members {
		var e stream.Event
		if err := json.Unmarshal([]byte(m), &e); err != nil {
			return nil, fmt.Errorf("History: bad entry in '%s', got '%w'", s.VerdictsKey(session), err)
		}
		events = append(events, e)
	}
	return events, nil
}

//Summary returns how many verdicts of each kind a session produced
func (s *VerdictStore) Summary(ctx context.Context, session string) (map[string]int64, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}

	raw, err := s.client.HGetAll(ctx, s.SummaryKey(session)).Result()
	if err != nil {
		return nil, fmt.Errorf("Summary: %w", err)
	}

	out := make(map[string]int64, len(raw))
	for k, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("Summary: bad count for '%s', got '%w'", k, err)
		}
		out[k] = n
	}
	return out, nil
}

func (s *VerdictStore) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.client.Close()
}
