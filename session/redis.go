package session

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ariebrainware/patient-console/view"
	"github.com/redis/go-redis/v9"
)

const (
	containerField = "container:"
	formField      = "form:"
	cardsField     = "cards"
	pendingField   = "pending"
)

// RedisStore keeps documents in Redis so several console instances can
// share sessions. Layout per session:
//
//	page:<sid>            hash of containers, forms, cards and the pending flag
//	notify:<sid>          sorted set of notifications scored by expiry (unix ms)
//	busy:<sid>:<control>  present while the control's action is in flight
type RedisStore struct {
	rdb     redis.Cmdable
	ttl     time.Duration
	busyTTL time.Duration
	now     func() time.Time
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisClock replaces the store's clock.
func WithRedisClock(now func() time.Time) RedisOption {
	return func(s *RedisStore) {
		s.now = now
	}
}

// WithRedisBusyTTL bounds how long a control stays busy without a release,
// so a crashed instance cannot lock a control for the whole session.
func WithRedisBusyTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.busyTTL = ttl
		}
	}
}

// NewRedisStore returns a store backed by rdb whose keys live for ttl after the last write.
func NewRedisStore(rdb redis.Cmdable, ttl time.Duration, opts ...RedisOption) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	s := &RedisStore{rdb: rdb, ttl: ttl, busyTTL: DefaultBusyTTL, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func pageKey(sid string) string   { return "page:" + sid }
func notifyKey(sid string) string { return "notify:" + sid }

// Load reads the session's hash, drops expired notifications and reads the busy flags.
func (s *RedisStore) Load(ctx context.Context, sid string) (*Document, error) {
	doc := newDocument()

	fields, err := s.rdb.HGetAll(ctx, pageKey(sid)).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("load page %s: %w", sid, err)
	}
	for field, value := range fields {
		switch {
		case strings.HasPrefix(field, containerField):
			doc.Containers[strings.TrimPrefix(field, containerField)] = template.HTML(value)
		case strings.HasPrefix(field, formField):
			var values map[string]string
			if err := json.Unmarshal([]byte(value), &values); err != nil {
				return nil, fmt.Errorf("decode %s: %w", field, err)
			}
			doc.Forms[strings.TrimPrefix(field, formField)] = values
		case field == cardsField:
			if err := json.Unmarshal([]byte(value), &doc.Cards); err != nil {
				return nil, fmt.Errorf("decode cards: %w", err)
			}
		case field == pendingField:
			doc.Pending = value == "1"
		}
	}

	now := strconv.FormatInt(s.now().UnixMilli(), 10)
	if err := s.rdb.ZRemRangeByScore(ctx, notifyKey(sid), "-inf", now).Err(); err != nil {
		return nil, fmt.Errorf("expire notifications: %w", err)
	}
	members, err := s.rdb.ZRange(ctx, notifyKey(sid), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("load notifications: %w", err)
	}
	for _, m := range members {
		var n view.Notification
		if err := json.Unmarshal([]byte(m), &n); err != nil {
			return nil, fmt.Errorf("decode notification: %w", err)
		}
		doc.Notifications = append(doc.Notifications, n)
	}

	controls := view.Controls()
	keys := make([]string, len(controls))
	for i, c := range controls {
		keys[i] = busyKey(sid, c)
	}
	flags, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load busy controls: %w", err)
	}
	for i, flag := range flags {
		if flag != nil {
			doc.Busy[controls[i]] = true
		}
	}
	return doc, nil
}

// Apply writes patch in a single MULTI/EXEC block.
func (s *RedisStore) Apply(ctx context.Context, sid string, patch *Patch) error {
	if patch == nil || patch.Empty() {
		return nil
	}

	var values []interface{}
	var removed []string
	for _, id := range sortedKeys(patch.Containers) {
		values = append(values, containerField+id, string(patch.Containers[id]))
	}
	for _, form := range sortedKeys(patch.Forms) {
		formValues := patch.Forms[form]
		if formValues == nil {
			removed = append(removed, formField+form)
			continue
		}
		encoded, err := json.Marshal(formValues)
		if err != nil {
			return fmt.Errorf("encode %s: %w", form, err)
		}
		values = append(values, formField+form, string(encoded))
	}
	if patch.CardsSet {
		encoded, err := json.Marshal(patch.Cards)
		if err != nil {
			return fmt.Errorf("encode cards: %w", err)
		}
		values = append(values, cardsField, string(encoded))
	}
	if patch.Pending != nil {
		if *patch.Pending {
			values = append(values, pendingField, "1")
		} else {
			removed = append(removed, pendingField)
		}
	}

	members := make([]redis.Z, 0, len(patch.Notifications))
	for _, n := range patch.Notifications {
		encoded, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("encode notification: %w", err)
		}
		members = append(members, redis.Z{Score: float64(n.ExpiresAt.UnixMilli()), Member: string(encoded)})
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(values) > 0 {
			pipe.HSet(ctx, pageKey(sid), values...)
		}
		if len(removed) > 0 {
			pipe.HDel(ctx, pageKey(sid), removed...)
		}
		if len(values) > 0 || len(removed) > 0 {
			pipe.Expire(ctx, pageKey(sid), s.ttl)
		}
		if len(members) > 0 {
			pipe.ZAdd(ctx, notifyKey(sid), members...)
			pipe.Expire(ctx, notifyKey(sid), s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("apply page patch %s: %w", sid, err)
	}
	return nil
}

// Acquire marks control busy with SETNX.
func (s *RedisStore) Acquire(ctx context.Context, sid, control string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, busyKey(sid, control), "1", s.busyTTL).Result()
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", control, err)
	}
	return ok, nil
}

// Release clears the busy mark of control.
func (s *RedisStore) Release(ctx context.Context, sid, control string) error {
	if err := s.rdb.Del(ctx, busyKey(sid, control)).Err(); err != nil {
		return fmt.Errorf("release %s: %w", control, err)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var _ Store = (*RedisStore)(nil)
