// Package runstate keeps the live snapshot of each campaign run and the
// advisory lock that keeps one run per campaign at a time.
package runstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"leadflow/internal/campaign/models"
	id "leadflow/pkg/domain"
	"leadflow/pkg/platform/sentinel"
)

const (
	DefaultStateTTL = 24 * time.Hour
	DefaultLockTTL  = 30 * time.Minute
)

func stateKey(campaignID id.CampaignID) string {
	return "campaign:" + campaignID.String() + ":state"
}

func lockKey(campaignID id.CampaignID) string {
	return "campaign:" + campaignID.String() + ":lock"
}

// RedisStore caches run snapshots under campaign:{id}:state.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Save(ctx context.Context, state models.RunState) error {
	body, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal run state: %w", err)
	}
	return s.client.Set(ctx, stateKey(state.CampaignID), body, s.ttl).Err()
}

func (s *RedisStore) Load(ctx context.Context, campaignID id.CampaignID) (*models.RunState, error) {
	body, err := s.client.Get(ctx, stateKey(campaignID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load run state: %w", err)
	}
	var state models.RunState
	if err := json.Unmarshal(body, &state); err != nil {
		return nil, fmt.Errorf("decode run state: %w", err)
	}
	return &state, nil
}

// InMemory is the single-process snapshot store. Entries do not expire.
type InMemory struct {
	mu     sync.RWMutex
	states map[id.CampaignID]models.RunState
}

func NewInMemory() *InMemory {
	return &InMemory{states: make(map[id.CampaignID]models.RunState)}
}

func (s *InMemory) Save(_ context.Context, state models.RunState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.CampaignID] = state
	return nil
}

func (s *InMemory) Load(_ context.Context, campaignID id.CampaignID) (*models.RunState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[campaignID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &state, nil
}

// releaseScript deletes the lock only while it still holds our token, so an
// expired holder cannot release a newer run's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock is a SET NX lock with a TTL. It is advisory: a run that outlives
// the TTL loses exclusivity.
type RedisLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLock(client *redis.Client, ttl time.Duration) *RedisLock {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RedisLock{client: client, ttl: ttl}
}

// Acquire takes the campaign's lock or returns sentinel.ErrLocked. The
// returned func releases it.
func (l *RedisLock) Acquire(ctx context.Context, campaignID id.CampaignID) (func(context.Context) error, error) {
	token := uuid.NewString()
	key := lockKey(campaignID)
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, sentinel.ErrLocked
	}
	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	}, nil
}

type MemoryLock struct {
	mu   sync.Mutex
	held map[id.CampaignID]struct{}
}

func NewMemoryLock() *MemoryLock {
	return &MemoryLock{held: make(map[id.CampaignID]struct{})}
}

func (l *MemoryLock) Acquire(_ context.Context, campaignID id.CampaignID) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[campaignID]; busy {
		return nil, sentinel.ErrLocked
	}
	l.held[campaignID] = struct{}{}
	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, campaignID)
			l.mu.Unlock()
		})
		return nil
	}, nil
}
