package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"medicart/models"
	"medicart/rdx"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("checkout session not found")

// Store persists checkout sessions between navigation steps. TryLock takes
// a per-checkout lock so two concurrent pay submissions cannot both reach
// the order/payment collaborators.
type Store interface {
	Put(ctx context.Context, sess *models.CheckoutSession) error
	Get(ctx context.Context, id string) (*models.CheckoutSession, error)
	Delete(ctx context.Context, id string) error
	TryLock(ctx context.Context, id string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, id string)
}

// RedisStore keeps sessions in redis with a TTL, so an abandoned checkout
// expires on its own.
type RedisStore struct {
	TTL time.Duration
}

func NewRedisStore(ttl time.Duration) *RedisStore {
	return &RedisStore{TTL: ttl}
}

func sessionKey(id string) string { return "checkout:" + id }
func lockKey(id string) string    { return "checkout_lock:" + id }

func (s *RedisStore) Put(ctx context.Context, sess *models.CheckoutSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return rdx.Conn.Set(ctx, sessionKey(sess.ID), data, s.TTL).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.CheckoutSession, error) {
	data, err := rdx.Conn.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var sess models.CheckoutSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return rdx.Conn.Del(ctx, sessionKey(id)).Err()
}

func (s *RedisStore) TryLock(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	return rdx.Conn.SetNX(ctx, lockKey(id), "1", ttl).Result()
}

func (s *RedisStore) Unlock(ctx context.Context, id string) {
	rdx.Conn.Del(ctx, lockKey(id))
}

// MemStore is an in-memory Store for tests and single-node dev runs.
// Sessions are stored as JSON copies so callers never alias store state.
type MemStore struct {
	mu       sync.Mutex
	sessions map[string][]byte
	locks    map[string]time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{
		sessions: make(map[string][]byte),
		locks:    make(map[string]time.Time),
	}
}

func (s *MemStore) Put(_ context.Context, sess *models.CheckoutSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = data
	return nil
}

func (s *MemStore) Get(_ context.Context, id string) (*models.CheckoutSession, error) {
	s.mu.Lock()
	data, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	var sess models.CheckoutSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *MemStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemStore) TryLock(_ context.Context, id string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if exp, held := s.locks[id]; held && time.Now().Before(exp) {
		return false, nil
	}
	s.locks[id] = time.Now().Add(ttl)
	return true, nil
}

func (s *MemStore) Unlock(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, id)
}
