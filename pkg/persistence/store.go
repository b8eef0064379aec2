package persistence

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// Store is the durable player record store.
type Store interface {
	// Load returns the record of a player, or ErrPlayerNotFound.
	Load(ctx context.Context, uid uint32) (PlayerRecord, error)
	// Save replaces the record of a player.
	Save(ctx context.Context, record PlayerRecord) error
}

var _ Store = &MemoryStore{}
var _ Store = &RedisStore{}

// MemoryStore keeps encoded records in memory. Records are copied in and out so callers never share
// maps with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uint32][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[uint32][]byte)}
}

func (m *MemoryStore) Load(_ context.Context, uid uint32) (PlayerRecord, error) {
	m.mu.RLock()
	bz, ok := m.records[uid]
	m.mu.RUnlock()
	if !ok {
		return PlayerRecord{}, eris.Wrapf(ErrPlayerNotFound, "uid %d", uid)
	}
	return decodeRecord(bz)
}

func (m *MemoryStore) Save(_ context.Context, record PlayerRecord) error {
	bz, err := encodeRecord(&record)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.records[record.UID] = bz
	m.mu.Unlock()
	return nil
}

// RedisStore keeps msgpack encoded records under player:<uid>.
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore creates a store on top of a redis client.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func redisPlayerKey(uid uint32) string {
	return "player:" + strconv.FormatUint(uint64(uid), 10)
}

func (r *RedisStore) Load(ctx context.Context, uid uint32) (PlayerRecord, error) {
	bz, err := r.client.Get(ctx, redisPlayerKey(uid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return PlayerRecord{}, eris.Wrapf(ErrPlayerNotFound, "uid %d", uid)
	}
	if err != nil {
		return PlayerRecord{}, eris.Wrapf(err, "failed to load player %d", uid)
	}
	return decodeRecord(bz)
}

func (r *RedisStore) Save(ctx context.Context, record PlayerRecord) error {
	bz, err := encodeRecord(&record)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, redisPlayerKey(record.UID), bz, 0).Err(); err != nil {
		return eris.Wrapf(err, "failed to save player %d", record.UID)
	}
	return nil
}
