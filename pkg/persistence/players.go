package persistence

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"sync"

	"github.com/argus-labs/scene-engine/pkg/geom"
	"github.com/coocood/freecache"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// MinCacheBytes is the smallest load cache Players creates. freecache caps entries at 1/1024 of the
// cache size, so this caches records up to 16 KiB. Larger records are always loaded from the store.
const MinCacheBytes = 16 * 1024 * 1024

// loadCacheSeconds is how long a loaded or evicted record is served from the load cache. A player's
// record is owned by one scene at a time, so a record only goes stale once the player has entered
// another scene.
const loadCacheSeconds = 30

// Players is the resident view of the players present in a scene. Reads and updates never block on
// the backing store, so systems can use it inside a tick. Resident records are kept msgpack encoded
// so every Get hands out an independent copy. A player stays resident from Warm until Evict.
//
// Updates mark a record dirty. Flush writes dirty records back to the store and is called by the
// scene between ticks. Loads go through a bounded freecache, so a player who leaves and comes back
// shortly after doesn't hit the store again.
type Players struct {
	store Store
	cache *freecache.Cache // Recently loaded or evicted records
	log   zerolog.Logger

	mu       sync.RWMutex      // Guards resident and dirty
	resident map[uint32][]byte // uid -> encoded record of the players in the scene
	dirty    map[uint32][]byte // uid -> latest encoded record not yet saved
}

// PlayersOption configures Players.
type PlayersOption func(*Players)

// WithPlayersLogger sets the logger.
func WithPlayersLogger(log zerolog.Logger) PlayersOption {
	return func(p *Players) { p.log = log }
}

// NewPlayers creates the resident view over store with a load cache of cacheBytes.
func NewPlayers(store Store, cacheBytes int, opts ...PlayersOption) *Players {
	p := &Players{
		store:    store,
		cache:    freecache.NewCache(max(cacheBytes, MinCacheBytes)),
		log:      zerolog.Nop(),
		resident: make(map[uint32][]byte),
		dirty:    make(map[uint32][]byte),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func cacheKey(uid uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, uid)
}

// Warm makes a player resident, loading their record through the load cache. Warming a resident
// player keeps the record already in memory, including changes not flushed yet.
func (p *Players) Warm(ctx context.Context, uid uint32) error {
	if p.Resident(uid) {
		return nil
	}

	bz, err := p.load(ctx, uid)
	if err != nil {
		return eris.Wrapf(err, "failed to warm player %d", uid)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.resident[uid]; !ok {
		p.resident[uid] = bz
	}
	return nil
}

// load returns the encoded record of a player from the load cache or the store.
func (p *Players) load(ctx context.Context, uid uint32) ([]byte, error) {
	if bz, err := p.cache.Get(cacheKey(uid)); err == nil {
		return bz, nil
	}

	rec, err := p.store.Load(ctx, uid)
	if err != nil {
		return nil, err
	}
	bz, err := encodeRecord(&rec)
	if err != nil {
		return nil, err
	}
	p.remember(uid, bz)
	return bz, nil
}

// remember puts a record in the load cache. Records too large for the cache are skipped.
func (p *Players) remember(uid uint32, bz []byte) {
	if err := p.cache.Set(cacheKey(uid), bz, loadCacheSeconds); err != nil {
		p.log.Debug().Err(err).Uint32("uid", uid).Int("size", len(bz)).Msg("player record not cached")
	}
}

// Resident reports whether a player's record is held in memory.
func (p *Players) Resident(uid uint32) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.resident[uid]
	return ok
}

// Len returns the number of resident players.
func (p *Players) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.resident)
}

// Get returns a copy of a resident player's record, or ErrPlayerNotFound if the player isn't warm.
func (p *Players) Get(uid uint32) (PlayerRecord, error) {
	p.mu.RLock()
	bz, ok := p.resident[uid]
	p.mu.RUnlock()
	if !ok {
		return PlayerRecord{}, eris.Wrapf(ErrPlayerNotFound, "uid %d isn't resident", uid)
	}
	return decodeRecord(bz)
}

// Put makes a record resident and writes it through to the store.
func (p *Players) Put(ctx context.Context, rec PlayerRecord) error {
	bz, err := encodeRecord(&rec)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.resident[rec.UID] = bz
	delete(p.dirty, rec.UID)
	p.mu.Unlock()
	p.cache.Del(cacheKey(rec.UID))

	return p.store.Save(ctx, rec)
}

// Update applies fn to a resident record and marks it dirty. The record is left unchanged if fn
// returns an error.
func (p *Players) Update(uid uint32, fn func(*PlayerRecord) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, ok := p.resident[uid]
	if !ok {
		return eris.Wrapf(ErrPlayerNotFound, "uid %d isn't resident", uid)
	}
	rec, err := decodeRecord(current)
	if err != nil {
		return err
	}
	if err := fn(&rec); err != nil {
		return err
	}

	bz, err := encodeRecord(&rec)
	if err != nil {
		return err
	}
	p.resident[uid] = bz
	p.dirty[uid] = bz
	return nil
}

// UpdateAvatar applies fn to one avatar of a resident player.
func (p *Players) UpdateAvatar(uid uint32, guid uint64, fn func(*AvatarRecord)) error {
	return p.Update(uid, func(rec *PlayerRecord) error {
		avatar, err := rec.Avatar(guid)
		if err != nil {
			return err
		}
		fn(&avatar)
		rec.Avatars[guid] = avatar
		return nil
	})
}

// SetPosition records a resident player's world position.
func (p *Players) SetPosition(uid uint32, position geom.Vector3) error {
	return p.Update(uid, func(rec *PlayerRecord) error {
		rec.WorldPosition.Position = position
		return nil
	})
}

// Flush saves every dirty record. Records that fail to save stay dirty and are retried on the next
// flush.
func (p *Players) Flush(ctx context.Context) error {
	p.mu.Lock()
	pending := p.dirty
	p.dirty = make(map[uint32][]byte, len(pending))
	p.mu.Unlock()

	var errs error
	for uid, bz := range pending {
		rec, err := decodeRecord(bz)
		if err == nil {
			err = p.store.Save(ctx, rec)
		}
		if err != nil {
			errs = errors.Join(errs, eris.Wrapf(err, "failed to flush player %d", uid))
			p.mu.Lock()
			if _, newer := p.dirty[uid]; !newer {
				p.dirty[uid] = bz
			}
			p.mu.Unlock()
			continue
		}
		p.log.Debug().Uint32("uid", uid).Msg("flushed player record")
	}
	return errs
}

// Evict makes a player non-resident. Pending changes are saved first; if that fails the player stays
// resident so the changes aren't lost. The last record is kept in the load cache.
func (p *Players) Evict(ctx context.Context, uid uint32) error {
	p.mu.Lock()
	bz, resident := p.resident[uid]
	pending, dirty := p.dirty[uid]
	p.mu.Unlock()
	if !resident {
		return nil
	}

	if dirty {
		rec, err := decodeRecord(pending)
		if err == nil {
			err = p.store.Save(ctx, rec)
		}
		if err != nil {
			return eris.Wrapf(err, "failed to save player %d", uid)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if latest, ok := p.dirty[uid]; ok && !bytes.Equal(latest, pending) {
		// Updated while saving, keep it for the next flush.
		return eris.Errorf("player %d changed while being evicted", uid)
	}
	delete(p.dirty, uid)
	delete(p.resident, uid)
	p.remember(uid, bz)
	return nil
}
