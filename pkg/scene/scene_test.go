package scene_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/argus-labs/scene-engine/internal/schema"
	"github.com/argus-labs/scene-engine/pkg/ecs"
	"github.com/argus-labs/scene-engine/pkg/geom"
	"github.com/argus-labs/scene-engine/pkg/message"
	"github.com/argus-labs/scene-engine/pkg/micro"
	"github.com/argus-labs/scene-engine/pkg/persistence"
	"github.com/argus-labs/scene-engine/pkg/scene"
	"github.com/argus-labs/scene-engine/pkg/scene/replication"
	"github.com/argus-labs/scene-engine/pkg/scene/system"
	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryServer(t *testing.T, store persistence.Store) (*scene.Server, *message.MemorySink) {
	t.Helper()

	sink := message.NewMemorySink()
	s, err := scene.New(scene.Options{
		SceneID:     "mondstadt",
		TickRate:    20,
		ResourceDir: t.TempDir(),
		SinkType:    scene.SinkMemory,
		Sink:        sink,
		Tables:      testTables(t),
		Store:       store,
	})
	require.NoError(t, err)
	return s, sink
}

func TestServer_EnterAndLeave(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	store := persistence.NewMemoryStore()
	require.NoError(t, store.Save(ctx, testPlayerRecord()))
	s, sink := newMemoryServer(t, store)

	require.NoError(t, s.EnterPlayer(ctx, testUID, 1))
	require.NoError(t, s.Tick(ctx))

	envs := sink.Envelopes()
	require.Len(t, envs, 1)
	assert.Equal(t, "SceneEntityAppearNotify", envs[0].Name)

	avatars, err := s.Search(ecs.SearchParam{Find: []string{"avatar_id"}, Match: ecs.MatchContains})
	require.NoError(t, err)
	require.Len(t, avatars, 1)

	sink.Reset()
	require.NoError(t, s.Enqueue(system.QuickTravelCommand{
		ExecutorUID: testUID,
		Destination: system.Coordinates(10, nil, 20),
	}))
	require.NoError(t, s.LeavePlayer(testUID))
	require.NoError(t, s.Tick(ctx))

	envs = sink.Envelopes()
	require.Len(t, envs, 1)
	assert.Equal(t, "SceneEntityDisappearNotify", envs[0].Name)

	avatars, err = s.Search(ecs.SearchParam{Find: []string{"avatar_id"}, Match: ecs.MatchContains})
	require.NoError(t, err)
	assert.Empty(t, avatars)

	// The record is saved and evicted.
	_, err = s.Players().Get(testUID)
	require.ErrorIs(t, err, persistence.ErrPlayerNotFound)
	rec, err := store.Load(ctx, testUID)
	require.NoError(t, err)
	assert.Equal(t, geom.Vector3{X: 10, Y: system.DefaultTravelHeight, Z: 20}, rec.WorldPosition.Position)
}

func TestServer_EnterUnknownPlayer(t *testing.T) {
	t.Parallel()
	s, _ := newMemoryServer(t, persistence.NewMemoryStore())

	err := s.EnterPlayer(t.Context(), 404, 1)
	require.ErrorIs(t, err, persistence.ErrPlayerNotFound)
}

func TestServer_LeaveThenEnter(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	store := persistence.NewMemoryStore()
	require.NoError(t, store.Save(ctx, testPlayerRecord()))
	s, _ := newMemoryServer(t, store)

	require.NoError(t, s.EnterPlayer(ctx, testUID, 1))
	require.NoError(t, s.Tick(ctx))

	// Re-entering before the leave is processed keeps the record resident.
	require.NoError(t, s.LeavePlayer(testUID))
	require.NoError(t, s.EnterPlayer(ctx, testUID, 1))
	require.NoError(t, s.Tick(ctx))

	_, err := s.Players().Get(testUID)
	require.NoError(t, err)
	avatars, err := s.Search(ecs.SearchParam{Find: []string{"avatar_id"}, Match: ecs.MatchContains})
	require.NoError(t, err)
	assert.Len(t, avatars, 1)
}

// unreliableStore fails saves while down is set.
type unreliableStore struct {
	persistence.Store
	down atomic.Bool
}

func (u *unreliableStore) Save(ctx context.Context, rec persistence.PlayerRecord) error {
	if u.down.Load() {
		return errors.New("store unavailable")
	}
	return u.Store.Save(ctx, rec)
}

func TestServer_EvictRetriedAfterSaveFailure(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	store := &unreliableStore{Store: persistence.NewMemoryStore()}
	require.NoError(t, store.Save(ctx, testPlayerRecord()))
	s, _ := newMemoryServer(t, store)

	require.NoError(t, s.EnterPlayer(ctx, testUID, 1))
	require.NoError(t, s.Tick(ctx))

	store.down.Store(true)
	require.NoError(t, s.Enqueue(system.QuickTravelCommand{
		ExecutorUID: testUID,
		Destination: system.Coordinates(3, nil, 4),
	}))
	require.NoError(t, s.LeavePlayer(testUID))
	require.NoError(t, s.Tick(ctx))
	assert.True(t, s.Players().Resident(testUID), "unsaved record stays resident")

	store.down.Store(false)
	require.NoError(t, s.Tick(ctx))
	assert.False(t, s.Players().Resident(testUID))
	rec, err := store.Load(ctx, testUID)
	require.NoError(t, err)
	assert.Equal(t, geom.Vector3{X: 3, Y: system.DefaultTravelHeight, Z: 4}, rec.WorldPosition.Position)
}

func TestServer_RedisStore(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := persistence.NewRedisStore(client)
	require.NoError(t, store.Save(ctx, testPlayerRecord()))

	s, err := scene.New(scene.Options{
		SceneID:     "mondstadt",
		TickRate:    20,
		ResourceDir: t.TempDir(),
		StoreType:   scene.StoreRedis,
		RedisAddr:   mr.Addr(),
		SinkType:    scene.SinkMemory,
		Tables:      testTables(t),
	})
	require.NoError(t, err)

	require.NoError(t, s.EnterPlayer(ctx, testUID, 1))
	require.NoError(t, s.Tick(ctx))
	require.NoError(t, s.Enqueue(system.ChangeAvatarAppearanceCommand{
		PlayerUID:  testUID,
		AvatarGUID: testAvatarGUID,
		Kind:       system.AppearanceCostume,
		Value:      200001,
	}))
	require.NoError(t, s.Tick(ctx))

	// Changes are flushed to redis at the end of the tick.
	rec, err := store.Load(ctx, testUID)
	require.NoError(t, err)
	assert.Equal(t, uint32(200001), rec.Avatars[testAvatarGUID].CostumeID)
}

func TestServer_RedisUnavailable(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := scene.New(scene.Options{
		SceneID:     "mondstadt",
		TickRate:    20,
		ResourceDir: t.TempDir(),
		StoreType:   scene.StoreRedis,
		RedisAddr:   addr,
		SinkType:    scene.SinkMemory,
		Tables:      testTables(t),
	})
	require.Error(t, err)
}

func TestServer_NATS(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	srv := runNATS(t)
	client, err := micro.NewClient(
		micro.WithNATSConfig(micro.NATSConfig{Name: "scene-test", URL: srv.ClientURL()}),
		micro.WithLogger(zerolog.Nop()),
	)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	store := persistence.NewMemoryStore()
	require.NoError(t, store.Save(ctx, testPlayerRecord()))
	s, err := scene.New(scene.Options{
		SceneID:     "mondstadt",
		TickRate:    100,
		ResourceDir: t.TempDir(),
		SinkType:    scene.SinkNATS,
		Client:      client,
		Tables:      testTables(t),
		Store:       store,
	})
	require.NoError(t, err)

	subjects, err := micro.NewSubjects("mondstadt")
	require.NoError(t, err)
	broadcasts := make(chan *nats.Msg, 16)
	sub, err := client.ChanSubscribe(subjects.Broadcast(), broadcasts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Unsubscribe() })

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- s.Run(runCtx) }()
	t.Cleanup(func() {
		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	})

	// Wait until the server accepts requests.
	query := func(subject string, payload []byte) ([]byte, error) {
		reqCtx, reqCancel := context.WithTimeout(ctx, time.Second)
		defer reqCancel()
		return client.Query(reqCtx, subject, payload)
	}
	require.Eventually(t, func() bool {
		_, err := query(subjects.Query(), []byte(`{"find":["avatar_id"],"match":"contains"}`))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	enter, err := schema.Serialize(system.EnterSceneCommand{UID: testUID, PeerID: 1})
	require.NoError(t, err)
	_, err = query(subjects.Command("enter-scene"), enter)
	require.NoError(t, err)

	msg := receive(t, broadcasts)
	assert.Equal(t, "SceneEntityAppearNotify", msg.Header.Get(micro.HeaderMessageName))
	var appear replication.SceneEntityAppearNotify
	require.NoError(t, schema.Deserialize(msg.Data, &appear))
	require.Len(t, appear.EntityList, 1)
	require.NotNil(t, appear.EntityList[0].Avatar)
	assert.Equal(t, uint32(testUID), appear.EntityList[0].Avatar.UID)

	data, err := query(subjects.Query(), []byte(`{"find":["avatar_id"],"match":"contains"}`))
	require.NoError(t, err)
	var results []map[string]any
	require.NoError(t, json.Unmarshal(data, &results))
	require.Len(t, results, 1)
	assert.InDelta(t, 10000007, results[0]["avatar_id"], 0)

	debug, err := schema.Serialize(scene.DebugRequest{UID: testUID, Line: "spawn 20010101 3 4"})
	require.NoError(t, err)
	_, err = query(subjects.Command(scene.DebugCommandName), debug)
	require.NoError(t, err)

	msg = receive(t, broadcasts)
	require.NoError(t, schema.Deserialize(msg.Data, &appear))
	require.Len(t, appear.EntityList, 1)
	require.NotNil(t, appear.EntityList[0].Monster)
	assert.Equal(t, uint32(20010101), appear.EntityList[0].Monster.MonsterID)
}

func TestServer_NATSRejectsBadRequests(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	srv := runNATS(t)
	client, err := micro.NewClient(
		micro.WithNATSConfig(micro.NATSConfig{Name: "scene-test", URL: srv.ClientURL()}),
		micro.WithLogger(zerolog.Nop()),
	)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	s, err := scene.New(scene.Options{
		SceneID:     "liyue",
		TickRate:    100,
		ResourceDir: t.TempDir(),
		StoreType:   scene.StoreMemory,
		SinkType:    scene.SinkNATS,
		Client:      client,
		Tables:      testTables(t),
	})
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- s.Run(runCtx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	subjects, err := micro.NewSubjects("liyue")
	require.NoError(t, err)
	query := func(subject string, payload []byte) error {
		reqCtx, reqCancel := context.WithTimeout(ctx, time.Second)
		defer reqCancel()
		_, err := client.Query(reqCtx, subject, payload)
		return err
	}
	require.Eventually(t, func() bool {
		err := query(subjects.Query(), []byte(`{"find":["avatar_id"],"match":"contains"}`))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	badDebug, err := schema.Serialize(scene.DebugRequest{UID: testUID, Line: "fly away"})
	require.NoError(t, err)
	unknownPlayer, err := schema.Serialize(system.EnterSceneCommand{UID: 404, PeerID: 1})
	require.NoError(t, err)

	tests := []struct {
		name    string
		subject string
		payload []byte
	}{
		{name: "unknown command", subject: subjects.Command("dance"), payload: nil},
		{name: "malformed payload", subject: subjects.Command("spawn-monster"), payload: []byte{0xc1}},
		{name: "bad debug command", subject: subjects.Command(scene.DebugCommandName), payload: badDebug},
		{name: "unknown player", subject: subjects.Command("enter-scene"), payload: unknownPlayer},
		{name: "malformed search", subject: subjects.Query(), payload: []byte("{")},
	}
	for _, tt := range tests {
		err := query(tt.subject, tt.payload)
		require.Error(t, err, tt.name)
		assert.False(t, errors.Is(err, context.DeadlineExceeded), "%s: no reply", tt.name)
	}
}

func receive(t *testing.T, ch <-chan *nats.Msg) *nats.Msg {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(5 * time.Second):
		require.FailNow(t, "timed out waiting for a broadcast")
		return nil
	}
}
