// Package scene runs a scene server: the ECS world with the scene systems, the resident player
// records, and the message bus, ticked at a fixed rate. With the NATS sink the server also accepts
// commands and debug queries over NATS.
package scene

import (
	"context"
	"errors"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/argus-labs/scene-engine/pkg/ecs"
	"github.com/argus-labs/scene-engine/pkg/gamedata"
	"github.com/argus-labs/scene-engine/pkg/message"
	"github.com/argus-labs/scene-engine/pkg/micro"
	"github.com/argus-labs/scene-engine/pkg/persistence"
	"github.com/argus-labs/scene-engine/pkg/scene/component"
	"github.com/argus-labs/scene-engine/pkg/scene/system"
	"github.com/argus-labs/scene-engine/pkg/telemetry"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Server struct {
	world    *ecs.World
	bus      *message.Bus
	players  *persistence.Players
	counters *component.EntityCounters
	subjects micro.Subjects

	client     *micro.Client // Nil unless the NATS sink is used
	ownsClient bool
	subs       []*nats.Subscription
	redis      *redis.Client // Nil unless the server created the redis store

	mu       sync.Mutex // Serializes ticks and searches
	leaveMu  sync.Mutex
	leaving  []uint32            // Players to evict after their leave is processed
	entering map[uint32]struct{} // Players that entered since the last eviction

	options Options
	tel     telemetry.Telemetry
	log     zerolog.Logger
}

// New creates a scene server. Options override the SCENE_* environment configuration. The world is
// initialized and its genesis tick has run when New returns.
func New(opts Options) (*Server, error) {
	cfg, err := loadSceneConfig()
	if err != nil {
		return nil, err
	}
	options := newDefaultOptions()
	cfg.applyToOptions(&options)
	options.apply(opts)
	if err := options.validate(); err != nil {
		return nil, eris.Wrap(err, "invalid scene options")
	}

	tel, err := telemetry.New(telemetry.Options{ServiceName: "scene"})
	if err != nil {
		return nil, eris.Wrap(err, "failed to initialize telemetry")
	}

	s := &Server{
		counters: &component.EntityCounters{},
		entering: make(map[uint32]struct{}),
		options:  options,
		tel:      tel,
		log:      tel.GetLogger("server").With().Str("scene", options.SceneID).Logger(),
	}
	// Validated above.
	s.subjects, _ = micro.NewSubjects(options.SceneID)

	if err := s.setup(); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

func (s *Server) setup() error {
	tables := s.options.Tables
	if tables == nil {
		var err error
		tables, err = gamedata.LoadDir(s.options.DataDir)
		if err != nil {
			return eris.Wrap(err, "failed to load tables")
		}
	}

	store, err := s.newStore()
	if err != nil {
		return err
	}
	s.players = persistence.NewPlayers(store, s.options.PlayerCacheBytes,
		persistence.WithPlayersLogger(s.tel.GetLogger("players")))

	sink, err := s.newSink()
	if err != nil {
		return err
	}
	s.bus = message.NewBus(sink, message.WithBusLogger(s.tel.GetLogger("bus")))

	s.world = ecs.NewWorld(ecs.WithLogger(s.tel.GetLogger("ecs")))
	err = system.Register(s.world, system.Deps{
		Tables:    tables,
		Players:   s.players,
		Output:    s.bus,
		Counters:  s.counters,
		Resources: system.DirResources{Dir: s.options.ResourceDir},
	})
	if err != nil {
		return eris.Wrap(err, "failed to register scene systems")
	}
	s.world.Init()
	if err := s.world.Tick(); err != nil {
		return eris.Wrap(err, "genesis tick failed")
	}
	return nil
}

func (s *Server) newStore() (persistence.Store, error) {
	if s.options.Store != nil {
		return s.options.Store, nil
	}
	if s.options.StoreType == StoreMemory {
		return persistence.NewMemoryStore(), nil
	}

	s.redis = redis.NewClient(&redis.Options{Addr: s.options.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return nil, eris.Wrapf(err, "failed to connect to redis at %s", s.options.RedisAddr)
	}
	return persistence.NewRedisStore(s.redis), nil
}

func (s *Server) newSink() (message.Sink, error) {
	if s.options.SinkType == SinkMemory {
		if s.options.Sink != nil {
			return s.options.Sink, nil
		}
		return message.NewMemorySink(), nil
	}

	s.client = s.options.Client
	if s.client == nil {
		client, err := micro.NewClient(micro.WithLogger(s.tel.GetLogger("client")))
		if err != nil {
			return nil, eris.Wrap(err, "failed to initialize micro client")
		}
		s.client = client
		s.ownsClient = true
	}
	return message.NewNATSSink(s.client.Conn, s.subjects), nil
}

// Start runs the scene until the process receives SIGINT or SIGTERM.
func (s *Server) Start() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Error().Err(err).Msg("failed running scene")
	}
}

// Run subscribes to the scene subjects and ticks the world until ctx is done. The server is shut
// down when Run returns.
func (s *Server) Run(ctx context.Context) error {
	defer s.shutdown()

	if s.client != nil {
		if err := s.subscribe(ctx); err != nil {
			return err
		}
	}

	s.log.Info().Float64("tick_rate", s.options.TickRate).Msg("starting scene loop")
	ticker := time.NewTicker(time.Duration(float64(time.Second) / s.options.TickRate))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				return eris.Wrap(err, "failed to run tick")
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Tick runs one tick of the world and publishes the messages it produced. Player records changed
// during the tick are flushed to the store, and players that left are evicted. Evictions that fail
// are retried on the next tick. Only system errors fail the tick.
func (s *Server) Tick(ctx context.Context) error {
	ctx, span := s.tel.Tracer.Start(ctx, "scene.tick",
		trace.WithAttributes(attribute.Int64("tick_height", int64(s.world.TickHeight())))) //nolint:gosec // fits
	defer span.End()

	s.leaveMu.Lock()
	leaving := s.leaving
	s.leaving = nil
	s.leaveMu.Unlock()

	s.mu.Lock()
	err := s.world.Tick()
	s.mu.Unlock()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "tick failed")
		return eris.Wrap(err, "one or more systems failed")
	}

	if err := s.bus.Dispatch(ctx); err != nil {
		span.RecordError(err)
		s.log.Warn().Err(err).Msg("failed to publish messages")
	}
	if err := s.players.Flush(ctx); err != nil {
		span.RecordError(err)
		s.log.Warn().Err(err).Msg("failed to flush player records")
	}
	s.evict(ctx, leaving)
	return nil
}

// evict drops the records of players that left, unless they entered again in the meantime.
func (s *Server) evict(ctx context.Context, leaving []uint32) {
	s.leaveMu.Lock()
	defer s.leaveMu.Unlock()

	for _, uid := range leaving {
		if _, ok := s.entering[uid]; ok {
			continue
		}
		if err := s.players.Evict(ctx, uid); err != nil {
			s.log.Warn().Err(err).Uint32("uid", uid).Msg("failed to evict player, retrying next tick")
			s.leaving = append(s.leaving, uid)
		}
	}
	clear(s.entering)
}

// Enqueue queues a command for the next tick.
func (s *Server) Enqueue(cmd ecs.Command) error {
	if err := s.world.Enqueue(cmd); err != nil {
		return eris.Wrapf(err, "failed to enqueue %s", cmd.Name())
	}
	return nil
}

// EnterPlayer loads a player's record and queues their entry into the scene.
func (s *Server) EnterPlayer(ctx context.Context, uid, peerID uint32) error {
	s.leaveMu.Lock()
	err := s.players.Warm(ctx, uid)
	if err == nil {
		s.leaving = slices.DeleteFunc(s.leaving, func(leaving uint32) bool { return leaving == uid })
		s.entering[uid] = struct{}{}
	}
	s.leaveMu.Unlock()
	if err != nil {
		return err
	}

	return s.Enqueue(system.EnterSceneCommand{UID: uid, PeerID: peerID})
}

// LeavePlayer queues a player's departure. Their record is saved and evicted once the departure is
// processed.
func (s *Server) LeavePlayer(uid uint32) error {
	if err := s.Enqueue(system.LeaveSceneCommand{UID: uid}); err != nil {
		return err
	}

	s.leaveMu.Lock()
	s.leaving = append(s.leaving, uid)
	s.leaveMu.Unlock()
	return nil
}

// Search runs a debug search over the world between ticks.
func (s *Server) Search(param ecs.SearchParam) ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world.Search(param)
}

// Players returns the resident player records.
func (s *Server) Players() *persistence.Players {
	return s.players
}

// shutdown stops the intake and saves the pending player records.
func (s *Server) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.log.Info().Msg("shutting down scene")

	for _, sub := range s.subs {
		if err := sub.Unsubscribe(); err != nil {
			s.log.Warn().Err(err).Str("subject", sub.Subject).Msg("failed to unsubscribe")
		}
	}
	s.subs = nil

	if err := s.bus.Dispatch(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to publish remaining messages")
	}
	if err := s.players.Flush(ctx); err != nil {
		s.log.Error().Err(err).Msg("failed to flush player records")
	}

	s.close()
	if err := s.tel.Shutdown(ctx); err != nil {
		s.log.Error().Err(err).Msg("telemetry shutdown error")
	}

	s.log.Info().Msg("scene shutdown complete")
}

func (s *Server) close() {
	if s.client != nil && s.ownsClient {
		s.client.Close()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.log.Warn().Err(err).Msg("failed to close redis client")
		}
	}
}
