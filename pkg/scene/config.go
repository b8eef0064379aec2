package scene

import (
	"github.com/argus-labs/scene-engine/pkg/gamedata"
	"github.com/argus-labs/scene-engine/pkg/message"
	"github.com/argus-labs/scene-engine/pkg/micro"
	"github.com/argus-labs/scene-engine/pkg/persistence"
	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
)

// StoreType selects where player records are persisted.
type StoreType string

const (
	StoreUndefined StoreType = ""
	StoreMemory    StoreType = "memory"
	StoreRedis     StoreType = "redis"
)

// SinkType selects where outbound messages are published.
type SinkType string

const (
	SinkUndefined SinkType = ""
	// SinkMemory keeps published messages in memory. NATS isn't used at all, so commands can only be
	// submitted through the Go API.
	SinkMemory SinkType = "memory"
	// SinkNATS publishes messages over NATS and accepts commands and queries on the scene subjects.
	SinkNATS SinkType = "nats"
)

// sceneConfig holds the configuration of a scene server read from the environment.
type sceneConfig struct {
	// Unique ID of the scene. Used as a NATS subject token.
	SceneID string `env:"SCENE_ID" envDefault:"scene"`

	// Number of ticks per second.
	TickRate float64 `env:"SCENE_TICK_RATE" envDefault:"20"`

	// Directory of the excel tables.
	DataDir string `env:"SCENE_DATA_DIR" envDefault:"assets/data"`

	// Directory of the travel resources.
	ResourceDir string `env:"SCENE_RESOURCE_DIR" envDefault:"assets/luashell"`

	// Player record store ("memory" or "redis").
	Store string `env:"SCENE_STORE" envDefault:"memory"`

	// Address of the redis server used by the redis store.
	RedisAddr string `env:"SCENE_REDIS_ADDR" envDefault:"localhost:6379"`

	// Size of the resident player cache.
	PlayerCacheBytes int `env:"SCENE_PLAYER_CACHE_BYTES" envDefault:"67108864"`

	// Outbound message sink ("memory" or "nats").
	Sink string `env:"SCENE_SINK" envDefault:"nats"`
}

func loadSceneConfig() (sceneConfig, error) {
	cfg, err := env.ParseAs[sceneConfig]()
	if err != nil {
		return cfg, eris.Wrap(err, "failed to parse scene config")
	}
	return cfg, nil
}

func (cfg *sceneConfig) applyToOptions(opt *Options) {
	opt.SceneID = cfg.SceneID
	opt.TickRate = cfg.TickRate
	opt.DataDir = cfg.DataDir
	opt.ResourceDir = cfg.ResourceDir
	opt.StoreType = StoreType(cfg.Store)
	opt.RedisAddr = cfg.RedisAddr
	opt.PlayerCacheBytes = cfg.PlayerCacheBytes
	opt.SinkType = SinkType(cfg.Sink)
}

type Options struct {
	SceneID          string    // Unique ID of the scene
	TickRate         float64   // Number of ticks per second
	DataDir          string    // Directory of the excel tables, unused when Tables is set
	ResourceDir      string    // Directory of the travel resources
	StoreType        StoreType // Player record store, unused when Store is set
	RedisAddr        string    // Redis address for StoreRedis
	PlayerCacheBytes int       // Size of the resident player cache
	SinkType         SinkType  // Outbound message sink

	Tables *gamedata.Tables  // Preloaded tables
	Store  persistence.Store // Custom player record store
	Sink   message.Sink      // Custom sink, replaces the memory sink of SinkMemory
	Client *micro.Client     // Existing NATS connection for SinkNATS, left open on shutdown
}

func newDefaultOptions() Options {
	// Invalid values force the environment or the caller to provide them.
	return Options{
		SceneID:   "",
		TickRate:  0,
		StoreType: StoreUndefined,
		SinkType:  SinkUndefined,
	}
}

// apply merges the given options into the current options, overriding non-zero values.
func (opt *Options) apply(newOpt Options) {
	if newOpt.SceneID != "" {
		opt.SceneID = newOpt.SceneID
	}
	if newOpt.TickRate != 0.0 {
		opt.TickRate = newOpt.TickRate
	}
	if newOpt.DataDir != "" {
		opt.DataDir = newOpt.DataDir
	}
	if newOpt.ResourceDir != "" {
		opt.ResourceDir = newOpt.ResourceDir
	}
	if newOpt.StoreType != StoreUndefined {
		opt.StoreType = newOpt.StoreType
	}
	if newOpt.RedisAddr != "" {
		opt.RedisAddr = newOpt.RedisAddr
	}
	if newOpt.PlayerCacheBytes != 0 {
		opt.PlayerCacheBytes = newOpt.PlayerCacheBytes
	}
	if newOpt.SinkType != SinkUndefined {
		opt.SinkType = newOpt.SinkType
	}
	if newOpt.Tables != nil {
		opt.Tables = newOpt.Tables
	}
	if newOpt.Store != nil {
		opt.Store = newOpt.Store
	}
	if newOpt.Sink != nil {
		opt.Sink = newOpt.Sink
	}
	if newOpt.Client != nil {
		opt.Client = newOpt.Client
	}
}

// validate checks that all required options are set and valid.
func (opt *Options) validate() error {
	if _, err := micro.NewSubjects(opt.SceneID); err != nil {
		return eris.Wrap(err, "invalid scene ID")
	}
	if opt.TickRate <= 0 {
		return eris.New("tick rate must be positive")
	}
	if opt.Tables == nil && opt.DataDir == "" {
		return eris.New("data directory cannot be empty")
	}
	if opt.ResourceDir == "" {
		return eris.New("resource directory cannot be empty")
	}
	if opt.Store == nil {
		switch opt.StoreType {
		case StoreMemory:
		case StoreRedis:
			if opt.RedisAddr == "" {
				return eris.New("redis address cannot be empty")
			}
		case StoreUndefined:
			return eris.New("store type cannot be empty")
		default:
			return eris.Errorf("invalid store type: %s (must be 'memory' or 'redis')", opt.StoreType)
		}
	}
	if opt.PlayerCacheBytes < 0 {
		return eris.New("player cache size cannot be negative")
	}
	switch opt.SinkType {
	case SinkMemory, SinkNATS:
	case SinkUndefined:
		return eris.New("sink type cannot be empty")
	default:
		return eris.Errorf("invalid sink type: %s (must be 'memory' or 'nats')", opt.SinkType)
	}
	return nil
}
