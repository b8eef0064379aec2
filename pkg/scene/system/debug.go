package system

import (
	"github.com/argus-labs/scene-engine/pkg/ecs"
	"github.com/argus-labs/scene-engine/pkg/gamedata"
	"github.com/argus-labs/scene-engine/pkg/geom"
	"github.com/argus-labs/scene-engine/pkg/scene/component"
	"github.com/argus-labs/scene-engine/pkg/stats"
	"github.com/rs/zerolog"
)

const (
	// DebugMonsterLevel is the level of monsters spawned by debug commands.
	DebugMonsterLevel = 90
	// SpawnClearance is how far above the executing player monsters are spawned.
	SpawnClearance float32 = 10
	// DefaultTravelHeight is the height used when a travel destination doesn't give one.
	DefaultTravelHeight float32 = 2000
)

// SpawnCandidates are the monsters picked from when a spawn command doesn't name one.
var SpawnCandidates = [...]uint32{20010101, 20010302, 20010502, 20010803, 20011002} //nolint:gochecknoglobals // constant table

type DebugCommandState struct {
	ecs.BaseSystemState
	SpawnCommands  ecs.WithCommand[SpawnMonsterCommand]
	TravelCommands ecs.WithCommand[QuickTravelCommand]
	Jumps          ecs.WithSystemEventEmitter[PlayerJump]
}

// NewDebugCommandSystem executes debug commands. Commands that can't be executed are logged and
// dropped, they never fail the tick.
func NewDebugCommandSystem(deps Deps) ecs.System[DebugCommandState] {
	return func(state *DebugCommandState) error {
		for cmd := range state.SpawnCommands.Iter() {
			spawnMonster(state, deps, cmd)
		}
		for cmd := range state.TravelCommands.Iter() {
			log := state.Logger().With().Uint32("executor_uid", cmd.ExecutorUID).Logger()
			state.Jumps.Emit(PlayerJump{
				UID:         cmd.ExecutorUID,
				Destination: resolveDestination(cmd.Destination, deps.Resources, &log),
			})
		}
		return nil
	}
}

func spawnMonster(state *DebugCommandState, deps Deps, cmd SpawnMonsterCommand) {
	log := state.Logger().With().Uint32("executor_uid", cmd.ExecutorUID).Logger()

	monsterID := cmd.Target.ID
	if cmd.Target.Random {
		monsterID = SpawnCandidates[deps.Rand.IntN(len(SpawnCandidates))]
	}
	log = log.With().Uint32("monster_id", monsterID).Logger()

	player, err := deps.Players.Get(cmd.ExecutorUID)
	if err != nil {
		log.Debug().Err(err).Msg("executing player unavailable, dropping spawn")
		return
	}
	cfg, err := deps.Tables.Monster(monsterID)
	if err != nil {
		log.Debug().Err(err).Msg("monster config not found, dropping spawn")
		return
	}

	props := stats.Derive(DebugMonsterLevel, cfg, deps.Tables.Curves(), func(curve gamedata.PropGrowCurve, err error) {
		log.Debug().Err(err).Stringer("prop", curve.Type).Msg("grow curve skipped")
	})

	entityID, err := deps.Counters.Next(component.EntityTypeMonster)
	if err != nil {
		log.Warn().Err(err).Msg("can't allocate monster entity id, dropping spawn")
		return
	}

	monster := component.MonsterBundle{
		MonsterID: component.MonsterID(monsterID),
		EntityID:  entityID,
		Level:     DebugMonsterLevel,
		Transform: component.Transform{
			Position: geom.Vector3{
				X: cmd.X,
				Y: player.WorldPosition.Position.Y + SpawnClearance,
				Z: cmd.Z,
			},
		},
		FightProperties: component.FightProperties{FightProperties: props},
		LifeState:       component.LifeStateAlive,
	}
	eid, err := state.Commands().Spawn(append(monster.Components(), component.Visible{})...)
	if err != nil {
		log.Warn().Err(err).Msg("can't spawn monster")
		return
	}
	log.Debug().Uint32("entity", uint32(eid)).Uint32("entity_id", uint32(entityID)).Msg("spawned monster")
}

// resolveDestination turns a travel destination into a position. Named resources resolve to the
// origin whether or not they can be read.
func resolveDestination(dest TravelDestination, resources ResourceReader, log *zerolog.Logger) geom.Vector3 {
	if dest.Kind == DestinationResource {
		if _, err := resources.ReadResource(dest.Key); err != nil {
			log.Debug().Err(err).Str("key", dest.Key).Msg("travel resource unavailable, using default destination")
		} else {
			log.Debug().Str("key", dest.Key).Msg("travel resource loaded")
		}
		return geom.Vector3{}
	}

	y := DefaultTravelHeight
	if dest.Y != nil {
		y = *dest.Y
	}
	return geom.Vector3{X: dest.X, Y: y, Z: dest.Z}
}
