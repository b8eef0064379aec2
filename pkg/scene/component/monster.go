package component

import "github.com/argus-labs/scene-engine/pkg/ecs"

type MonsterID uint32

func (MonsterID) Name() string { return "monster_id" }

// MonsterBundle is the set of components every monster carries.
type MonsterBundle struct {
	MonsterID       MonsterID
	EntityID        ProtocolEntityID
	Level           Level
	Transform       Transform
	FightProperties FightProperties
	LifeState       LifeState
}

// Components returns the bundle as a component list for spawning.
func (b MonsterBundle) Components() []ecs.Component {
	return []ecs.Component{
		b.MonsterID,
		b.EntityID,
		b.Level,
		b.Transform,
		b.FightProperties,
		b.LifeState,
	}
}
