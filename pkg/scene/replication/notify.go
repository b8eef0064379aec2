package replication

import "github.com/argus-labs/scene-engine/pkg/message"

var (
	_ message.Message = AvatarChangeCostumeNotify{}
	_ message.Message = AvatarChangeTraceEffectNotify{}
	_ message.Message = SceneEntityAppearNotify{}
	_ message.Message = SceneEntityDisappearNotify{}
)

// AvatarChangeCostumeNotify announces an avatar's new costume.
type AvatarChangeCostumeNotify struct {
	EntityInfo *SceneEntityInfo `msgpack:"entity_info"`
}

func (AvatarChangeCostumeNotify) MessageName() string { return "AvatarChangeCostumeNotify" }

// AvatarChangeTraceEffectNotify announces an avatar's new trace effect.
type AvatarChangeTraceEffectNotify struct {
	EntityInfo *SceneEntityInfo `msgpack:"entity_info"`
}

func (AvatarChangeTraceEffectNotify) MessageName() string { return "AvatarChangeTraceEffectNotify" }

// SceneEntityAppearNotify announces a batch of actors entering the view of clients.
type SceneEntityAppearNotify struct {
	AppearType VisionType        `msgpack:"appear_type"`
	Param      uint32            `msgpack:"param"`
	EntityList []SceneEntityInfo `msgpack:"entity_list"`
}

func (SceneEntityAppearNotify) MessageName() string { return "SceneEntityAppearNotify" }

// SceneEntityDisappearNotify announces actors leaving the view of clients.
type SceneEntityDisappearNotify struct {
	DisappearType VisionType `msgpack:"disappear_type"`
	Param         uint32     `msgpack:"param"`
	EntityList    []uint32   `msgpack:"entity_list"`
}

func (SceneEntityDisappearNotify) MessageName() string { return "SceneEntityDisappearNotify" }
