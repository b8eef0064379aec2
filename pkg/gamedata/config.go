package gamedata

// MonsterConfig is a row of the monster excel table. Only the fields used by the scene are kept.
type MonsterConfig struct {
	ID              uint32          `json:"id"`
	MonsterName     string          `json:"monsterName"`
	Type            string          `json:"type"`
	HPBase          float32         `json:"hpBase"`
	AttackBase      float32         `json:"attackBase"`
	DefenseBase     float32         `json:"defenseBase"`
	Critical        float32         `json:"critical"`
	AntiCritical    float32         `json:"antiCritical"`
	CriticalHurt    float32         `json:"criticalHurt"`
	FireSubHurt     float32         `json:"fireSubHurt"`
	GrassSubHurt    float32         `json:"grassSubHurt"`
	WaterSubHurt    float32         `json:"waterSubHurt"`
	ElecSubHurt     float32         `json:"elecSubHurt"`
	WindSubHurt     float32         `json:"windSubHurt"`
	IceSubHurt      float32         `json:"iceSubHurt"`
	RockSubHurt     float32         `json:"rockSubHurt"`
	FireAddHurt     float32         `json:"fireAddHurt"`
	GrassAddHurt    float32         `json:"grassAddHurt"`
	WaterAddHurt    float32         `json:"waterAddHurt"`
	ElecAddHurt     float32         `json:"elecAddHurt"`
	WindAddHurt     float32         `json:"windAddHurt"`
	IceAddHurt      float32         `json:"iceAddHurt"`
	RockAddHurt     float32         `json:"rockAddHurt"`
	PropGrowCurves  []PropGrowCurve `json:"propGrowCurves"`
	ElementMastery  float32         `json:"elementMastery"`
	PhysicalSubHurt float32         `json:"physicalSubHurt"`
	PhysicalAddHurt float32         `json:"physicalAddHurt"`
	CampID          uint32          `json:"campId"`
	Equips          []uint32        `json:"equips"`
}

// AvatarConfig is a row of the avatar excel table.
type AvatarConfig struct {
	ID             uint32          `json:"id"`
	HPBase         float32         `json:"hpBase"`
	AttackBase     float32         `json:"attackBase"`
	DefenseBase    float32         `json:"defenseBase"`
	Critical       float32         `json:"critical"`
	CriticalHurt   float32         `json:"criticalHurt"`
	PropGrowCurves []PropGrowCurve `json:"propGrowCurves"`
	SkillDepotID   uint32          `json:"skillDepotId"`
	InitialWeapon  uint32          `json:"initialWeapon"`
}

// WeaponConfig is a row of the weapon excel table.
type WeaponConfig struct {
	ID       uint32 `json:"id"`
	GadgetID uint32 `json:"gadgetId"`
}
