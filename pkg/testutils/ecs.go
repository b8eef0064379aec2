package testutils

// -------------------------------------------------------------------------------------------------
// Components
// -------------------------------------------------------------------------------------------------

type Health struct {
	Value int `json:"value"`
}

func (Health) Name() string { return "health" }

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (Position) Name() string { return "position" }

type Velocity struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (Velocity) Name() string { return "velocity" }

type PlayerTag struct {
	Nickname string `json:"nickname"`
}

func (PlayerTag) Name() string { return "player_tag" }

// Marker is a zero-sized tag component.
type Marker struct{}

func (Marker) Name() string { return "marker" }

// -------------------------------------------------------------------------------------------------
// Commands
// -------------------------------------------------------------------------------------------------

type AttackPlayerCommand struct{ Value int }

func (AttackPlayerCommand) Name() string { return "attack-player" }

type CreatePlayerCommand struct{ Nickname string }

func (CreatePlayerCommand) Name() string { return "create-player" }

type InvalidEmptyCommand struct{}

func (InvalidEmptyCommand) Name() string { return "" }

// -------------------------------------------------------------------------------------------------
// System events
// -------------------------------------------------------------------------------------------------

type PlayerDeathSystemEvent struct{ Nickname string }

func (PlayerDeathSystemEvent) Name() string { return "player-death-system" }

type ItemDropSystemEvent struct{ Value int }

func (ItemDropSystemEvent) Name() string { return "item-drop-system" }
