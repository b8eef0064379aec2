package system

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/argus-labs/scene-engine/pkg/ecs"
	"github.com/rotisserie/eris"
)

// MonsterTarget selects the monster spawned by SpawnMonsterCommand: a specific config id, or a
// random pick from the debug candidates.
type MonsterTarget struct {
	Random bool   `json:"random"     msgpack:"random"`
	ID     uint32 `json:"monster_id" msgpack:"monster_id"`
}

// MonsterByID targets a specific monster config.
func MonsterByID(id uint32) MonsterTarget {
	return MonsterTarget{ID: id}
}

// RandomMonster targets a random debug candidate.
func RandomMonster() MonsterTarget {
	return MonsterTarget{Random: true}
}

// ParseMonsterTarget reads a monster id. Anything that isn't a monster id selects a random candidate.
func ParseMonsterTarget(text string) MonsterTarget {
	id, err := strconv.ParseUint(strings.TrimSpace(text), 10, 32)
	if err != nil || id == 0 {
		return RandomMonster()
	}
	return MonsterByID(uint32(id))
}

// DestinationKind tells how a TravelDestination is given.
type DestinationKind uint8

const (
	// DestinationCoordinates is an explicit position. A missing height uses the default height.
	DestinationCoordinates DestinationKind = 0
	// DestinationResource names a travel resource, resolved by the resource reader.
	DestinationResource DestinationKind = 1
)

// TravelDestination is where QuickTravelCommand sends the player.
type TravelDestination struct {
	Kind DestinationKind `json:"kind" msgpack:"kind"`
	Key  string          `json:"key"  msgpack:"key"`
	X    float32         `json:"x"    msgpack:"x"`
	Y    *float32        `json:"y"    msgpack:"y"`
	Z    float32         `json:"z"    msgpack:"z"`
}

// Coordinates returns a destination at x, z with an optional height.
func Coordinates(x float32, y *float32, z float32) TravelDestination {
	return TravelDestination{Kind: DestinationCoordinates, X: x, Y: y, Z: z}
}

// Resource returns a destination read from the travel resource named key.
func Resource(key string) TravelDestination {
	return TravelDestination{Kind: DestinationResource, Key: key}
}

// isResourceKey reports whether s can name a travel resource. Keys are letters only, so they can't
// escape the resource directory.
func isResourceKey(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// ParseTravelDestination reads the arguments of a travel command. A single word is a resource key,
// otherwise the arguments are "x z" or "x y z" where y can be "~" or "none" for the default height.
func ParseTravelDestination(args []string) (TravelDestination, error) {
	if len(args) == 1 && isResourceKey(args[0]) {
		return Resource(args[0]), nil
	}

	var coords []string
	switch len(args) {
	case 2:
		coords = []string{args[0], "~", args[1]}
	case 3:
		coords = args
	default:
		return TravelDestination{}, eris.Errorf("expected a resource key or 2-3 coordinates, got %d arguments", len(args))
	}

	x, err := parseFloat(coords[0])
	if err != nil {
		return TravelDestination{}, err
	}
	z, err := parseFloat(coords[2])
	if err != nil {
		return TravelDestination{}, err
	}

	var y *float32
	switch strings.ToLower(coords[1]) {
	case "~", "none":
	default:
		v, err := parseFloat(coords[1])
		if err != nil {
			return TravelDestination{}, err
		}
		y = &v
	}
	return Coordinates(x, y, z), nil
}

// ParseDebugCommand parses a debug command line issued by a player:
//
//	spawn [monster_id] <x> <z>
//	tp <key>
//	tp <x> [y|~] <z>
func ParseDebugCommand(executorUID uint32, line string) (ecs.Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, eris.New("empty command")
	}

	name, args := strings.ToLower(fields[0]), fields[1:]
	switch name {
	case "spawn", "monster":
		target := RandomMonster()
		switch len(args) {
		case 2:
		case 3:
			target = ParseMonsterTarget(args[0])
			args = args[1:]
		default:
			return nil, eris.Errorf("usage: %s [monster_id] <x> <z>", name)
		}
		x, err := parseFloat(args[0])
		if err != nil {
			return nil, err
		}
		z, err := parseFloat(args[1])
		if err != nil {
			return nil, err
		}
		return SpawnMonsterCommand{ExecutorUID: executorUID, Target: target, X: x, Z: z}, nil

	case "tp", "goto":
		dest, err := ParseTravelDestination(args)
		if err != nil {
			return nil, eris.Wrapf(err, "usage: %s <key> | <x> [y] <z>", name)
		}
		return QuickTravelCommand{ExecutorUID: executorUID, Destination: dest}, nil

	default:
		return nil, eris.Errorf("unknown command %q", name)
	}
}

func parseFloat(s string) (float32, error) {
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid coordinate %q", s)
	}
	return float32(v), nil
}
