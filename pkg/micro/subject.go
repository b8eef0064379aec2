package micro

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Subjects of a scene follow scene.<scene_id>.<endpoint>, where the endpoint can contain dots to
// leverage NATS routing:
//
//   - scene.<id>.command.<name>      external commands, msgpack payload
//   - scene.<id>.query               debug search requests, JSON payload and reply
//   - scene.<id>.broadcast           messages for every connected player
//   - scene.<id>.player.<uid>        messages for one player

// Message headers set on outbound messages and replies.
const (
	HeaderMessageName = "Scene-Message-Name"
	HeaderMessageID   = "Scene-Message-Id"
	HeaderError       = "Scene-Error"
)

// ErrInvalidSubject is returned for scene ids that can't be used as a subject token.
var ErrInvalidSubject = eris.New("invalid subject token")

// Subjects builds the subjects of one scene.
type Subjects struct {
	prefix string
}

// NewSubjects returns the subject layout of a scene. The scene id must be a single subject token.
func NewSubjects(sceneID string) (Subjects, error) {
	if err := validateToken(sceneID); err != nil {
		return Subjects{}, eris.Wrapf(err, "scene id %q", sceneID)
	}
	return Subjects{prefix: "scene." + sceneID}, nil
}

// Command returns the subject of a command.
func (s Subjects) Command(name string) string {
	return s.prefix + ".command." + name
}

// Commands returns the wildcard subject matching every command.
func (s Subjects) Commands() string {
	return s.prefix + ".command.>"
}

// CommandName extracts the command name from a command subject.
func (s Subjects) CommandName(subject string) (string, bool) {
	return strings.CutPrefix(subject, s.prefix+".command.")
}

// Query returns the debug query subject.
func (s Subjects) Query() string {
	return s.prefix + ".query"
}

// Broadcast returns the subject of messages for every player.
func (s Subjects) Broadcast() string {
	return s.prefix + ".broadcast"
}

// Player returns the subject of messages for one player.
func (s Subjects) Player(uid uint32) string {
	return s.prefix + ".player." + strconv.FormatUint(uint64(uid), 10)
}

func validateToken(token string) error {
	if token == "" || strings.ContainsAny(token, ".*> \t\r\n") {
		return ErrInvalidSubject
	}
	return nil
}
