package scene

import (
	"context"

	"github.com/argus-labs/scene-engine/internal/schema"
	"github.com/argus-labs/scene-engine/pkg/ecs"
	"github.com/argus-labs/scene-engine/pkg/micro"
	"github.com/argus-labs/scene-engine/pkg/scene/system"
	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/rotisserie/eris"
)

// DebugCommandName is the command subject token of text debug commands.
const DebugCommandName = "debug"

// DebugRequest is the payload of a debug command: a command line typed by a player.
type DebugRequest struct {
	UID  uint32 `msgpack:"uid"`
	Line string `msgpack:"line"`
}

type commandDecoder func(data []byte) (ecs.Command, error)

func decodeCommand[T ecs.Command]() commandDecoder {
	return func(data []byte) (ecs.Command, error) {
		var cmd T
		if err := schema.Deserialize(data, &cmd); err != nil {
			return nil, err
		}
		return cmd, nil
	}
}

// Commands that go straight to the world. Entering and leaving also manage the resident records and
// are handled separately.
var commandDecoders = map[string]commandDecoder{ //nolint:gochecknoglobals // constant table
	system.ChangeAvatarAppearanceCommand{}.Name(): decodeCommand[system.ChangeAvatarAppearanceCommand](),
	system.SpawnMonsterCommand{}.Name():           decodeCommand[system.SpawnMonsterCommand](),
	system.QuickTravelCommand{}.Name():            decodeCommand[system.QuickTravelCommand](),
}

// subscribe starts accepting commands and queries on the scene subjects.
func (s *Server) subscribe(ctx context.Context) error {
	commands, err := s.client.Subscribe(s.subjects.Commands(), func(msg *nats.Msg) {
		name, _ := s.subjects.CommandName(msg.Subject)
		err := s.handleCommand(ctx, name, msg.Data)
		if err != nil {
			s.log.Debug().Err(err).Str("command", name).Msg("rejected command")
		}
		s.respond(msg, nil, err)
	})
	if err != nil {
		return eris.Wrapf(err, "failed to subscribe to %s", s.subjects.Commands())
	}
	s.subs = append(s.subs, commands)

	query, err := s.client.Subscribe(s.subjects.Query(), func(msg *nats.Msg) {
		data, err := s.handleQuery(msg.Data)
		s.respond(msg, data, err)
	})
	if err != nil {
		return eris.Wrapf(err, "failed to subscribe to %s", s.subjects.Query())
	}
	s.subs = append(s.subs, query)

	// Make sure the server has registered the subscriptions before reporting ready.
	if err := s.client.Flush(); err != nil {
		return eris.Wrap(err, "failed to flush subscriptions")
	}
	s.log.Info().Str("commands", s.subjects.Commands()).Str("query", s.subjects.Query()).Msg("accepting requests")
	return nil
}

func (s *Server) handleCommand(ctx context.Context, name string, data []byte) error {
	switch name {
	case system.EnterSceneCommand{}.Name():
		var cmd system.EnterSceneCommand
		if err := schema.Deserialize(data, &cmd); err != nil {
			return err
		}
		return s.EnterPlayer(ctx, cmd.UID, cmd.PeerID)

	case system.LeaveSceneCommand{}.Name():
		var cmd system.LeaveSceneCommand
		if err := schema.Deserialize(data, &cmd); err != nil {
			return err
		}
		return s.LeavePlayer(cmd.UID)

	case DebugCommandName:
		var req DebugRequest
		if err := schema.Deserialize(data, &req); err != nil {
			return err
		}
		cmd, err := system.ParseDebugCommand(req.UID, req.Line)
		if err != nil {
			return err
		}
		return s.Enqueue(cmd)
	}

	decode, ok := commandDecoders[name]
	if !ok {
		return eris.Errorf("unknown command %q", name)
	}
	cmd, err := decode(data)
	if err != nil {
		return eris.Wrapf(err, "failed to decode %s", name)
	}
	return s.Enqueue(cmd)
}

// handleQuery runs a JSON encoded search and returns the JSON encoded results.
func (s *Server) handleQuery(data []byte) ([]byte, error) {
	var param ecs.SearchParam
	if err := json.Unmarshal(data, &param); err != nil {
		return nil, eris.Wrap(err, "failed to parse search")
	}
	results, err := s.Search(param)
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(results)
	if err != nil {
		return nil, eris.Wrap(err, "failed to encode search results")
	}
	return out, nil
}

// respond replies to a request. Published messages without a reply subject are fire and forget.
func (s *Server) respond(msg *nats.Msg, data []byte, err error) {
	if msg.Reply == "" {
		return
	}
	resp := nats.NewMsg(msg.Reply)
	resp.Data = data
	if err != nil {
		resp.Header.Set(micro.HeaderError, err.Error())
	}
	if err := msg.RespondMsg(resp); err != nil {
		s.log.Warn().Err(err).Str("subject", msg.Subject).Msg("failed to respond")
	}
}
