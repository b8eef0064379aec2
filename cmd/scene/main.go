package main

import (
	"github.com/argus-labs/scene-engine/pkg/scene"
	"github.com/argus-labs/scene-engine/pkg/telemetry"
)

func main() {
	// Everything is configured through SCENE_*, NATS_* and OTEL_* environment variables.
	server, err := scene.New(scene.Options{})
	if err != nil {
		log := telemetry.GetGlobalLogger("main")
		log.Fatal().Err(err).Msg("failed to create scene server")
	}

	server.Start()
}
