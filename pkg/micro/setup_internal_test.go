package micro

import (
	"os"
	"testing"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var TestNATS *server.Server

func TestMain(m *testing.M) {
	// Uses modified values of NATS's own default test server config.
	opts := &server.Options{
		Host:                  "127.0.0.1",
		Port:                  -1, // Random available port
		NoLog:                 true,
		NoSigs:                true,
		MaxControlLine:        4096,
		DisableShortFirstPing: true,
	}
	TestNATS = test.RunServer(opts)

	code := m.Run()

	TestNATS.Shutdown()
	os.Exit(code)
}

func newTestClient(t *testing.T) *Client {
	t.Helper()

	assert.NotNil(t, TestNATS, "test NATS server is not running")
	c, err := NewClient(
		WithNATSConfig(NATSConfig{Name: "test-client", URL: TestNATS.ClientURL()}),
		WithLogger(zerolog.Nop()),
	)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}
