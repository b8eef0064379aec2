// Package micro is the NATS transport of the scene server: a logged client connection and the
// subject layout used for commands, queries, and outbound messages.
package micro

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/nats-io/nats.go"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Client represents a NATS client with enhanced logging and error handling.
type Client struct {
	*nats.Conn
	log        zerolog.Logger
	natsConfig NATSConfig
}

// NATSConfig holds the configuration for the NATS client.
type NATSConfig struct {
	Name            string `env:"NATS_NAME" envDefault:"scene"`
	URL             string `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	CredentialsFile string `env:"NATS_CREDENTIALS_FILE"`
}

// Validate validates the NATS configuration and returns an error if invalid.
func (cfg NATSConfig) Validate() error {
	if cfg.URL == "" {
		return eris.New("NATS URL is required")
	}
	// Without a credentials file the client connects unauthenticated.
	return nil
}

// NewClient creates a new NATS client. Options override the environment configuration.
func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{log: zerolog.Nop()}

	var err error
	c.natsConfig, err = env.ParseAs[NATSConfig]()
	if err != nil {
		return nil, eris.Wrap(err, "failed to parse NATS config")
	}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.natsConfig.Validate(); err != nil {
		return nil, eris.Wrap(err, "invalid NATS config")
	}

	natsOpts := []nats.Option{
		nats.Name(c.natsConfig.Name),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second * 5),
		nats.DisconnectErrHandler(c.handleDisconnect),
		nats.ReconnectHandler(c.handleReconnect),
		nats.ClosedHandler(c.handleClosed),
		nats.ErrorHandler(c.handleError),
	}
	if c.natsConfig.CredentialsFile != "" {
		natsOpts = append(natsOpts, nats.UserCredentials(c.natsConfig.CredentialsFile))
	}

	conn, err := nats.Connect(c.natsConfig.URL, natsOpts...)
	if err != nil {
		return nil, eris.Wrap(err, "failed to connect to NATS server")
	}
	c.Conn = conn

	c.log.Info().
		Str("url", c.ConnectedUrl()).
		Str("name", c.natsConfig.Name).
		Msg("Connected to NATS server")

	return c, nil
}

// Query sends a request and waits for the reply. The timeout should be set in ctx.
func (c *Client) Query(ctx context.Context, subject string, payload []byte) ([]byte, error) {
	msg, err := c.RequestWithContext(ctx, subject, payload)
	if err != nil {
		return nil, eris.Wrapf(err, "request to %s failed", subject)
	}
	if errMsg := msg.Header.Get(HeaderError); errMsg != "" {
		return nil, eris.New(errMsg)
	}
	return msg.Data, nil
}

// Close drains subscriptions and closes the connection.
func (c *Client) Close() {
	if c.Conn == nil {
		return
	}
	if err := c.Drain(); err != nil {
		c.log.Warn().Err(err).Msg("Failed to drain NATS connection")
		c.Conn.Close()
	}
}

func (c *Client) handleDisconnect(nc *nats.Conn, err error) {
	log := c.log.With().
		Str("nats_url", nc.ConnectedUrl()).
		Uint64("reconnect_attempts", nc.Reconnects).
		Logger()

	if err != nil {
		log.Error().Err(err).Msg("Disconnected from NATS with error")
	} else {
		log.Warn().Msg("Disconnected from NATS (no error)")
	}
}

func (c *Client) handleReconnect(nc *nats.Conn) {
	c.log.Info().
		Str("nats_url", nc.ConnectedUrl()).
		Uint64("reconnect_attempts", nc.Reconnects).
		Msg("Reconnected to NATS")
}

func (c *Client) handleClosed(nc *nats.Conn) {
	if err := nc.LastError(); err != nil {
		c.log.Warn().Err(err).Msg("NATS connection closed with error")
	} else {
		c.log.Info().Msg("NATS connection closed")
	}
}

func (c *Client) handleError(_ *nats.Conn, sub *nats.Subscription, err error) {
	event := c.log.Error().Err(err)
	if sub != nil {
		event = event.Str("subject", sub.Subject)
	}
	event.Msg("NATS subscription error occurred")
}

// -------------------------------------------------------------------------------------------------
// Options
// -------------------------------------------------------------------------------------------------

// ClientOption defines a function that can modify a Client.
type ClientOption func(*Client)

// WithLogger returns a ClientOption that sets the logger.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// WithNATSConfig returns a ClientOption that sets the NATS configuration.
func WithNATSConfig(cfg NATSConfig) ClientOption {
	return func(c *Client) {
		c.natsConfig = cfg
	}
}
