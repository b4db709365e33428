package app

import (
	"context"
	"fmt"

	"github.com/ochronus/gonekoweb/internal/config"
	"github.com/ochronus/gonekoweb/internal/services/nekoweb"
	"github.com/sirupsen/logrus"
)

// Container centralizes the core dependencies used across the application.
// API is an interface so commands (and tests) can substitute a mock.
type Container struct {
	Config      *config.Config
	Logger      *logrus.Logger
	Client      *nekoweb.Client
	API         nekoweb.API
	ValidateKey bool
}

// Option allows customizing the container during construction.
type Option func(*Container) error

// WithLogger overrides the default logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Container) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.Logger = logger
		return nil
	}
}

// WithAPI overrides the authenticated Nekoweb client.
func WithAPI(api nekoweb.API) Option {
	return func(c *Container) error {
		if api == nil {
			return fmt.Errorf("nekoweb client cannot be nil")
		}
		c.API = api
		return nil
	}
}

// WithKeyValidation enables or disables the API key check (default: disabled).
func WithKeyValidation(validate bool) Option {
	return func(c *Container) error {
		c.ValidateKey = validate
		return nil
	}
}

// NewContainer builds a Container from cfg. An authenticated client is only
// built when cfg has an API key; API stays nil otherwise.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	container := &Container{
		Config: cfg,
		Logger: buildDefaultLogger(cfg.Loglevel),
	}

	// Apply options early so tests can inject mocks before defaults are created.
	for _, opt := range opts {
		if err := opt(container); err != nil {
			return nil, err
		}
	}

	container.Client = nekoweb.NewClient(
		nekoweb.WithBaseURL(cfg.BaseURL),
		nekoweb.WithUserAgent(cfg.UserAgent),
		nekoweb.WithChunkSize(cfg.ChunkSize),
		nekoweb.WithLogger(container.Logger),
	)

	if container.API == nil && cfg.APIKey != "" {
		container.API = container.Client.Authenticate(cfg.APIKey)
	}

	if container.ValidateKey {
		if container.API == nil {
			return nil, cfg.RequireAPIKey()
		}
		if _, err := container.API.GetLimits(ctx); err != nil {
			return nil, fmt.Errorf("failed to verify nekoweb API key: %w", err)
		}
	}

	return container, nil
}

// RequireAPI returns the authenticated client or a configuration error.
func (c *Container) RequireAPI() (nekoweb.API, error) {
	if c.API == nil {
		return nil, c.Config.RequireAPIKey()
	}
	return c.API, nil
}

func buildDefaultLogger(levelStr string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}
