package app

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/ochronus/gonekoweb/internal/config"
	"github.com/ochronus/gonekoweb/internal/services/nekoweb"
)

type mockNekowebClient struct {
	limitsCalled bool
	limitsErr    error
}

func (m *mockNekowebClient) CreateFile(context.Context, string) (*nekoweb.Response, error) {
	return &nekoweb.Response{}, nil
}
func (m *mockNekowebClient) CreateFolder(context.Context, string) (*nekoweb.Response, error) {
	return &nekoweb.Response{}, nil
}
func (m *mockNekowebClient) UploadFile(context.Context, string, []byte) (*nekoweb.Response, error) {
	return &nekoweb.Response{}, nil
}
func (m *mockNekowebClient) UploadStream(context.Context, string, io.Reader) (*nekoweb.Response, error) {
	return &nekoweb.Response{}, nil
}
func (m *mockNekowebClient) ImportStream(context.Context, io.Reader) (*nekoweb.Response, error) {
	return &nekoweb.Response{}, nil
}
func (m *mockNekowebClient) List(context.Context, string) ([]nekoweb.File, error) {
	return []nekoweb.File{}, nil
}
func (m *mockNekowebClient) Rename(context.Context, string, string) (*nekoweb.Response, error) {
	return &nekoweb.Response{}, nil
}
func (m *mockNekowebClient) Edit(context.Context, string, []byte) (*nekoweb.Response, error) {
	return &nekoweb.Response{}, nil
}
func (m *mockNekowebClient) Delete(context.Context, string) (*nekoweb.Response, error) {
	return &nekoweb.Response{}, nil
}
func (m *mockNekowebClient) GetSite(context.Context, string) (*nekoweb.Site, error) {
	return &nekoweb.Site{Domain: "mock.nekoweb.org"}, nil
}
func (m *mockNekowebClient) GetLimits(context.Context) (*nekoweb.Limits, error) {
	m.limitsCalled = true
	if m.limitsErr != nil {
		return nil, m.limitsErr
	}
	return &nekoweb.Limits{}, nil
}

func baseConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.APIKey = "abc"
	cfg.BaseURL = "http://localhost:8787/api"
	return cfg
}

func TestNewContainerDefaults(t *testing.T) {
	cfg := baseConfig()

	container, err := NewContainer(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if container.Logger == nil {
		t.Fatal("expected logger to be initialized")
	}
	if container.Client == nil {
		t.Fatal("expected unauthenticated client to be initialized")
	}
	if container.Client.BaseURL() != "http://localhost:8787/api" {
		t.Errorf("unexpected base URL: %s", container.Client.BaseURL())
	}
	if _, ok := container.API.(*nekoweb.AuthClient); !ok {
		t.Errorf("expected *nekoweb.AuthClient, got %T", container.API)
	}
	if container.ValidateKey {
		t.Error("expected key validation to be off by default")
	}
}

func TestNewContainerWithoutAPIKey(t *testing.T) {
	cfg := baseConfig()
	cfg.APIKey = ""

	container, err := NewContainer(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if container.API != nil {
		t.Errorf("expected no authenticated client, got %T", container.API)
	}
	if _, err := container.RequireAPI(); err == nil {
		t.Error("expected RequireAPI to fail without a key")
	}
}

func TestContainerOverrides(t *testing.T) {
	cfg := baseConfig()
	mockAPI := &mockNekowebClient{}
	customLogger := buildDefaultLogger("debug")

	container, err := NewContainer(
		context.Background(),
		cfg,
		WithLogger(customLogger),
		WithAPI(mockAPI),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if container.Logger != customLogger {
		t.Error("expected custom logger to be used")
	}
	if container.API != mockAPI {
		t.Error("expected custom nekoweb client to be used")
	}
	api, err := container.RequireAPI()
	if err != nil || api != mockAPI {
		t.Errorf("expected RequireAPI to return the mock, got %v, %v", api, err)
	}
}

func TestNewContainerNilConfigError(t *testing.T) {
	if _, err := NewContainer(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestWithLoggerNilError(t *testing.T) {
	if _, err := NewContainer(context.Background(), baseConfig(), WithLogger(nil)); err == nil {
		t.Fatal("expected error when logger is nil")
	}
}

func TestWithAPINilError(t *testing.T) {
	if _, err := NewContainer(context.Background(), baseConfig(), WithAPI(nil)); err == nil {
		t.Fatal("expected error when nekoweb client is nil")
	}
}

func TestKeyValidationCallsLimits(t *testing.T) {
	mockAPI := &mockNekowebClient{}

	_, err := NewContainer(context.Background(), baseConfig(), WithAPI(mockAPI), WithKeyValidation(true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mockAPI.limitsCalled {
		t.Error("expected GetLimits to be called during container construction")
	}
}

func TestKeyValidationFailure(t *testing.T) {
	mockAPI := &mockNekowebClient{limitsErr: errors.New("401 Unauthorized")}

	_, err := NewContainer(context.Background(), baseConfig(), WithAPI(mockAPI), WithKeyValidation(true))
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestKeyValidationWithoutKey(t *testing.T) {
	cfg := baseConfig()
	cfg.APIKey = ""

	if _, err := NewContainer(context.Background(), cfg, WithKeyValidation(true)); err == nil {
		t.Fatal("expected error when validating without a key")
	}
}

func TestBuildDefaultLoggerLevels(t *testing.T) {
	if lvl := buildDefaultLogger("debug").GetLevel().String(); lvl != "debug" {
		t.Errorf("expected debug level, got %s", lvl)
	}
	if lvl := buildDefaultLogger("bogus").GetLevel().String(); lvl != "info" {
		t.Errorf("expected info fallback, got %s", lvl)
	}
}
