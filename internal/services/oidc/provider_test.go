package oidc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetLoginConfigFromDiscovery(t *testing.T) {
	t.Parallel()

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/openid-configuration" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"authorization_endpoint": server.URL + "/authorize",
			"token_endpoint":         server.URL + "/token",
			"jwks_uri":               server.URL + "/keys",
		})
	}))
	defer server.Close()

	provider := NewProvider(Settings{
		Issuer:      server.URL,
		ClientID:    "test-client-id",
		RedirectURI: "http://localhost:3000/callback",
	})

	cfg, err := provider.GetLoginConfig(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.AuthorizationEndpoint != server.URL+"/authorize" {
		t.Errorf("Expected authorization endpoint from discovery, got '%s'", cfg.AuthorizationEndpoint)
	}
	if cfg.TokenEndpoint != server.URL+"/token" {
		t.Errorf("Expected token endpoint from discovery, got '%s'", cfg.TokenEndpoint)
	}
	if cfg.ClientID != "test-client-id" {
		t.Errorf("Expected ClientID 'test-client-id', got '%s'", cfg.ClientID)
	}
	if cfg.Scope != "openid email profile" {
		t.Errorf("Expected scope 'openid email profile', got '%s'", cfg.Scope)
	}

	if got := provider.JWKSURL(context.Background()); got != server.URL+"/keys" {
		t.Errorf("Expected JWKS URL from discovery, got '%s'", got)
	}
}

func TestGetLoginConfigDiscoveryUnavailable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not here", http.StatusInternalServerError)
	}))
	defer server.Close()

	provider := NewProvider(Settings{
		Issuer:      server.URL + "/",
		ClientID:    "test-client-id",
		RedirectURI: "http://localhost:3000/callback",
	})

	cfg, err := provider.GetLoginConfig(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Falls back to conventional paths, without doubling the slash
	if cfg.AuthorizationEndpoint != server.URL+"/oauth2/authorize" {
		t.Errorf("Expected fallback authorization endpoint, got '%s'", cfg.AuthorizationEndpoint)
	}
	if cfg.TokenEndpoint != server.URL+"/oauth2/token" {
		t.Errorf("Expected fallback token endpoint, got '%s'", cfg.TokenEndpoint)
	}

	if got := provider.JWKSURL(context.Background()); got != server.URL+"/.well-known/jwks.json" {
		t.Errorf("Expected fallback JWKS URL, got '%s'", got)
	}
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	client := NewClient(Settings{
		Issuer:      "https://auth.example.com",
		ClientID:    "test-client-id",
		RedirectURI: "http://localhost:3000/callback",
	})

	if client == nil {
		t.Fatal("Client is nil")
	}
	if client.config == nil {
		t.Fatal("OAuth2 config is nil")
	}
	if client.config.ClientID != "test-client-id" {
		t.Errorf("Expected ClientID 'test-client-id', got '%s'", client.config.ClientID)
	}
	if client.config.Endpoint.AuthURL != "https://auth.example.com/oauth2/authorize" {
		t.Errorf("Unexpected AuthURL '%s'", client.config.Endpoint.AuthURL)
	}
}

func TestClient_AuthCodeURL(t *testing.T) {
	t.Parallel()

	client := NewClient(Settings{
		Issuer:      "https://auth.example.com",
		ClientID:    "test-client-id",
		RedirectURI: "http://localhost:3000/callback",
	})

	url := client.AuthCodeURL("test-state-123")

	if url == "" {
		t.Error("AuthCodeURL returned empty string")
	}

	if len(url) < 50 { // Basic sanity check
		t.Errorf("AuthCodeURL seems too short: %s", url)
	}
}
