package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

const discoveryCacheTTL = 1 * time.Hour

// Settings holds the OIDC provider configuration loaded from the environment
type Settings struct {
	Issuer      string
	ClientID    string
	Audience    string
	RedirectURI string
}

// discoveryDocument is the subset of the OIDC discovery metadata we use
type discoveryDocument struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	JWKSURI               string `json:"jwks_uri"`
}

// Provider resolves OIDC endpoints from the issuer's discovery document
type Provider struct {
	settings Settings

	mu        sync.RWMutex
	discovery *discoveryDocument
	fetchedAt time.Time
}

// NewProvider creates a new OIDC provider manager
func NewProvider(settings Settings) *Provider {
	return &Provider{settings: settings}
}

// Settings returns the configured OIDC settings
func (p *Provider) Settings() Settings {
	return p.settings
}

// JWKSURL returns the JWKS endpoint for the configured issuer.
// It prefers the discovery document and falls back to the conventional path.
func (p *Provider) JWKSURL(ctx context.Context) string {
	if doc := p.getDiscovery(ctx); doc != nil && doc.JWKSURI != "" {
		return doc.JWKSURI
	}
	return issuerPath(p.settings.Issuer, ".well-known/jwks.json")
}

// GetLoginConfig returns the configuration needed for frontend OIDC login
func (p *Provider) GetLoginConfig(ctx context.Context) (*LoginConfig, error) {
	authEndpoint := ""
	tokenEndpoint := ""
	if doc := p.getDiscovery(ctx); doc != nil {
		authEndpoint = doc.AuthorizationEndpoint
		tokenEndpoint = doc.TokenEndpoint
	}

	// Fallback: construct from issuer if discovery didn't work
	if authEndpoint == "" {
		authEndpoint = issuerPath(p.settings.Issuer, "oauth2/authorize")
	}
	if tokenEndpoint == "" {
		tokenEndpoint = issuerPath(p.settings.Issuer, "oauth2/token")
	}

	return &LoginConfig{
		AuthorizationEndpoint: authEndpoint,
		TokenEndpoint:         tokenEndpoint,
		ClientID:              p.settings.ClientID,
		RedirectURI:           p.settings.RedirectURI,
		Scope:                 "openid email profile",
	}, nil
}

// getDiscovery returns the cached discovery document, fetching it when stale.
// Discovery failures are tolerated; callers fall back to conventional paths.
func (p *Provider) getDiscovery(ctx context.Context) *discoveryDocument {
	p.mu.RLock()
	if p.discovery != nil && time.Since(p.fetchedAt) < discoveryCacheTTL {
		doc := p.discovery
		p.mu.RUnlock()
		return doc
	}
	p.mu.RUnlock()

	doc, err := fetchDiscovery(ctx, p.settings.Issuer)
	if err != nil {
		p.mu.RLock()
		defer p.mu.RUnlock()
		return p.discovery
	}

	p.mu.Lock()
	p.discovery = doc
	p.fetchedAt = time.Now()
	p.mu.Unlock()
	return doc
}

func fetchDiscovery(ctx context.Context, issuer string) (*discoveryDocument, error) {
	discoveryURL := issuerPath(issuer, ".well-known/openid-configuration")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery request: %w", err)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discovery document: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery endpoint returned status %d", resp.StatusCode)
	}

	var doc discoveryDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode discovery document: %w", err)
	}

	return &doc, nil
}

func issuerPath(issuer, path string) string {
	return strings.TrimSuffix(issuer, "/") + "/" + path
}

// LoginConfig contains OIDC login configuration for frontend
type LoginConfig struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	ClientID              string `json:"client_id"`
	RedirectURI           string `json:"redirect_uri"`
	Scope                 string `json:"scope"`
}
