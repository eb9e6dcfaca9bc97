package auth

import (
	"context"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// APIKeyConfig holds API key configuration.
type APIKeyConfig struct {
	Keys []APIKey
}

// APIKey represents an API key entry. Either Key (the plaintext value) or
// Hash (a bcrypt hash of the value) must be set. Hashed entries are preferred
// for keys loaded from configuration files.
type APIKey struct {
	Key   string   `yaml:"key"`
	Hash  string   `yaml:"hash"`
	Name  string   `yaml:"name"`
	Roles []string `yaml:"roles"`
}

// APIKeyAuthenticator authenticates using API keys.
type APIKeyAuthenticator struct {
	keys []APIKey
}

// NewAPIKeyAuthenticator creates a new API key authenticator.
func NewAPIKeyAuthenticator(cfg APIKeyConfig) (*APIKeyAuthenticator, error) {
	for i, key := range cfg.Keys {
		if key.Key == "" && key.Hash == "" {
			return nil, fmt.Errorf("api key %d (%q): key or hash is required", i, key.Name)
		}
	}
	keys := make([]APIKey, len(cfg.Keys))
	copy(keys, cfg.Keys)
	return &APIKeyAuthenticator{keys: keys}, nil
}

// Authenticate validates the API key and returns user info.
func (a *APIKeyAuthenticator) Authenticate(ctx context.Context) (*UserInfo, error) {
	token := GetToken(ctx)
	if token == "" {
		return nil, fmt.Errorf("no API key found in context")
	}

	var matched *APIKey
	for i := range a.keys {
		key := &a.keys[i]
		if key.matches(token) {
			matched = key
			break
		}
	}

	if matched == nil {
		return nil, fmt.Errorf("invalid API key")
	}

	return &UserInfo{
		UserID:   "apikey:" + matched.Name,
		Email:    matched.Name + "@apikey.local",
		Claims:   make(map[string]any),
		Roles:    matched.Roles,
		AuthType: "apikey",
	}, nil
}

// matches compares the presented token against the stored key in constant
// time, or against the bcrypt hash when only a hash is stored.
func (k *APIKey) matches(token string) bool {
	if k.Key != "" {
		return subtle.ConstantTimeCompare([]byte(k.Key), []byte(token)) == 1
	}
	return bcrypt.CompareHashAndPassword([]byte(k.Hash), []byte(token)) == nil
}

// Verify interface compliance.
var _ Authenticator = (*APIKeyAuthenticator)(nil)
