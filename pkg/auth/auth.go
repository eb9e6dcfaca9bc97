// Package auth provides authentication support for the monitor API.
package auth

import (
	"context"
	"errors"
	"fmt"
)

// Authenticator validates authentication credentials.
type Authenticator interface {
	// Authenticate validates credentials found in the context and returns user info.
	Authenticate(ctx context.Context) (*UserInfo, error)
}

// UserInfo holds authenticated user information.
type UserInfo struct {
	UserID   string
	Email    string
	Claims   map[string]any
	Roles    []string
	AuthType string // "jwt", "apikey", "noop"
}

// HasRole checks if the user has a specific role.
func (u *UserInfo) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// NoopAuthenticator always succeeds authentication.
type NoopAuthenticator struct {
	DefaultUserID string
	DefaultRoles  []string
}

// Authenticate always returns a default user.
func (n *NoopAuthenticator) Authenticate(_ context.Context) (*UserInfo, error) {
	userID := n.DefaultUserID
	if userID == "" {
		userID = "anonymous"
	}
	return &UserInfo{
		UserID:   userID,
		Email:    userID + "@localhost",
		Claims:   make(map[string]any),
		Roles:    n.DefaultRoles,
		AuthType: "noop",
	}, nil
}

// ChainAuthenticator tries a list of authenticators in order and returns the
// first successful result. Authentication fails only when every authenticator
// in the chain rejects the credentials.
type ChainAuthenticator struct {
	authenticators []Authenticator
}

// NewChainAuthenticator creates a chain over the given authenticators.
func NewChainAuthenticator(authenticators ...Authenticator) *ChainAuthenticator {
	return &ChainAuthenticator{authenticators: authenticators}
}

// Authenticate tries each authenticator in order.
func (c *ChainAuthenticator) Authenticate(ctx context.Context) (*UserInfo, error) {
	if len(c.authenticators) == 0 {
		return nil, errors.New("no authenticators configured")
	}

	var errs []error
	for _, a := range c.authenticators {
		user, err := a.Authenticate(ctx)
		if err == nil {
			return user, nil
		}
		errs = append(errs, err)
	}

	return nil, fmt.Errorf("authentication failed: %w", errors.Join(errs...))
}

// Verify interface compliance.
var (
	_ Authenticator = (*NoopAuthenticator)(nil)
	_ Authenticator = (*ChainAuthenticator)(nil)
)
