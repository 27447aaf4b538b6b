// Package profile resolves a subscriber's schedule context: which outage
// group they are in and how to describe where they are.
//
// Resolution consults an ordered list of providers and takes the first one
// that knows the user. The order is the precedence contract: the service
// wires the remote profile store first and the local relational store
// second. Results are never cached; every call re-resolves.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/powerwatch/outage-notifier/internal/schedule"
)

type Kind int

const (
	Manual Kind = iota
	Address
)

func (k Kind) String() string {
	if k == Address {
		return "address"
	}
	return "manual"
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Context is one user's resolved addressing info.
type Context struct {
	Kind      Kind               `json:"kind"`
	GroupCode schedule.GroupCode `json:"group"`
	Label     string             `json:"label,omitempty"`
	City      string             `json:"city,omitempty"`
	Street    string             `json:"street,omitempty"`
	Building  string             `json:"building,omitempty"`
}

// DisplayLabel is the location line shown in messages.
func (c Context) DisplayLabel() string {
	if c.Kind == Address {
		parts := make([]string, 0, 3)
		for _, p := range []string{c.City, c.Street, c.Building} {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, ", ")
		}
	}
	if l := strings.TrimSpace(c.Label); l != "" {
		return l
	}
	return "Group " + c.GroupCode.Dotted()
}

// Provider looks a user up in one source. A nil Context with a nil error
// means the source does not know the user.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, userID int64) (*Context, error)
}

// Resolver walks its providers in order.
type Resolver struct {
	providers []Provider
	logger    *slog.Logger
}

func NewResolver(logger *slog.Logger, providers ...Provider) *Resolver {
	return &Resolver{providers: providers, logger: logger}
}

// Resolve returns the first usable context. Provider failures are logged and
// skipped; they are returned (joined) only when no provider produced a result.
// A nil Context with a nil error means the user is unknown everywhere.
func (r *Resolver) Resolve(ctx context.Context, userID int64) (*Context, error) {
	var errs []error
	for _, p := range r.providers {
		c, err := p.Lookup(ctx, userID)
		if err != nil {
			r.logger.Warn("Profile lookup failed", "provider", p.Name(), "user_id", userID, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		if c == nil {
			continue
		}
		if !c.GroupCode.Valid() {
			r.logger.Debug("Profile has no usable group", "provider", p.Name(), "user_id", userID, "group", c.GroupCode)
			continue
		}
		return c, nil
	}
	return nil, errors.Join(errs...)
}

// LocalSource is implemented by the relational store.
type LocalSource interface {
	LocalContext(ctx context.Context, userID int64) (*Context, error)
}

// Local adapts the relational store to a Provider.
type Local struct {
	src LocalSource
}

func NewLocal(src LocalSource) *Local {
	return &Local{src: src}
}

func (l *Local) Name() string { return "local" }

func (l *Local) Lookup(ctx context.Context, userID int64) (*Context, error) {
	return l.src.LocalContext(ctx, userID)
}
