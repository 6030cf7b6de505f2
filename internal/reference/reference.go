// Package reference mints the short public codes printed on bookings.
package reference

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	Length             = 8
	DefaultMaxAttempts = 10
)

// ErrExhausted means every attempt collided with an existing reference. It
// points at a broken entropy source or uniqueness check, not bad luck.
var ErrExhausted = errors.New("reference generation exhausted")

// ExistsFunc reports whether a reference is already taken.
type ExistsFunc func(ctx context.Context, ref string) (bool, error)

type Generator struct {
	source      func() string
	maxAttempts int
}

type Option func(*Generator)

// WithSource replaces the random source. Used by tests to force collisions.
func WithSource(source func() string) Option {
	return func(g *Generator) {
		g.source = source
	}
}

func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		source:      uuidSource,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// uuidSource takes the first eight hex digits of a random UUID.
func uuidSource() string {
	return strings.ToUpper(uuid.NewString()[:Length])
}

// Generate returns a reference that exists reports as free.
func (g *Generator) Generate(ctx context.Context, exists ExistsFunc) (string, error) {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		ref := g.source()
		if !Valid(ref) {
			return "", fmt.Errorf("reference source produced %q", ref)
		}
		taken, err := exists(ctx, ref)
		if err != nil {
			return "", fmt.Errorf("check reference %s: %w", ref, err)
		}
		if !taken {
			return ref, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrExhausted, g.maxAttempts)
}

// Valid reports whether ref is an 8-character uppercase alphanumeric code.
func Valid(ref string) bool {
	if len(ref) != Length {
		return false
	}
	for _, c := range ref {
		if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
