package subdomain

import (
	"context"
	"fmt"

	"github.com/sitecraft-ai/sitecraft-backend/internal/deploy/domain"
)

var (
	ErrLength = domain.ErrSubdomainLength
	ErrFormat = domain.ErrSubdomainFormat
)

// Registry reports whether a subdomain is already bound to a stored project URL.
type Registry interface {
	Taken(ctx context.Context, subdomain string) (bool, error)
}

// Allocator picks a collision-free subdomain. It takes no locks: two
// concurrent allocations of the same base can both see a name as free.
type Allocator struct {
	registry Registry
	suffixes SuffixSource
}

func NewAllocator(registry Registry, suffixes SuffixSource) *Allocator {
	if suffixes == nil {
		suffixes = FixedSuffixes(nil)
	}
	return &Allocator{registry: registry, suffixes: suffixes}
}

// Allocate normalizes name and returns it if unused, otherwise the first
// unused fallback variant. Returns domain.ErrExhaustedFallback when every
// candidate is taken.
func (a *Allocator) Allocate(ctx context.Context, name string) (string, error) {
	base := Normalize(name)

	candidates := []string{base}
	for _, s := range a.suffixes.Suffixes() {
		candidates = append(candidates, WithSuffix(base, s))
	}

	for _, candidate := range candidates {
		taken, err := a.registry.Taken(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check subdomain %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w (base %q, %d candidates)", domain.ErrExhaustedFallback, base, len(candidates))
}
