package subdomain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitecraft-ai/sitecraft-backend/internal/deploy/domain"
)

type fakeRegistry struct {
	taken  map[string]bool
	probes []string
	err    error
}

func (f *fakeRegistry) Taken(_ context.Context, sub string) (bool, error) {
	f.probes = append(f.probes, sub)
	if f.err != nil {
		return false, f.err
	}
	return f.taken[sub], nil
}

func newRegistry(taken ...string) *fakeRegistry {
	r := &fakeRegistry{taken: map[string]bool{}}
	for _, t := range taken {
		r.taken[t] = true
	}
	return r
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"foo":                   "foo",
		"My Landing Page":       "my-landing-page",
		"  Café -- Menu!! ":     "caf-menu",
		"---":                   "site",
		"":                      "site",
		"A":                     "a-site",
		"ok":                    "ok-site",
		"already-normal-123":    "already-normal-123",
		strings.Repeat("x", 80): strings.Repeat("x", 63),
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "Normalize(%q)", in)
		assert.NoError(t, Validate(Normalize(in)), "normalized %q must validate", in)
	}
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, Validate("ab"), domain.ErrSubdomainLength)
	assert.ErrorIs(t, Validate(strings.Repeat("a", 64)), domain.ErrSubdomainLength)
	assert.ErrorIs(t, Validate("VALID-Name"), domain.ErrSubdomainFormat)
	assert.ErrorIs(t, Validate("-abc"), domain.ErrSubdomainFormat)
	assert.ErrorIs(t, Validate("abc-"), domain.ErrSubdomainFormat)
	assert.ErrorIs(t, Validate("a_bc"), domain.ErrSubdomainFormat)
	assert.NoError(t, Validate("abc"))
	assert.NoError(t, Validate("my-site-2"))
}

func TestWithSuffix_KeepsLabelWithinLimit(t *testing.T) {
	base := strings.Repeat("b", 63)
	got := WithSuffix(base, "alpha")
	assert.Len(t, got, 63)
	assert.True(t, strings.HasSuffix(got, "-alpha"))
	assert.NoError(t, Validate(got))
}

func TestAllocator_ReturnsNormalizedNameWhenFree(t *testing.T) {
	reg := newRegistry("other")
	a := NewAllocator(reg, FixedSuffixes{"alpha", "beta"})

	got, err := a.Allocate(context.Background(), "Foo Bar")
	require.NoError(t, err)
	assert.Equal(t, "foo-bar", got)
	assert.Equal(t, []string{"foo-bar"}, reg.probes)
}

func TestAllocator_WalksFallbacks(t *testing.T) {
	t.Run("returns the first free fallback", func(t *testing.T) {
		reg := newRegistry("foo", "foo-alpha")
		a := NewAllocator(reg, FixedSuffixes{"alpha", "beta"})

		got, err := a.Allocate(context.Background(), "Foo")
		require.NoError(t, err)
		assert.Equal(t, "foo-beta", got)
		assert.Equal(t, []string{"foo", "foo-alpha", "foo-beta"}, reg.probes)
	})

	t.Run("fails once the list is exhausted", func(t *testing.T) {
		reg := newRegistry("foo", "foo-alpha", "foo-beta")
		a := NewAllocator(reg, FixedSuffixes{"alpha", "beta"})

		_, err := a.Allocate(context.Background(), "foo")
		assert.ErrorIs(t, err, domain.ErrExhaustedFallback)
	})

	t.Run("counter suffixes", func(t *testing.T) {
		reg := newRegistry("shop", "shop-2", "shop-3")
		a := NewAllocator(reg, CounterSuffixes(5))

		got, err := a.Allocate(context.Background(), "shop")
		require.NoError(t, err)
		assert.Equal(t, "shop-4", got)
	})

	t.Run("no suffixes means only the bare name is tried", func(t *testing.T) {
		reg := newRegistry("shop")
		a := NewAllocator(reg, nil)

		_, err := a.Allocate(context.Background(), "shop")
		assert.ErrorIs(t, err, domain.ErrExhaustedFallback)
		assert.Len(t, reg.probes, 1)
	})
}

func TestAllocator_RegistryError(t *testing.T) {
	boom := errors.New("db down")
	reg := &fakeRegistry{err: boom}
	a := NewAllocator(reg, FixedSuffixes{"alpha"})

	_, err := a.Allocate(context.Background(), "foo")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrExhaustedFallback)
}

func TestFixedSuffixes_DropsUnusableEntries(t *testing.T) {
	assert.Equal(t, []string{"alpha", "my-app"}, FixedSuffixes{"Alpha", "!!", "My App"}.Suffixes())
	assert.Equal(t, []string{"2", "3"}, CounterSuffixes(2).Suffixes())
}

func TestFromURL(t *testing.T) {
	assert.Equal(t, "foo", FromURL("https://foo.pages.example.com", "pages.example.com"))
	assert.Equal(t, "foo-beta", FromURL("https://foo-beta.pages.example.com/", "pages.example.com"))
	assert.Equal(t, "", FromURL("https://foo.other.com", "pages.example.com"))
	assert.Equal(t, "", FromURL("https://a.b.pages.example.com", "pages.example.com"))
	assert.Equal(t, "", FromURL("", "pages.example.com"))
	assert.Equal(t, "foo", FromURL("https://foo.pages.example.com", ".pages.example.com"))
}
