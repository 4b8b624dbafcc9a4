package slug

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Amara & Co.  Studio", "amara-and-co-studio"},
		{"Amara", "amara"},
		{"  Lagos   Fashion\tWeek  ", "lagos-fashion-week"},
		{"Rock&Roll", "rock-and-roll"},
		{"Zoë Kéita", "zoe-keita"},
		{"Côte d'Ivoire — 2025!", "cote-divoire-2025"},
		{"already-a-slug", "already-a-slug"},
		{"a -- b", "a-b"},
		{"& Sons", "and-sons"},
		{"!!!", ""},
		{"Øystein Studio", "oystein-studio"},
		{"Straße", "strasse"},
		{"Łódź Atelier", "lodz-atelier"},
		{"Ɗangote Ɓespoke", "dangote-bespoke"},
		{"Sɛbɛ Kɔkɔ", "sebe-koko"},
		{"ሰላም", "ሰላም"},
		{"Tigist ሰላም 2025", "tigist-ሰላም-2025"},
		{"دار الأزياء", "دار-الازياء"},
		{"ÆON", "aeon"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

// takenSet is an existence check backed by a fixed set, recording each call.
type takenSet struct {
	taken map[string]bool
	calls []string
}

func (s *takenSet) exists(_ context.Context, slug string) (bool, error) {
	s.calls = append(s.calls, slug)
	return s.taken[slug], nil
}

func TestGenerateResolvesCollisions(t *testing.T) {
	set := &takenSet{taken: map[string]bool{"amara": true, "amara-1": true}}
	g := New(set.exists)

	got, err := g.Generate(context.Background(), "Amara")
	require.NoError(t, err)
	assert.Equal(t, "amara-2", got)
	assert.Equal(t, []string{"amara", "amara-1", "amara-2"}, set.calls)
}

func TestGenerateFreeBase(t *testing.T) {
	set := &takenSet{}
	got, err := New(set.exists).Generate(context.Background(), "Kofi Mensah")
	require.NoError(t, err)
	assert.Equal(t, "kofi-mensah", got)
	assert.Len(t, set.calls, 1)
}

func TestGeneratePropagatesStoreErrors(t *testing.T) {
	storeErr := errors.New("connection reset")
	calls := 0
	g := New(func(_ context.Context, slug string) (bool, error) {
		calls++
		if slug == "amara" {
			return true, nil
		}
		return false, storeErr
	})

	got, err := g.Generate(context.Background(), "Amara")
	assert.Same(t, storeErr, err)
	assert.Empty(t, got)
	assert.Equal(t, 2, calls)
}

func TestGenerateExhausted(t *testing.T) {
	g := New(func(context.Context, string) (bool, error) { return true, nil }, WithMaxAttempts(5))

	got, err := g.Generate(context.Background(), "Amara")
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Empty(t, got)
}

func TestGenerateKeepsNonLatinTitles(t *testing.T) {
	set := &takenSet{taken: map[string]bool{"ሰላም": true}}
	got, err := New(set.exists).Generate(context.Background(), "ሰላም")
	require.NoError(t, err)
	assert.Equal(t, "ሰላም-1", got)
}

func TestGenerateEmptyTitle(t *testing.T) {
	g := New(func(context.Context, string) (bool, error) {
		t.Fatal("existence check must not run for an empty slug")
		return false, nil
	})
	_, err := g.Generate(context.Background(), "???")
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestGenerateStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g := New(func(_ context.Context, slug string) (bool, error) {
		if slug == "amara-1" {
			cancel()
		}
		return true, nil
	})

	got, err := g.Generate(ctx, "Amara")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, got)
}

func TestWithMaxAttemptsIgnoresNonPositive(t *testing.T) {
	g := New(nil, WithMaxAttempts(0))
	assert.Equal(t, DefaultMaxAttempts, g.maxAttempts)
}
