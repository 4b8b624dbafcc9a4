package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	r := Default()
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Ghana", "GH", true},
		{"  nigeria ", "NG", true},
		{"South Africa", "ZA", true},
		{"Côte d'Ivoire", "CI", true},
		{"Cote dIvoire", "CI", true},
		{"Ivory Coast", "CI", true},
		{"UK", "GB", true},
		{"USA", "US", true},
		{"DRC", "CD", true},
		{"ng", "NG", true},
		{"KEN", "KE", true},
		{"Narnia", "", false},
		{"", "", false},
		{"!!", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := r.Resolve(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestName(t *testing.T) {
	r := Default()
	assert.Equal(t, "Ghana", r.Name("GH"))
	assert.Equal(t, "Kenya", r.Name("KE"))
	assert.Empty(t, r.Name("not a code"))
}

func TestTally(t *testing.T) {
	counts, unknown := Tally(Default(), [][]string{
		{"Ghana", "Nigeria"},
		{"Ghana", "GH"},
		{"Atlantis", ""},
		{"Kenya"},
		{"atlantis"},
		nil,
	})
	assert.Equal(t, map[string]int{"GH": 2, "NG": 1, "KE": 1}, counts)
	assert.Equal(t, []string{"Atlantis", "atlantis"}, unknown)
}
