package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	dErrors "certdesk/pkg/domain-errors"
)

func TestSafeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"spaces become underscores", "Jane Q Doe", "Jane_Q_Doe"},
		{"single word unchanged", "Ravi", "Ravi"},
		{"empty name", "", ""},
		{"path separators neutralized", "../etc/passwd", ".._etc_passwd"},
		{"backslash neutralized", `a\b`, "a_b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Record{Name: tt.in}.SafeName())
		})
	}
}

func TestSafeNameProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.String().Draw(t, "name")
		safe := Record{Name: name}.SafeName()

		if strings.ContainsAny(safe, ` /\`) {
			t.Fatalf("sanitized name %q still contains a space or separator", safe)
		}
		if len(safe) != len(name) {
			t.Fatalf("sanitized name %q changed length of %q", safe, name)
		}
	})
}

func TestParseProfileName(t *testing.T) {
	t.Run("empty defaults to conference", func(t *testing.T) {
		p, err := ParseProfileName("")
		require.NoError(t, err)
		assert.Equal(t, ProfileConference, p)
	})

	t.Run("case and whitespace insensitive", func(t *testing.T) {
		p, err := ParseProfileName("  Workshop ")
		require.NoError(t, err)
		assert.Equal(t, ProfileWorkshop, p)
	})

	t.Run("unknown profile is a bad request", func(t *testing.T) {
		_, err := ParseProfileName("webinar")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}
