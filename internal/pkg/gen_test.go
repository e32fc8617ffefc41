package pkg

import (
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRoomCode(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9A-Z]{6}$`)

	seen := make(map[string]struct{})
	for range 100 {
		code, err := GenerateRoomCode()
		require.NoError(t, err)
		require.Regexp(t, pattern, code)

		seen[code] = struct{}{}
	}

	assert.Greater(t, len(seen), 90)
}

func TestGenerateNewSessionID(t *testing.T) {
	first := GenerateNewSessionID()
	second := GenerateNewSessionID()

	_, err := uuid.Parse(first)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestNormalizeRoomCode(t *testing.T) {
	assert.Equal(t, "ABC123", NormalizeRoomCode(" abc123\n"))
	assert.Equal(t, "ABC123", NormalizeRoomCode("ABC123"))
	assert.Equal(t, "", NormalizeRoomCode("   "))
}
