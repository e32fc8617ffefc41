package pkg

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	RoomCodeLength = 6

	roomCodeAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// GenerateRoomCode - generates a short upper-case base-36 code players can type in.
func GenerateRoomCode() (string, error) {
	var sb strings.Builder
	sb.Grow(RoomCodeLength)

	limit := big.NewInt(int64(len(roomCodeAlphabet)))
	for range RoomCodeLength {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}

		sb.WriteByte(roomCodeAlphabet[n.Int64()])
	}

	return strings.ToUpper(sb.String()), nil
}

// GenerateNewSessionID - generates a new unique player token.
func GenerateNewSessionID() string {
	return uuid.NewString()
}

// NormalizeRoomCode - codes are typed by hand, so surrounding spaces and case are ignored.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
