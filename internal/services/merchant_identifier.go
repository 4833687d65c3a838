package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const identifierAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Default identifier shape: MRC followed by 8 characters.
const (
	DefaultIdentifierPrefix = "MRC"
	DefaultIdentifierLength = 8
)

// IdentifierGenerator produces candidate merchant ids. Uniqueness is not its
// job; the store rejects duplicates and the service asks again.
type IdentifierGenerator interface {
	Generate() (string, error)
}

// RandomIdentifierGenerator draws uppercase alphanumerics from crypto/rand.
type RandomIdentifierGenerator struct {
	Prefix string
	Length int
}

// NewRandomIdentifierGenerator falls back to MRC and 8 characters for empty or non-positive input.
func NewRandomIdentifierGenerator(prefix string, length int) *RandomIdentifierGenerator {
	if prefix == "" {
		prefix = DefaultIdentifierPrefix
	}
	if length <= 0 {
		length = DefaultIdentifierLength
	}
	return &RandomIdentifierGenerator{Prefix: prefix, Length: length}
}

// Generate returns Prefix followed by Length random characters.
func (g *RandomIdentifierGenerator) Generate() (string, error) {
	var b strings.Builder
	b.Grow(len(g.Prefix) + g.Length)
	b.WriteString(g.Prefix)

	max := big.NewInt(int64(len(identifierAlphabet)))
	for i := 0; i < g.Length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate merchant id: %w", err)
		}
		b.WriteByte(identifierAlphabet[n.Int64()])
	}
	return b.String(), nil
}
