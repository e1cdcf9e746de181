// Package gamecode generates and normalizes the join codes players type in.
// A code is two distinct four-letter words, stored as eight uppercase
// letters and rendered with a space ("GAME NITE") so it reads aloud well.
package gamecode

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// Length of a normalized code.
const Length = 8

// wordPool holds the four-letter words codes are built from. Words are
// common, unambiguous when spoken, and free of lookalike spellings.
var wordPool = []string{
	"BLUE", "GOLD", "PINK", "TEAL", "MINT", "LIME", "RUBY", "JADE",
	"STAR", "MOON", "FIRE", "SNOW", "RAIN", "WIND", "WAVE", "LEAF",
	"BEAR", "WOLF", "HAWK", "LION", "FROG", "DEER", "CRAB", "DUCK",
	"CAKE", "TACO", "CORN", "PLUM", "PEAR", "KIWI", "CHIP", "SODA",
	"DRUM", "HARP", "TUBA", "BELL", "SONG", "JAZZ", "ROCK", "FOLK",
	"GAME", "PLAY", "SPIN", "JUMP", "DASH", "RACE", "GOAL", "WINS",
	"EPIC", "BOLD", "WILD", "COOL", "FAST", "LOUD", "ZANY", "HYPE",
	"NITE", "CLUB", "CREW", "BAND", "TEAM", "HERO", "KING", "ACES",
}

// RandSource abstracts randomness so tests can make generation
// deterministic.
type RandSource interface {
	Intn(n int) int
}

// Generator produces game codes with configurable randomness.
type Generator struct {
	randSource RandSource
}

// NewGenerator creates a Generator. A nil RandSource uses crypto/rand.
func NewGenerator(randSource RandSource) *Generator {
	return &Generator{randSource: randSource}
}

// Generate returns a new code using crypto/rand.
func Generate() string {
	return NewGenerator(nil).Generate()
}

// Generate returns a new code: two distinct words from the pool.
func (g *Generator) Generate() string {
	first := g.intn(len(wordPool))
	second := g.intn(len(wordPool) - 1)
	if second >= first {
		second++
	}
	return wordPool[first] + wordPool[second]
}

func (g *Generator) intn(n int) int {
	if g.randSource != nil {
		return g.randSource.Intn(n)
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("failed to generate random int: " + err.Error())
	}
	return int(v.Int64())
}

// Normalize strips everything but letters and uppercases, so "game nite",
// "GAME-NITE", and "gamenite" all map to "GAMENITE".
func Normalize(code string) string {
	var b strings.Builder
	b.Grow(Length)
	for _, r := range code {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Format renders a normalized code for display with a space between words.
func Format(code string) string {
	if len(code) != Length {
		return code
	}
	return code[:4] + " " + code[4:]
}

// Validate checks that a normalized code is eight uppercase letters.
func Validate(code string) error {
	if len(code) != Length {
		return fmt.Errorf("game code must be exactly %d letters, got %d", Length, len(code))
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return fmt.Errorf("invalid character %c at position %d", code[i], i)
		}
	}
	return nil
}
