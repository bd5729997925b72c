// Package passgen generates random passwords that contain at least one
// lowercase letter, uppercase letter, digit and punctuation character.
package passgen

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

// Character classes. Every generated password contains at least one
// character from each.
const (
	Lowercase   = "abcdefghijklmnopqrstuvwxyz"
	Uppercase   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	Digits      = "0123456789"
	Punctuation = "!#&*+-/:;<=>@[]^_`{|}~"
)

const (
	// DefaultLength is the password length used when the caller has no preference.
	DefaultLength = 12

	// DefaultMinLength is the shortest password Default() will produce.
	DefaultMinLength = 5
)

var (
	classes = []string{Lowercase, Uppercase, Digits, Punctuation}
	all     = Lowercase + Uppercase + Digits + Punctuation
)

// Generator produces passwords of at least minLength characters.
type Generator struct {
	minLength int
	rand      io.Reader
}

// New returns a Generator with the given minimum length. Values below the
// number of character classes are raised to it.
func New(minLength int) *Generator {
	if minLength < len(classes) {
		minLength = len(classes)
	}
	return &Generator{minLength: minLength, rand: rand.Reader}
}

// Default returns a Generator with DefaultMinLength.
func Default() *Generator {
	return New(DefaultMinLength)
}

// MinLength reports the generator's minimum password length.
func (g *Generator) MinLength() int {
	return g.minLength
}

// Generate returns a password of max(length, MinLength()) characters. One
// character from each class is drawn first and the remainder uniformly from
// all classes combined; the result is then shuffled so the guaranteed
// characters land at random positions.
func (g *Generator) Generate(length int) (string, error) {
	n := max(length, g.minLength)

	out := make([]byte, 0, n)
	for _, class := range classes {
		c, err := g.pick(class)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for len(out) < n {
		c, err := g.pick(all)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	// Fisher-Yates.
	for i := len(out) - 1; i > 0; i-- {
		j, err := g.intn(i + 1)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}

	return string(out), nil
}

func (g *Generator) pick(set string) (byte, error) {
	i, err := g.intn(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func (g *Generator) intn(n int) (int, error) {
	v, err := rand.Int(g.rand, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("random index: %w", err)
	}
	return int(v.Int64()), nil
}
