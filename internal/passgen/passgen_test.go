package passgen

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertCoversClasses(t *testing.T, pw string) {
	t.Helper()
	assert.True(t, strings.ContainsAny(pw, Lowercase), "no lowercase in %q", pw)
	assert.True(t, strings.ContainsAny(pw, Uppercase), "no uppercase in %q", pw)
	assert.True(t, strings.ContainsAny(pw, Digits), "no digit in %q", pw)
	assert.True(t, strings.ContainsAny(pw, Punctuation), "no punctuation in %q", pw)
}

func TestGenerate_LengthAndClasses(t *testing.T) {
	g := Default()

	for _, length := range []int{5, 6, 8, 12, 16, 32, 64, 128} {
		pw, err := g.Generate(length)
		require.NoError(t, err)
		assert.Len(t, pw, length)
		assertCoversClasses(t, pw)
	}
}

func TestGenerate_BelowMinimumUsesMinimum(t *testing.T) {
	g := Default()

	for _, length := range []int{-1, 0, 1, 4} {
		pw, err := g.Generate(length)
		require.NoError(t, err)
		assert.Len(t, pw, DefaultMinLength)
		assertCoversClasses(t, pw)
	}
}

func TestGenerate_OnlyKnownCharacters(t *testing.T) {
	g := Default()

	pw, err := g.Generate(256)
	require.NoError(t, err)
	for _, r := range pw {
		assert.True(t, strings.ContainsRune(all, r), "unexpected character %q", r)
	}
}

func TestNew_ClampsMinimumToClassCount(t *testing.T) {
	g := New(1)
	assert.Equal(t, 4, g.MinLength())

	pw, err := g.Generate(0)
	require.NoError(t, err)
	assert.Len(t, pw, 4)
	assertCoversClasses(t, pw)
}

// The guaranteed characters are shuffled, so the first character is not
// always lowercase.
func TestGenerate_GuaranteedCharactersAreShuffled(t *testing.T) {
	g := Default()

	firstIsLower := 0
	const runs = 200
	for i := 0; i < runs; i++ {
		pw, err := g.Generate(DefaultMinLength)
		require.NoError(t, err)
		if strings.ContainsRune(Lowercase, rune(pw[0])) {
			firstIsLower++
		}
	}

	assert.Less(t, firstIsLower, runs)
}

func TestGenerate_DistinctOutputs(t *testing.T) {
	g := Default()

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		pw, err := g.Generate(DefaultLength)
		require.NoError(t, err)
		seen[pw] = struct{}{}
	}
	assert.Len(t, seen, 100)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestGenerate_RandomSourceFailure(t *testing.T) {
	g := Default()
	g.rand = failingReader{}

	_, err := g.Generate(DefaultLength)
	assert.Error(t, err)
}
