// Package cryptobox encrypts and decrypts secret strings under a 256-bit
// master key using AES-256-CBC with PKCS#7 padding.
//
// Ciphertexts are the standard base64 encoding of IV || ciphertext, where the
// IV is 16 fresh random bytes per call. Encrypting the same plaintext twice
// therefore never yields the same output.
package cryptobox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// KeySize is the required master key length in bytes (AES-256).
const KeySize = 32

// ivSize equals the AES block size.
const ivSize = aes.BlockSize

var (
	// ErrInvalidKey is returned when a key is not exactly KeySize bytes or its
	// text form cannot be decoded.
	ErrInvalidKey = errors.New("invalid key: must be 32 bytes")

	// ErrDecrypt is returned when a ciphertext cannot be decrypted. It signals
	// a wrong key or corrupted ciphertext.
	ErrDecrypt = errors.New("cannot decrypt")
)

// Box holds a validated master key. It is safe for concurrent use.
type Box struct {
	block cipher.Block
	rand  io.Reader
}

// New creates a Box for key. The key must be exactly KeySize bytes; any other
// length fails immediately with ErrInvalidKey.
func New(key []byte) (*Box, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w (got %d bytes)", ErrInvalidKey, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}

	return &Box{block: block, rand: rand.Reader}, nil
}

// GenerateKey returns KeySize bytes from the OS CSPRNG.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return key, nil
}

// Encrypt pads and encrypts plaintext and returns base64(IV || ciphertext).
func (b *Box) Encrypt(plaintext string) (string, error) {
	padded := pad([]byte(plaintext), aes.BlockSize)

	// IV occupies the first block of the output buffer.
	out := make([]byte, ivSize+len(padded))
	iv := out[:ivSize]
	if _, err := io.ReadFull(b.rand, iv); err != nil {
		return "", fmt.Errorf("rand iv: %w", err)
	}

	cipher.NewCBCEncrypter(b.block, iv).CryptBlocks(out[ivSize:], padded)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Base64 input missing its trailing '=' padding is
// accepted. All failures wrap ErrDecrypt.
func (b *Box) Decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(restorePadding(encoded))
	if err != nil {
		return "", fmt.Errorf("%w: base64 decode: %v", ErrDecrypt, err)
	}

	if len(data) < ivSize+aes.BlockSize {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}
	iv, ciphertext := data[:ivSize], data[ivSize:]
	if len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext is not a multiple of the block size", ErrDecrypt)
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(b.block, iv).CryptBlocks(padded, ciphertext)

	plaintext, err := unpad(padded, aes.BlockSize)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if !utf8.Valid(plaintext) {
		return "", fmt.Errorf("%w: plaintext is not valid UTF-8", ErrDecrypt)
	}

	return string(plaintext), nil
}

// EncodeKey returns the base64 text form of key used by key files and flags.
func EncodeKey(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}

// DecodeKey parses the base64 text form of a key. Missing '=' padding is
// tolerated. The decoded key must be exactly KeySize bytes.
func DecodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(restorePadding(strings.TrimSpace(s)))
	if err != nil {
		return nil, fmt.Errorf("%w: base64 decode: %v", ErrInvalidKey, err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w (got %d bytes)", ErrInvalidKey, len(key))
	}
	return key, nil
}

// restorePadding re-adds '=' until the length is a multiple of 4.
func restorePadding(s string) string {
	if n := len(s) % 4; n != 0 {
		s += strings.Repeat("=", 4-n)
	}
	return s
}
