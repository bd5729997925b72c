package cryptobox

import "errors"

var (
	errBadPaddingLength = errors.New("invalid padding length")
	errBadPaddingBytes  = errors.New("invalid padding bytes")
)

// pad applies PKCS#7 padding. A full block of padding is added when data is
// already block aligned, so the pad value is always in 1..blockSize.
func pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+n)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

// unpad validates and strips PKCS#7 padding.
func unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errBadPaddingLength
	}

	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, errBadPaddingLength
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errBadPaddingBytes
		}
	}

	return data[:len(data)-n], nil
}
