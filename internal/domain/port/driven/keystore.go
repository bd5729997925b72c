package driven

import "context"

// KeyStore supplies the 256-bit master key. Implementations may create and
// persist a key on first use; later calls return the same key.
type KeyStore interface {
	Key(ctx context.Context) ([]byte, error)
}

// KeyStoreFunc adapts a function to the KeyStore interface. It is used for
// keys supplied directly by the caller.
type KeyStoreFunc func(ctx context.Context) ([]byte, error)

// Key calls f(ctx).
func (f KeyStoreFunc) Key(ctx context.Context) ([]byte, error) {
	return f(ctx)
}
