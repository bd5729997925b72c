package application

import (
	"errors"

	"github.com/ericfisherdev/pwvault/internal/cryptobox"
	"github.com/ericfisherdev/pwvault/internal/domain/port/driven"
)

// UserMessage turns an error from VaultService into a sentence suitable for
// showing to the user. Shells use it so every expected failure reads the same
// in the terminal and in the browser.
func UserMessage(err error) string {
	var storageErr *driven.StorageError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, driven.ErrEntryNotFound):
		return "No entry with that name exists."
	case errors.Is(err, driven.ErrDuplicateName):
		return "An entry with that name already exists."
	case errors.Is(err, driven.ErrNoFieldsProvided):
		return "Nothing to update: provide a new name, username or password."
	case errors.Is(err, driven.ErrMissingField):
		return "A required field is missing: entries need a name and a password."
	case errors.Is(err, cryptobox.ErrInvalidKey):
		return "The master key is invalid: it must be 32 bytes, base64 encoded."
	case errors.Is(err, cryptobox.ErrDecrypt):
		return "Cannot decrypt: wrong master key or corrupted entry."
	case errors.As(err, &storageErr):
		return "The password store is unavailable, it may be locked by another process. Try again shortly."
	default:
		return "Unexpected error: " + err.Error()
	}
}

// IsUserError reports whether err is an expected condition caused by user
// input rather than a fault in the environment.
func IsUserError(err error) bool {
	return errors.Is(err, driven.ErrEntryNotFound) ||
		errors.Is(err, driven.ErrDuplicateName) ||
		errors.Is(err, driven.ErrNoFieldsProvided) ||
		errors.Is(err, driven.ErrMissingField)
}
