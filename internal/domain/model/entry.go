package model

// Entry is a stored credential. EncryptedSecret is the base64 ciphertext
// produced by cryptobox; the plaintext is never persisted. Username is empty
// when the entry has none.
type Entry struct {
	ID              int64
	Name            string
	Username        string
	EncryptedSecret string
}

// EntryUpdate carries the fields to change on an existing entry. A nil field
// keeps its stored value.
type EntryUpdate struct {
	NewName         *string
	Username        *string
	EncryptedSecret *string
}

// IsEmpty reports whether no field is set.
func (u EntryUpdate) IsEmpty() bool {
	return u.NewName == nil && u.Username == nil && u.EncryptedSecret == nil
}
