// Package viewmodel holds the presentation structs rendered by the web pages.
// They carry display-ready values only; no domain types leak into templates.
package viewmodel

// Actions offered on the vault page, in tab order.
var Actions = []string{"add", "view", "update", "delete", "rotate"}

// FlashKind classifies a flash message for styling.
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)

// Flash is a one-shot message shown above the active form.
type Flash struct {
	Kind    FlashKind
	Message string
}

// EntryViewModel is a decrypted entry shown after a view request.
type EntryViewModel struct {
	Name        string
	Username    string
	HasUsername bool
	Password    string
}

// VaultPage is the data for the single-page vault form.
type VaultPage struct {
	Action    string
	Actions   []string
	CSRFToken string
	Names     []string
	Selected  string

	// SuggestedPassword pre-fills the add form.
	SuggestedPassword string

	Flash *Flash
	Entry *EntryViewModel

	// Remaining lists the names left after a delete.
	Remaining     []string
	ShowRemaining bool
}
