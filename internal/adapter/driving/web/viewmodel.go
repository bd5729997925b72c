package web

import (
	httphandler "github.com/ericfisherdev/pwvault/internal/adapter/driving/http"
	vm "github.com/ericfisherdev/pwvault/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/pwvault/internal/application"
)

// toEntryViewModel converts a decrypted entry into its display form.
func toEntryViewModel(view application.EntryView) *vm.EntryViewModel {
	return &vm.EntryViewModel{
		Name:        view.Name,
		Username:    view.Username,
		HasUsername: view.Username != "",
		Password:    view.Password,
	}
}

func successFlash(message string) *vm.Flash {
	return &vm.Flash{Kind: vm.FlashSuccess, Message: message}
}

// errorFlash converts a service error into a flash and the HTTP status the
// page is served with.
func errorFlash(err error) (*vm.Flash, int) {
	return &vm.Flash{Kind: vm.FlashError, Message: application.UserMessage(err)}, httphandler.StatusForError(err)
}

// validAction returns action if it names a tab, otherwise the first tab.
func validAction(action string) string {
	for _, a := range vm.Actions {
		if a == action {
			return action
		}
	}
	return vm.Actions[0]
}
