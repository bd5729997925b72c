package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ericfisherdev/pwvault/internal/application"
)

func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return usageError{err}
	}
	return nil
}

// changedString returns value only if the named flag was given, so an
// explicit empty value can be told apart from an absent flag.
func changedString(flags *pflag.FlagSet, name string, value *string) *string {
	if !flags.Changed(name) {
		return nil
	}
	return value
}

func (a *App) addCommand() *cobra.Command {
	var (
		name, username, password string
		askPassword              bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new password",
		Long: `Adds a named entry. Without --password a random password is generated;
--ask-password reads it from the terminal without echoing.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if name == "" {
				if name, err = a.prompter.Prompt("Name"); err != nil {
					return err
				}
			}
			if askPassword {
				if password, err = a.prompter.PromptSecret("Password"); err != nil {
					return err
				}
			}

			return a.withService(cmd.Context(), func(svc *application.VaultService) error {
				if _, err := svc.AddEntry(cmd.Context(), name, username, password); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Password saved!")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "what to call the password")
	cmd.Flags().StringVar(&username, "username", "", "username stored with the password")
	cmd.Flags().StringVar(&password, "password", "", "password to store, generated when omitted")
	cmd.Flags().BoolVar(&askPassword, "ask-password", false, "read the password from the terminal")
	cmd.MarkFlagsMutuallyExclusive("password", "ask-password")
	return cmd
}

func (a *App) viewCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show a stored password",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd.Context(), func(svc *application.VaultService) error {
				chosen, err := a.resolveName(cmd.Context(), svc, name)
				if err != nil {
					return err
				}

				view, err := svc.ViewEntry(cmd.Context(), chosen)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				printField(out, "Name", view.Name)
				printField(out, "Username", view.Username)
				printField(out, "Password", view.Password)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "entry to show, chosen interactively when omitted")
	return cmd
}

func (a *App) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List entry names",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd.Context(), func(svc *application.VaultService) error {
				names, err := svc.ListEntryNames(cmd.Context())
				if err != nil {
					return err
				}
				printNames(cmd.OutOrStdout(), "Entries:", names)
				return nil
			})
		},
	}
}

func (a *App) updateCommand() *cobra.Command {
	var (
		name, newName, username, password string
		askPassword                       bool
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update an existing entry",
		Long: `Changes the name, username or password of an entry. Only the flags given
are changed; --username "" clears the username.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			changes := application.EntryChanges{
				NewName:  changedString(flags, "new-name", &newName),
				Username: changedString(flags, "username", &username),
				Password: changedString(flags, "password", &password),
			}
			if askPassword {
				secret, err := a.prompter.PromptSecret("New password")
				if err != nil {
					return err
				}
				changes.Password = &secret
			}

			return a.withService(cmd.Context(), func(svc *application.VaultService) error {
				chosen, err := a.resolveName(cmd.Context(), svc, name)
				if err != nil {
					return err
				}

				if err := svc.UpdateEntry(cmd.Context(), chosen, changes); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Updated %s!", chosen)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "entry to update, chosen interactively when omitted")
	cmd.Flags().StringVar(&newName, "new-name", "", "rename the entry")
	cmd.Flags().StringVar(&username, "username", "", "new username")
	cmd.Flags().StringVar(&password, "password", "", "new password")
	cmd.Flags().BoolVar(&askPassword, "ask-password", false, "read the new password from the terminal")
	cmd.MarkFlagsMutuallyExclusive("password", "ask-password")
	return cmd
}

func (a *App) deleteCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete an entry in its entirety",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd.Context(), func(svc *application.VaultService) error {
				chosen, err := a.resolveName(cmd.Context(), svc, name)
				if err != nil {
					return err
				}

				removed, err := svc.DeleteEntry(cmd.Context(), chosen)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if removed > 0 {
					printSuccess(out, "Deleted %s.", chosen)
				} else {
					fmt.Fprintf(out, "%s\n", mutedText.Sprintf("No entry named %s, nothing deleted.", chosen))
				}

				names, err := svc.ListEntryNames(cmd.Context())
				if err != nil {
					return err
				}
				printNames(out, "Left:", names)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "entry to delete, chosen interactively when omitted")
	return cmd
}

func (a *App) rotateCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Replace an entry's password with a new random one",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd.Context(), func(svc *application.VaultService) error {
				chosen, err := a.resolveName(cmd.Context(), svc, name)
				if err != nil {
					return err
				}

				if err := svc.RotateEntrySecret(cmd.Context(), chosen); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "%s's password rotated!", chosen)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "entry to rotate, chosen interactively when omitted")
	return cmd
}

func (a *App) copyCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy a password to the clipboard",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd.Context(), func(svc *application.VaultService) error {
				chosen, err := a.resolveName(cmd.Context(), svc, name)
				if err != nil {
					return err
				}

				view, err := svc.ViewEntry(cmd.Context(), chosen)
				if err != nil {
					return err
				}
				if err := a.copy(view.Password); err != nil {
					return fmt.Errorf("copy password for %q: %w", chosen, err)
				}
				printSuccess(cmd.OutOrStdout(), "Copied the password for %s to the clipboard.", chosen)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "entry to copy, chosen interactively when omitted")
	return cmd
}

func (a *App) generateCommand() *cobra.Command {
	var length int

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print a random password without storing it",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd.Context(), func(svc *application.VaultService) error {
				password, err := svc.GeneratePassword(length)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), password)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&length, "length", 0, "password length, raised to the generator minimum when shorter (default: configured length)")
	return cmd
}

func (a *App) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the vault as a local web form",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withService(cmd.Context(), func(svc *application.VaultService) error {
				fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s\n", labelText.Sprintf("http://%s", a.settings.ListenAddr))
				return a.serve(cmd.Context(), svc, a.settings.ListenAddr)
			})
		},
	}

	cmd.Flags().StringVar(&a.settings.ListenAddr, "listen", a.settings.ListenAddr, "address to listen on")
	return cmd
}
