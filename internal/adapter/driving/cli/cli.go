// Package cli is the terminal shell of the vault: a cobra command tree over
// application.VaultService.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/pwvault/internal/application"
)

// Settings are the per-invocation storage and key settings. Config values
// seed them and persistent flags override them.
type Settings struct {
	DBPath         string
	KeyFile        string
	KeyBackend     string
	Key            string // base64 master key given on the command line
	PasswordLength int
	ListenAddr     string
}

// OpenFunc builds a VaultService for one invocation. The returned close
// function releases the store.
type OpenFunc func(ctx context.Context, settings Settings) (*application.VaultService, func() error, error)

// ServeFunc runs the web shell until ctx is cancelled.
type ServeFunc func(ctx context.Context, svc *application.VaultService, addr string) error

// Selector asks the user to pick one of candidates.
type Selector interface {
	SelectOne(label string, candidates []string) (string, error)
}

// Prompter reads free-form input from the user.
type Prompter interface {
	Prompt(label string) (string, error)
	PromptSecret(label string) (string, error)
}

var errVaultEmpty = errors.New("vault is empty")

// usageError marks bad command-line input; its text is shown as is.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// App holds the collaborators shared by all commands.
type App struct {
	settings     Settings
	open         OpenFunc
	serve        ServeFunc
	selector     Selector
	prompter     Prompter
	copy         func(string) error
	logLevel     *slog.LevelVar
	logLevelFlag string
	logger       *slog.Logger
}

// Option customises an App.
type Option func(*App)

// WithServe enables the serve command.
func WithServe(serve ServeFunc) Option {
	return func(a *App) { a.serve = serve }
}

// WithSelector replaces the interactive entry selector.
func WithSelector(s Selector) Option {
	return func(a *App) { a.selector = s }
}

// WithPrompter replaces the interactive prompter.
func WithPrompter(p Prompter) Option {
	return func(a *App) { a.prompter = p }
}

// WithClipboard replaces the clipboard writer used by the copy command.
func WithClipboard(copyFn func(string) error) Option {
	return func(a *App) { a.copy = copyFn }
}

// WithLogLevel lets the --log-level flag adjust the running handler.
func WithLogLevel(level *slog.LevelVar) Option {
	return func(a *App) { a.logLevel = level }
}

// NewApp creates an App. Interactive input defaults to the process terminal
// and copy to the system clipboard.
func NewApp(settings Settings, open OpenFunc, logger *slog.Logger, opts ...Option) *App {
	term := NewTerminal()
	a := &App{
		settings: settings,
		open:     open,
		selector: term,
		prompter: term,
		copy:     writeClipboard,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Command builds the root command with every subcommand attached.
func (a *App) Command() *cobra.Command {
	root := &cobra.Command{
		Use:   "pwvault",
		Short: "Local encrypted password vault",
		Long: `pwvault keeps named credentials in a local SQLite file. Passwords are
encrypted with a 32-byte master key held in a key file or the OS keyring.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if a.logLevelFlag == "" || a.logLevel == nil {
				return nil
			}
			var level slog.Level
			if err := level.UnmarshalText([]byte(a.logLevelFlag)); err != nil {
				return usageError{fmt.Errorf("--log-level: %w", err)}
			}
			a.logLevel.Set(level)
			return nil
		},
	}

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	flags := root.PersistentFlags()
	flags.StringVar(&a.settings.DBPath, "db", a.settings.DBPath, "path of the vault database")
	flags.StringVar(&a.settings.KeyFile, "key-file", a.settings.KeyFile, "path of the master key file")
	flags.StringVar(&a.settings.KeyBackend, "key-backend", a.settings.KeyBackend, "where the master key lives: file or keyring")
	flags.StringVar(&a.settings.Key, "key", "", "base64 master key, overrides the key backend")
	flags.StringVar(&a.logLevelFlag, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		a.addCommand(),
		a.viewCommand(),
		a.listCommand(),
		a.updateCommand(),
		a.deleteCommand(),
		a.rotateCommand(),
		a.copyCommand(),
		a.generateCommand(),
	)
	if a.serve != nil {
		root.AddCommand(a.serveCommand())
	}
	return root
}

// Execute runs the command tree and reports the outcome on stderr. It returns
// the process exit code.
func (a *App) Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := a.Command()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var usage usageError
	if !application.IsUserError(err) && !errors.As(err, &usage) {
		a.logger.Debug("command failed", "error", err)
	}
	fmt.Fprintf(stderr, "%s %s\n", errorText.Sprint("Error:"), message(err))
	return 1
}

func message(err error) string {
	var usage usageError
	switch {
	case errors.Is(err, errVaultEmpty):
		return "The vault is empty: add an entry first."
	case errors.As(err, &usage):
		return usage.Error()
	default:
		return application.UserMessage(err)
	}
}

// withService opens the vault for the duration of fn.
func (a *App) withService(ctx context.Context, fn func(svc *application.VaultService) error) error {
	svc, closeFn, err := a.open(ctx, a.settings)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeFn(); closeErr != nil {
			a.logger.Error("error closing vault", "error", closeErr)
		}
	}()
	return fn(svc)
}

// resolveName returns name, or asks the user to choose one of the stored
// entries when name is empty.
func (a *App) resolveName(ctx context.Context, svc *application.VaultService, name string) (string, error) {
	if name != "" {
		return name, nil
	}

	names, err := svc.ListEntryNames(ctx)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", errVaultEmpty
	}
	return a.selector.SelectOne("Please choose", names)
}
