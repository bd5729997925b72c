package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Formatters for terminal output. fatih/color disables itself when stdout is
// not a terminal or NO_COLOR is set.
var (
	successText = color.New(color.FgGreen)
	errorText   = color.New(color.FgRed, color.Bold)
	labelText   = color.New(color.Bold)
	mutedText   = color.New(color.Faint)
)

func printSuccess(w io.Writer, format string, a ...any) {
	fmt.Fprintf(w, "%s %s\n", successText.Sprint("✓"), fmt.Sprintf(format, a...))
}

func printField(w io.Writer, label, value string) {
	if value == "" {
		value = mutedText.Sprint("(none)")
	}
	fmt.Fprintf(w, "%s %s\n", labelText.Sprint(label+":"), value)
}

// printNames writes names as a numbered list under heading.
func printNames(w io.Writer, heading string, names []string) {
	fmt.Fprintln(w, labelText.Sprint(heading))
	if len(names) == 0 {
		fmt.Fprintf(w, "  %s\n", mutedText.Sprint("(empty)"))
		return
	}
	for i, name := range names {
		fmt.Fprintf(w, "  (%d) - %s\n", i, name)
	}
}
