package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

// Terminal implements Selector and Prompter on the process terminal.
type Terminal struct {
	in  *os.File
	out io.Writer
}

// NewTerminal returns a Terminal reading stdin and prompting on stderr.
func NewTerminal() *Terminal {
	return &Terminal{in: os.Stdin, out: os.Stderr}
}

// SelectOne shows an arrow-key menu of candidates. Typing "/" filters it.
func (t *Terminal) SelectOne(label string, candidates []string) (string, error) {
	sel := promptui.Select{
		Label:  label,
		Items:  candidates,
		Size:   10,
		Stdin:  t.in,
		Stdout: nopWriteCloser{t.out},
		Searcher: func(input string, index int) bool {
			return strings.Contains(strings.ToLower(candidates[index]), strings.ToLower(input))
		},
	}

	_, chosen, err := sel.Run()
	if err != nil {
		return "", fmt.Errorf("select %s: %w", strings.ToLower(label), err)
	}
	return chosen, nil
}

// Prompt reads a non-empty line.
func (t *Terminal) Prompt(label string) (string, error) {
	p := promptui.Prompt{
		Label:  label,
		Stdin:  t.in,
		Stdout: nopWriteCloser{t.out},
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("must not be empty")
			}
			return nil
		},
	}

	value, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("prompt %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(value), nil
}

// PromptSecret reads a line without echo. When stdin is not a terminal the
// line is read as is, so secrets can be piped in.
func (t *Terminal) PromptSecret(label string) (string, error) {
	fd := int(t.in.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(t.in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprintf(t.out, "%s: ", label)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(t.out)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return string(secret), nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func writeClipboard(text string) error {
	if clipboard.Unsupported {
		return errors.New("no clipboard utility available")
	}
	return clipboard.WriteAll(text)
}
