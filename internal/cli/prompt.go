package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// prompter reads answers from the command's input. Passwords are masked
// when the input is a terminal.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
	fd  int // terminal file descriptor, or -1
}

func newPrompter(cmd *cobra.Command) *prompter {
	r := cmd.InOrStdin()
	p := &prompter{in: bufio.NewScanner(r), out: cmd.OutOrStdout(), fd: -1}
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
	}
	return p
}

// line prints prompt and returns the next trimmed line; ok is false at end of input.
func (p *prompter) line(prompt string) (string, bool) {
	fmt.Fprint(p.out, prompt)
	if !p.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(p.in.Text()), true
}

// id prompts for a numeric identifier.
func (p *prompter) id(prompt string) (int64, bool, error) {
	s, ok := p.line(prompt)
	if !ok {
		return 0, false, nil
	}
	id, err := parseID(s)
	return id, true, err
}

// password securely reads a password with masking.
func (p *prompter) password(prompt string) (string, error) {
	if p.fd < 0 {
		s, ok := p.line(prompt)
		if !ok {
			return "", io.ErrUnexpectedEOF
		}
		return s, nil
	}
	fmt.Fprint(p.out, prompt)
	b, err := term.ReadPassword(p.fd)
	if err != nil {
		return "", err
	}
	fmt.Fprintln(p.out) // Add newline after password input
	return strings.TrimSpace(string(b)), nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ID: %s", s)
	}
	return id, nil
}
