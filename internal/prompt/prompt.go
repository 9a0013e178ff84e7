// Package prompt asks the operator questions on a terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter reads answers from in and writes questions to out.
type Prompter struct {
	in     *bufio.Reader
	out    io.Writer
	fd     int
	isTerm bool
}

// New creates a Prompter. Passwords are read without echo when in is a
// terminal.
func New(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
		p.isTerm = true
	}
	return p
}

// Line prints label and returns the trimmed answer. A final line without a
// newline is accepted; io.EOF is returned only when nothing was typed.
func (p *Prompter) Line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Required repeats the question until a non-empty answer is given.
func (p *Prompter) Required(label string) (string, error) {
	for {
		answer, err := p.Line(label)
		if err != nil {
			return "", err
		}
		if answer != "" {
			return answer, nil
		}
		fmt.Fprintln(p.out, "A value is required.")
	}
}

// YesNo asks a y/n question. Only "y" or "yes" (any case) count as yes;
// anything else, including end of input, is no.
func (p *Prompter) YesNo(question string) bool {
	answer, err := p.Line(question + " (y/n): ")
	if err != nil {
		fmt.Fprintln(p.out)
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// Password reads a secret. On a terminal input is not echoed.
func (p *Prompter) Password(label string) (string, error) {
	if !p.isTerm {
		return p.Line(label)
	}
	fmt.Fprint(p.out, label)
	secret, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(secret), nil
}
