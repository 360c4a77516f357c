package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Prompter blocks until the operator presses Enter.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter reads confirmations from in and writes prompt text to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// NewStdinPrompter returns a Prompter on the process terminal. It warns when
// stdin is not a terminal, since prompts then consume piped input lines.
func NewStdinPrompter(logger *Logger) *Prompter {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		logger.Warn("[prompt] stdin is not a terminal, confirmations will read piped input")
	}
	return NewPrompter(os.Stdin, os.Stdout)
}

// Wait prints message and waits for one line of input. There is no timeout.
// EOF on the input counts as confirmation so a closed stdin cannot hang the run.
func (p *Prompter) Wait(message string) error {
	fmt.Fprint(p.out, message)
	_, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("prompt: read confirmation: %w", err)
	}
	return nil
}
