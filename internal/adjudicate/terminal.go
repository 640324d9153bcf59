package adjudicate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/kozaktomas/photo-grouper/internal/cluster"
	"go.uber.org/zap"
)

const terminalPrompt = "Same person? [y/n] "

// LineReader is the subset of *readline.Instance the terminal needs.
type LineReader interface {
	Readline() (string, error)
	Close() error
}

// Terminal asks the operator on the controlling terminal.
type Terminal struct {
	rl     LineReader
	out    io.Writer
	logger *zap.Logger

	// set once input has ended; every later question is answered "no"
	exhausted bool
}

// NewTerminal opens a readline session on stdin.
func NewTerminal(logger *zap.Logger) (*Terminal, error) {
	cyan := color.New(color.FgCyan).SprintFunc()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          cyan(terminalPrompt),
		InterruptPrompt: "^C",
		EOFPrompt:       "no",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return newTerminal(rl, rl.Stdout(), logger), nil
}

func newTerminal(rl LineReader, out io.Writer, logger *zap.Logger) *Terminal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Terminal{rl: rl, out: out, logger: logger}
}

// Adjudicate prints both photos and waits for a yes or no. Anything else
// re-prompts. If the input ends the answer is no.
func (t *Terminal) Adjudicate(_ context.Context, a, b cluster.Ref) bool {
	if t.exhausted {
		return false
	}

	bold := color.New(color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(t.out, "\n%s\n", bold("Uncertain match, please compare:"))
	fmt.Fprintf(t.out, "  %s %s\n", yellow("group:"), describe(a))
	fmt.Fprintf(t.out, "  %s %s\n", yellow("photo:"), describe(b))

	for {
		line, err := t.rl.Readline()
		if err != nil {
			reason := "input closed"
			if errors.Is(err, readline.ErrInterrupt) {
				reason = "interrupted"
			} else if !errors.Is(err, io.EOF) {
				reason = err.Error()
			}
			t.exhausted = true
			t.logger.Warn("no more answers from terminal, treating remaining pairs as different people",
				zap.String("reason", reason),
				zap.String("representative", string(a)),
				zap.String("image", string(b)),
			)
			return false
		}

		same, ok := parseAnswer(line)
		if ok {
			t.logger.Debug("terminal decision",
				zap.String("representative", string(a)),
				zap.String("image", string(b)),
				zap.Bool("same", same),
			)
			return same
		}

		red := color.New(color.FgRed).SprintFunc()
		fmt.Fprintln(t.out, red("Please answer y (yes) or n (no)."))
	}
}

// Close releases the terminal.
func (t *Terminal) Close() error {
	return t.rl.Close()
}

func describe(ref cluster.Ref) string {
	p := string(ref)
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return p
}

// parseAnswer accepts English and Portuguese yes/no answers.
func parseAnswer(line string) (same bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "s", "sim":
		return true, true
	case "n", "no", "nao", "não":
		return false, true
	}
	return false, false
}
