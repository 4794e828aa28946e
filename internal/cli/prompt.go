package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
)

// ErrAborted is returned when the operator declines or interrupts a prompt.
var ErrAborted = errors.New("aborted by user")

// LineReader is the part of *readline.Instance the prompts use.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
	Close() error
}

// Prompter asks the operator to pick or confirm things.
type Prompter struct {
	rl  LineReader
	out io.Writer
	// AssumeYes answers every confirmation with yes.
	AssumeYes bool
}

// NewPrompter opens a readline prompt on the terminal.
func NewPrompter(out io.Writer) (*Prompter, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          out,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline instance: %w", err)
	}
	return NewPrompterWithReader(rl, out), nil
}

// NewPrompterWithReader builds a prompter over any LineReader.
func NewPrompterWithReader(rl LineReader, out io.Writer) *Prompter {
	return &Prompter{rl: rl, out: out}
}

// Close releases the terminal.
func (p *Prompter) Close() error {
	return p.rl.Close()
}

func (p *Prompter) readLine(prompt string) (string, error) {
	p.rl.SetPrompt(prompt)
	line, err := p.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return "", ErrAborted
	}
	if err != nil {
		return "", fmt.Errorf("readline error: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (p *Prompter) printItems(title string, items []string) {
	fmt.Fprintln(p.out, title)
	for i, item := range items {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, item)
	}
}

// Select shows a numbered list and returns the chosen index.
// An empty answer picks defaultIndex.
func (p *Prompter) Select(title string, items []string, defaultIndex int) (int, error) {
	if len(items) == 0 {
		return 0, fmt.Errorf("nothing to select")
	}
	p.printItems(title, items)
	for {
		answer, err := p.readLine(fmt.Sprintf("Choice [%d]: ", defaultIndex+1))
		if err != nil {
			return 0, err
		}
		if answer == "" {
			return defaultIndex, nil
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(items) {
			return n - 1, nil
		}
		fmt.Fprintf(p.out, "Enter a number between 1 and %d.\n", len(items))
	}
}

// MultiSelect shows a numbered list and returns the chosen indices, sorted.
// Answers look like "1,3-5" or "all".
func (p *Prompter) MultiSelect(title string, items []string) ([]int, error) {
	if len(items) == 0 {
		return nil, nil
	}
	p.printItems(title, items)
	for {
		answer, err := p.readLine("Choices (e.g. 1,3-5 or all): ")
		if err != nil {
			return nil, err
		}
		selected, err := ParseSelection(answer, len(items))
		if err == nil {
			return selected, nil
		}
		fmt.Fprintln(p.out, err)
	}
}

// Confirm asks a yes/no question; only an explicit yes continues.
func (p *Prompter) Confirm(question string) (bool, error) {
	if p.AssumeYes {
		return true, nil
	}
	answer, err := p.readLine(question + " [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// ParseSelection turns "1,3-5" into zero-based indices for a list of n items.
func ParseSelection(answer string, n int) ([]int, error) {
	answer = strings.TrimSpace(strings.ToLower(answer))
	if answer == "" {
		return nil, fmt.Errorf("select at least one item")
	}
	if answer == "all" || answer == "*" {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}

	seen := map[int]bool{}
	for _, part := range strings.Split(answer, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		start, err := parseChoice(lo, n)
		if err != nil {
			return nil, err
		}
		end := start
		if isRange {
			if end, err = parseChoice(hi, n); err != nil {
				return nil, err
			}
			if end < start {
				return nil, fmt.Errorf("invalid range %q", part)
			}
		}
		for i := start; i <= end; i++ {
			seen[i] = true
		}
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("select at least one item")
	}

	selected := make([]int, 0, len(seen))
	for i := range seen {
		selected = append(selected, i)
	}
	sort.Ints(selected)
	return selected, nil
}

func parseChoice(s string, n int) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 1 || v > n {
		return 0, fmt.Errorf("%q is not a number between 1 and %d", strings.TrimSpace(s), n)
	}
	return v - 1, nil
}
