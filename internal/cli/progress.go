package cli

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Progress shows a spinner while a long step runs.
// A nil *Progress is valid and does nothing, which is what quiet mode uses.
type Progress struct {
	s *spinner.Spinner
}

// StartProgress starts a spinner on out with message as its suffix.
func StartProgress(out io.Writer, quiet bool, message string) *Progress {
	if quiet {
		return nil
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(out))
	s.Suffix = " " + message
	s.Start()
	return &Progress{s: s}
}

// Succeed stops the spinner and leaves a green message behind.
func (p *Progress) Succeed(message string) {
	p.stop(text.FgGreen.Sprint(message))
}

// Fail stops the spinner and leaves a red message behind.
func (p *Progress) Fail(message string) {
	p.stop(text.FgRed.Sprint(message))
}

// Stop stops the spinner without a message.
func (p *Progress) Stop() {
	p.stop("")
}

func (p *Progress) stop(final string) {
	if p == nil {
		return
	}
	if final != "" {
		p.s.FinalMSG = final + "\n"
	}
	p.s.Stop()
}
