package commands

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const (
	spinnerInterval = 80 * time.Millisecond
	hideCursor      = "\033[?25l"
	showCursor      = "\033[?25h"
	clearLine       = "\r\033[K"
)

var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// spinner animates a status line on stderr while a rewrite runs.
// Lines written through warn scroll above it.
type spinner struct {
	out  io.Writer
	stop chan struct{}
	done chan struct{}
	once sync.Once

	mu      sync.Mutex
	message string
	frame   int
}

func newSpinner(out io.Writer, message string) *spinner {
	return &spinner{
		out:     out,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (s *spinner) start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()

		fmt.Fprint(s.out, hideCursor)
		for {
			select {
			case <-s.stop:
				fmt.Fprint(s.out, clearLine+showCursor)
				return
			case <-ticker.C:
				s.mu.Lock()
				fmt.Fprint(s.out, clearLine+s.line())
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// line is the current frame: a colored glyph, the message, and up to
// three filled dots that cycle every twelve frames.
func (s *spinner) line() string {
	glyph := lipgloss.NewStyle().
		Foreground(gradientColors[s.frame%len(gradientColors)]).
		Bold(true).
		Render(spinnerFrames[s.frame%len(spinnerFrames)])

	var dots strings.Builder
	filled := (s.frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < filled {
			dots.WriteString(lipgloss.NewStyle().Foreground(gradientColors[(s.frame+i)%len(gradientColors)]).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(cliTheme.TextMute).Render("○"))
		}
	}

	return glyph + " " + lipgloss.NewStyle().Foreground(cliTheme.Text).Render(s.message) + " " + dots.String()
}

// warn prints line above the animation and continues with message
func (s *spinner) warn(line, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "%s%s\n", clearLine, warnStyle.Render(line))
	s.message = message
}

func (s *spinner) halt() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}

func (s *spinner) stopWithSuccess(message string) {
	s.halt()
	check := lipgloss.NewStyle().Foreground(cliTheme.Secondary).Bold(true).Render("✓")
	fmt.Fprintf(s.out, "%s %s\n", check, successStyle.Render(message))
}

// stopWithError clears the line; the caller prints the error.
func (s *spinner) stopWithError() {
	s.halt()
}
