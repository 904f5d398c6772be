// Package progress reports the stages of a suite run to a terminal or an
// event stream.
package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/kamilpajak/reliability/pkg/models"
)

// Event types.
const (
	TypeRequested = "requested"
	TypeRunning   = "running"
	TypeInfo      = "info"
	TypeDone      = "done"
	TypeError     = "error"
)

// Event is a single progress update during a suite run.
type Event struct {
	Type    string                  `json:"type"`
	Suite   string                  `json:"suite,omitempty"`
	RunID   string                  `json:"runId,omitempty"`
	Message string                  `json:"message,omitempty"`
	Summary *models.Summary         `json:"summary,omitempty"`
	Run     *models.RunHistoryEntry `json:"run,omitempty"`
}

// Emitter receives progress events.
type Emitter interface {
	Emit(event Event)
}

// Nop discards events.
type Nop struct{}

// Emit does nothing.
func (Nop) Emit(Event) {}

// TextEmitter formats progress events as human-readable lines. With a
// spinner attached, the running stage animates until the next event.
type TextEmitter struct {
	W io.Writer

	mu      sync.Mutex
	spinner *spinner.Spinner
}

// NewTextEmitter creates a TextEmitter. animate enables the spinner and
// should only be set when w is a terminal.
func NewTextEmitter(w io.Writer, animate bool) *TextEmitter {
	e := &TextEmitter{W: w}
	if animate {
		e.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	}
	return e
}

// Emit writes a formatted progress line to the underlying writer.
func (e *TextEmitter) Emit(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ev.Type == TypeRunning && e.spinner != nil {
		e.spinner.Suffix = " " + ev.Message
		e.spinner.Start()
		return
	}
	e.stopSpinner()

	switch ev.Type {
	case TypeRequested:
		fmt.Fprintf(e.W, "[%s] run requested (%s)\n", ev.Suite, ev.RunID)
	case TypeRunning:
		fmt.Fprintf(e.W, "[%s] %s\n", ev.Suite, ev.Message)
	case TypeInfo:
		fmt.Fprintf(e.W, "  %s\n", ev.Message)
	case TypeDone:
		if ev.Summary != nil {
			fmt.Fprintf(e.W, "[%s] done: %d benchmarks, %d passed, %d failed\n",
				ev.Suite, ev.Summary.Total, ev.Summary.Success, ev.Summary.Failed)
		} else {
			fmt.Fprintf(e.W, "[%s] done\n", ev.Suite)
		}
	case TypeError:
		fmt.Fprintf(e.W, "Error: %s\n", ev.Message)
	}
}

// Close stops the spinner if it is still running.
func (e *TextEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopSpinner()
}

func (e *TextEmitter) stopSpinner() {
	if e.spinner != nil && e.spinner.Active() {
		e.spinner.Stop()
	}
}
