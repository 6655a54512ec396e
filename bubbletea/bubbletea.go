// Package bubbletea provides the Bubble Tea terminal interface for parley.
// The model renders store snapshots; all conversation I/O goes through the
// session manager.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/parleyhq/parley"
)

// Controller is the slice of the session manager the TUI drives.
type Controller interface {
	StartStream(ctx context.Context, message string, mode parley.Mode) (string, error)
	StopAllStreams()
}

// Run creates and runs the Bubble Tea program. It blocks until the program
// exits. When the context is cancelled the program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// StateMsg delivers a store snapshot to the model.
type StateMsg struct {
	State parley.State
}

// listenForState waits for the next snapshot from the pump channel.
func listenForState(ch <-chan parley.State) tea.Cmd {
	return func() tea.Msg {
		return StateMsg{State: <-ch}
	}
}

// pump forwards snapshots into ch, keeping only the latest when the model
// falls behind. The store's listener must never block.
func pump(ch chan parley.State) func(parley.State) {
	return func(s parley.State) {
		for {
			select {
			case ch <- s:
				return
			default:
				select {
				case <-ch:
				default:
				}
			}
		}
	}
}
