// Package tui provides the Bubble Tea screens for watching a running world,
// browsing recorded runs, and serving the watch screen over SSH.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/nodewar/internal/runner"
)

// FrameMsg carries a runner frame into the Bubble Tea loop.
type FrameMsg runner.Frame

// ClosedMsg is sent when the subscription feeding the model is closed.
type ClosedMsg struct{}

// waitForFrame blocks until the next frame or the end of the subscription.
func waitForFrame(sub *runner.Subscription) tea.Cmd {
	return func() tea.Msg {
		select {
		case f := <-sub.Frames():
			return FrameMsg(f)
		case <-sub.Done():
			return ClosedMsg{}
		}
	}
}
