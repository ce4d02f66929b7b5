package tui

import (
	"context"
	"sync"

	"gearguard/internal/core/workflow"

	tea "github.com/charmbracelet/bubbletea"
)

// notifyMsg carries a controller notification into the update loop
type notifyMsg struct {
	level workflow.Level
	text  string
}

// confirmMsg asks the user a y/n question; the answer goes back on reply
type confirmMsg struct {
	prompt string
	reply  chan bool
}

// bridge lets the controller, which runs its backend calls on command
// goroutines, talk to the bubbletea program. Until attach is called
// notifications are dropped and confirmations are declined.
type bridge struct {
	mu   sync.RWMutex
	send func(tea.Msg)
}

func (b *bridge) attach(send func(tea.Msg)) {
	b.mu.Lock()
	b.send = send
	b.mu.Unlock()
}

func (b *bridge) sender() func(tea.Msg) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.send
}

// Notify implements workflow.Notifier
func (b *bridge) Notify(level workflow.Level, message string) {
	if send := b.sender(); send != nil {
		send(notifyMsg{level: level, text: message})
	}
}

// Confirm implements workflow.Confirmer. It blocks the calling command
// until the user answers or ctx is done.
func (b *bridge) Confirm(ctx context.Context, prompt string) bool {
	send := b.sender()
	if send == nil {
		return false
	}
	reply := make(chan bool, 1)
	send(confirmMsg{prompt: prompt, reply: reply})
	select {
	case ok := <-reply:
		return ok
	case <-ctx.Done():
		return false
	}
}
