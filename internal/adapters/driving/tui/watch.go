package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/pimsearch/internal/core/observable"
)

// watch forwards updates of v to the returned channel. Only the latest
// undelivered value is kept.
func watch[T any](v *observable.Value[T]) (<-chan T, func()) {
	ch := make(chan T, 1)
	var mu sync.Mutex
	unsubscribe := v.Subscribe(func(value T) {
		mu.Lock()
		defer mu.Unlock()
		select {
		case <-ch:
		default:
		}
		ch <- value
	})
	return ch, unsubscribe
}

// waitFor returns a command that delivers the next value from ch as a message.
func waitFor[T any](ch <-chan T, wrap func(T) tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		return wrap(<-ch)
	}
}
