package ui

import (
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/replicatedhq/kots-sub006/internal/appconfig"
	"github.com/replicatedhq/kots-sub006/internal/form"
)

// programRelay forwards engine snapshots into a tea.Program once it exists.
// The engine starts delivering updates before the program is constructed, so
// early snapshots are dropped; the model seeds itself from the engine anyway.
type programRelay struct {
	mu      sync.Mutex
	program *tea.Program
}

func (r *programRelay) attach(p *tea.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.program = p
}

func (r *programRelay) send(msg tea.Msg) {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// Run starts the interactive form editor over the given config tree and
// blocks until the user quits. Validation round trips run through validator
// on the engine's debounce schedule; ctrl+s persists through saver.
func Run(groups []appconfig.ConfigGroup, validator form.Validator, saver form.Saver, debounce time.Duration) error {
	relay := &programRelay{}

	opts := []form.Option{
		form.WithOnUpdate(func(s form.Snapshot) {
			relay.send(SnapshotMsg{Snapshot: s})
		}),
	}
	if validator != nil {
		opts = append(opts, form.WithValidator(validator))
	}
	if debounce > 0 {
		opts = append(opts, form.WithDebounce(debounce))
	}

	engine := form.NewEngine(groups, opts...)
	defer engine.Close()

	p := tea.NewProgram(NewFormModel(engine, saver))
	relay.attach(p)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("form editor error: %w", err)
	}
	return nil
}
