package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dmitrijs2005/yearbook/internal/feed"
	"github.com/dmitrijs2005/yearbook/internal/logging"
)

// programOptions is a test seam for the bubbletea program options.
var programOptions = func(ctx context.Context) []tea.ProgramOption {
	return []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
}

// Run shows the viewer until the user quits or ctx ends.
func Run(ctx context.Context, lister Lister, sub *feed.Subscription, opts Options, logger logging.Logger) error {
	m := New(ctx, lister, sub, opts, logger)
	defer m.Stop()

	_, err := tea.NewProgram(m, programOptions(ctx)...).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
