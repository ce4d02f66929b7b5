package tui

import (
	"context"

	"gearguard/internal/core/domain"
	"gearguard/internal/core/workflow"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// Run opens the board for viewer and blocks until the user quits
func Run(ctx context.Context, api workflow.RequestAPI, viewer domain.Viewer, logger *zap.Logger, opts ...workflow.Option) error {
	b := &bridge{}
	opts = append(opts,
		workflow.WithNotifier(b),
		workflow.WithConfirmer(b),
		workflow.WithLogger(logger),
	)
	ctrl := workflow.NewController(api, viewer, opts...)

	p := tea.NewProgram(NewModel(ctx, ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
	b.attach(p.Send)

	_, err := p.Run()
	return err
}
