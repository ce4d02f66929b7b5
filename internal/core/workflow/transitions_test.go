package workflow

import (
	"testing"

	"gearguard/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition_Table(t *testing.T) {
	allowed := map[[2]domain.Stage]bool{
		{domain.StageNew, domain.StageInProgress}:      true,
		{domain.StageInProgress, domain.StageRepaired}: true,
		{domain.StageInProgress, domain.StageScrap}:    true,
	}

	stages := append([]domain.Stage{}, domain.Stages...)
	stages = append(stages, domain.Stage("ARCHIVED"))
	for _, from := range stages {
		for _, to := range stages {
			want := allowed[[2]domain.Stage{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalStagesHaveNoNextStages(t *testing.T) {
	require.True(t, IsTerminal(domain.StageRepaired))
	require.True(t, IsTerminal(domain.StageScrap))
	require.False(t, IsTerminal(domain.StageNew))
	require.Empty(t, NextStages(domain.StageRepaired))
	require.Empty(t, NextStages(domain.StageScrap))
	require.Equal(t, []domain.Stage{domain.StageRepaired, domain.StageScrap}, NextStages(domain.StageInProgress))
}

func TestNextStagesReturnsCopy(t *testing.T) {
	next := NextStages(domain.StageInProgress)
	next[0] = domain.StageNew
	require.True(t, CanTransition(domain.StageInProgress, domain.StageRepaired))
}

func TestValidateTransition(t *testing.T) {
	require.NoError(t, ValidateTransition(domain.StageNew, domain.StageInProgress))
	require.ErrorIs(t, ValidateTransition(domain.StageRepaired, domain.StageNew), domain.ErrInvalidTransition)
	require.ErrorIs(t, ValidateTransition(domain.StageNew, domain.StageScrap), domain.ErrInvalidTransition)
	require.ErrorIs(t, ValidateTransition(domain.StageNew, domain.StageNew), domain.ErrInvalidTransition)
	require.ErrorIs(t, ValidateTransition(domain.StageNew, "DONE"), domain.ErrUnknownStage)
}
