package workflow

import (
	"testing"

	"gearguard/internal/core/domain"

	"github.com/stretchr/testify/require"
)

func TestDragTracker_ClickIsNotADrag(t *testing.T) {
	tr := NewDragTracker(0)
	require.True(t, tr.PointerDown("r1", true, Point{X: 10, Y: 10}))
	require.False(t, tr.PointerMove(Point{X: 13, Y: 12}))

	_, ok := tr.PointerUp(&DropTarget{Column: domain.StageInProgress})
	require.False(t, ok)
}

func TestDragTracker_ActivatesPastThreshold(t *testing.T) {
	tr := NewDragTracker(8)
	require.True(t, tr.PointerDown("r1", true, Point{}))
	require.True(t, tr.PointerMove(Point{X: 6, Y: 6}))

	id, active := tr.Active()
	require.True(t, active)
	require.Equal(t, "r1", id)

	end, ok := tr.PointerUp(&DropTarget{Column: domain.StageInProgress})
	require.True(t, ok)
	require.Equal(t, "r1", end.CardID)
	require.Equal(t, domain.StageInProgress, end.Target.Column)

	_, active = tr.Active()
	require.False(t, active)
}

func TestDragTracker_NonDraggableAndSecondPress(t *testing.T) {
	tr := NewDragTracker(8)
	require.False(t, tr.PointerDown("done", false, Point{}))
	require.False(t, tr.PointerMove(Point{X: 100}))

	require.True(t, tr.PointerDown("r1", true, Point{}))
	require.False(t, tr.PointerDown("r2", true, Point{}))
	tr.PointerMove(Point{X: 20})
	id, _ := tr.Active()
	require.Equal(t, "r1", id)

	tr.Cancel()
	_, ok := tr.PointerUp(nil)
	require.False(t, ok)
}

func TestResolveDropTarget(t *testing.T) {
	board, _ := GroupByStage([]domain.MaintenanceRequest{{ID: "c1", Stage: domain.StageScrap}})

	stage, ok := ResolveDropTarget(board, &DropTarget{Column: domain.StageRepaired})
	require.True(t, ok)
	require.Equal(t, domain.StageRepaired, stage)

	stage, ok = ResolveDropTarget(board, &DropTarget{CardID: "c1"})
	require.True(t, ok)
	require.Equal(t, domain.StageScrap, stage)

	_, ok = ResolveDropTarget(board, &DropTarget{CardID: "gone"})
	require.False(t, ok)
	_, ok = ResolveDropTarget(board, nil)
	require.False(t, ok)
	_, ok = ResolveDropTarget(board, &DropTarget{Column: "TRASH"})
	require.False(t, ok)
}
