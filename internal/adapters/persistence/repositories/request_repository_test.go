package repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"gearguard/internal/adapters/persistence/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return db, mock
}

func TestRequestRepository_CreateWritesEvent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `maintenance_requests`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `request_events`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	req := &models.MaintenanceRequest{ID: "0b6f3c9e-1111-4a2b-9c3d-000000000001", Subject: "Leak", Type: "CORRECTIVE", Stage: "NEW", CreatedBy: 1}
	event := &models.RequestEvent{EventType: models.EventCreate, PerformedBy: 1}
	require.NoError(t, repo.Create(context.Background(), req, event))
	require.Equal(t, req.ID, event.RequestID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepository_ApplyScrapTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)
	equipmentID := uint(4)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `maintenance_requests` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `equipment` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `request_events`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Apply(context.Background(), RequestChange{
		RequestID:        "r1",
		ExpectStage:      "IN_PROGRESS",
		Fields:           map[string]interface{}{"stage": "SCRAP", "completed_at": now},
		Event:            &models.RequestEvent{EventType: models.EventScrap, PerformedBy: 2},
		ScrapEquipmentID: &equipmentID,
		At:               now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepository_ApplyDetectsStageConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `maintenance_requests` SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT `stage` FROM `maintenance_requests`").
		WillReturnRows(sqlmock.NewRows([]string{"stage"}).AddRow("REPAIRED"))
	mock.ExpectRollback()

	err := repo.Apply(context.Background(), RequestChange{
		RequestID:   "r1",
		ExpectStage: "IN_PROGRESS",
		Fields:      map[string]interface{}{"stage": "SCRAP"},
	})
	require.ErrorIs(t, err, ErrStageConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepository_ApplyMissingRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `maintenance_requests` SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT `stage` FROM `maintenance_requests`").
		WillReturnRows(sqlmock.NewRows([]string{"stage"}))
	mock.ExpectRollback()

	err := repo.Apply(context.Background(), RequestChange{
		RequestID: "missing",
		Fields:    map[string]interface{}{"assigned_technician_id": 3},
	})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepository_CountOpenByEquipment(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `maintenance_requests`")).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(3))

	n, err := repo.CountOpenByEquipment(context.Background(), 9)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepository_CountOpenByTechnician(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)

	mock.ExpectQuery("SELECT assigned_technician_id AS technician_id").
		WillReturnRows(sqlmock.NewRows([]string{"technician_id", "total"}).AddRow(7, 2).AddRow(8, 5))

	load, err := repo.CountOpenByTechnician(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[uint]int64{7: 2, 8: 5}, load)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepository_CountByStage(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)

	mock.ExpectQuery("SELECT maintenance_requests.stage AS label").
		WillReturnRows(sqlmock.NewRows([]string{"label", "total"}).AddRow("IN_PROGRESS", 2).AddRow("NEW", 4))

	counts, err := repo.CountBy(context.Background(), DimensionStage)
	require.NoError(t, err)
	require.Equal(t, []StageCount{{Key: "IN_PROGRESS", Count: 2}, {Key: "NEW", Count: 4}}, counts)

	_, err = repo.CountBy(context.Background(), "colour")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepository_SweepOverdue(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `maintenance_requests` SET `is_overdue`").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("UPDATE `maintenance_requests` SET `is_overdue`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	marked, cleared, err := repo.SweepOverdue(context.Background(), time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(3), marked)
	require.Equal(t, int64(1), cleared)
	require.NoError(t, mock.ExpectationsWereMet())
}
