package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prepwise/backend/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockRepo(t *testing.T) (*GORMRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}

	return NewGORMRepository(gormDB), mock
}

func interviewRow(id string, createdAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "role", "type", "created_at"}).
		AddRow(id, "user-1", "Backend Engineer", "Technical", createdAt)
}

func TestCreateInterviewDedupedReturnsExistingWithinWindow(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM "interviews"`).
		WillReturnRows(interviewRow("existing-1", time.Now().Add(-10*time.Second)))

	interview := &models.Interview{
		UserID: "user-1",
		Role:   "Backend Engineer",
		Type:   "Technical",
	}

	id, duplicate, err := repo.CreateInterviewDeduped(context.Background(), interview, 60*time.Second)
	if err != nil {
		t.Fatalf("CreateInterviewDeduped: %v", err)
	}
	if !duplicate {
		t.Error("expected duplicate=true for a request inside the window")
	}
	if id != "existing-1" {
		t.Errorf("expected existing id, got %s", id)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestCreateInterviewDedupedCreatesWhenWindowExpired(t *testing.T) {
	repo, mock := newMockRepo(t)

	stale := time.Now().Add(-61 * time.Second)

	// Fast path sees only the stale record, so the create proceeds
	mock.ExpectQuery(`SELECT (.+) FROM "interviews"`).
		WillReturnRows(interviewRow("existing-1", stale))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "interviews"`).
		WillReturnRows(interviewRow("existing-1", stale))
	mock.ExpectQuery(`INSERT INTO "interviews"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("fresh-1"))
	mock.ExpectCommit()

	interview := &models.Interview{
		UserID:    "user-1",
		Role:      "Backend Engineer",
		Type:      "Technical",
		TechStack: models.TechStack{"Go"},
		Finalized: true,
		Completed: true,
	}

	id, duplicate, err := repo.CreateInterviewDeduped(context.Background(), interview, 60*time.Second)
	if err != nil {
		t.Fatalf("CreateInterviewDeduped: %v", err)
	}
	if duplicate {
		t.Error("expected duplicate=false once the window has expired")
	}
	if id == "" || id == "existing-1" {
		t.Errorf("expected a fresh interview id, got %q", id)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestCreateInterviewDedupedCreatesWhenNoPriorInterview(t *testing.T) {
	repo, mock := newMockRepo(t)

	empty := sqlmock.NewRows([]string{"id", "user_id", "role", "type", "created_at"})

	mock.ExpectQuery(`SELECT (.+) FROM "interviews"`).WillReturnRows(empty)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "interviews"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "role", "type", "created_at"}))
	mock.ExpectQuery(`INSERT INTO "interviews"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("fresh-2"))
	mock.ExpectCommit()

	interview := &models.Interview{
		UserID:    "user-1",
		Role:      "Frontend Developer",
		Type:      "Mixed",
		TechStack: models.TechStack{"React"},
		Finalized: true,
		Completed: true,
	}

	id, duplicate, err := repo.CreateInterviewDeduped(context.Background(), interview, 0)
	if err != nil {
		t.Fatalf("CreateInterviewDeduped: %v", err)
	}
	if duplicate {
		t.Error("expected duplicate=false for the first interview")
	}
	if id == "" {
		t.Error("expected a generated interview id")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestCreateInterviewDedupedDuplicateAppearsInTransaction(t *testing.T) {
	repo, mock := newMockRepo(t)

	empty := sqlmock.NewRows([]string{"id", "user_id", "role", "type", "created_at"})

	// Fast path sees nothing, but the in-transaction re-check finds a fresh
	// duplicate written in between
	mock.ExpectQuery(`SELECT (.+) FROM "interviews"`).WillReturnRows(empty)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM "interviews"`).
		WillReturnRows(interviewRow("raced-1", time.Now().Add(-1*time.Second)))
	mock.ExpectRollback()

	interview := &models.Interview{
		UserID: "user-1",
		Role:   "Backend Engineer",
		Type:   "Technical",
	}

	id, duplicate, err := repo.CreateInterviewDeduped(context.Background(), interview, 60*time.Second)
	if err != nil {
		t.Fatalf("CreateInterviewDeduped: %v", err)
	}
	if !duplicate {
		t.Error("expected duplicate=true when the re-check finds a fresh record")
	}
	if id != "raced-1" {
		t.Errorf("expected raced id, got %s", id)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
