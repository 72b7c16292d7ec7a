package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prepwise/backend/callsession"
	"github.com/prepwise/backend/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newCallHandler(t *testing.T) (*CallHandler, sqlmock.Sqlmock) {
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

	config := InterviewConfig{
		AutoEndGrace:   3 * time.Second,
		ClosingPhrases: []string{"goodbye"},
	}
	return NewCallHandler(repository.NewGORMRepository(gormDB), nil, nil, config), mock
}

func interviewRow(id, userID string, questions string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "role", "type", "questions"}).
		AddRow(id, userID, "Backend Engineer", "Technical", []byte(questions))
}

func TestBuildParamsGenerateMode(t *testing.T) {
	handler, _ := newCallHandler(t)

	setup := &callsession.Setup{Role: "Frontend Developer", InterviewType: "Technical"}
	msg := CallMessage{Type: "start", FeedbackID: "fb-1", Setup: setup}

	params, gotSetup, err := handler.buildParams(context.Background(), testUser("user-1", "test@example.com"), msg)
	if err != nil {
		t.Fatalf("buildParams: %v", err)
	}
	if !params.Generate {
		t.Error("expected generate mode without an interview id")
	}
	if gotSetup != setup {
		t.Errorf("setup not passed through: %+v", gotSetup)
	}
	if params.UserID != "user-1" || params.UserName != "Test User" || params.FeedbackID != "fb-1" {
		t.Errorf("unexpected params: %+v", params)
	}
}

func TestBuildParamsExistingInterview(t *testing.T) {
	handler, mock := newCallHandler(t)

	mock.ExpectQuery(`SELECT (.+) FROM "interviews"`).
		WillReturnRows(interviewRow("i-1", "user-1", `["Q1","Q2"]`))

	msg := CallMessage{Type: "start", InterviewID: "i-1"}
	params, setup, err := handler.buildParams(context.Background(), testUser("user-1", "test@example.com"), msg)
	if err != nil {
		t.Fatalf("buildParams: %v", err)
	}
	if params.Generate {
		t.Error("scripted interview should not run in generate mode")
	}
	if setup != nil {
		t.Errorf("unexpected setup for a scripted interview: %+v", setup)
	}
	if params.InterviewID != "i-1" || len(params.Questions) != 2 || params.Questions[0] != "Q1" {
		t.Errorf("unexpected params: %+v", params)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestBuildParamsRejectsForeignInterview(t *testing.T) {
	handler, mock := newCallHandler(t)

	mock.ExpectQuery(`SELECT (.+) FROM "interviews"`).
		WillReturnRows(interviewRow("i-1", "other-user", `["Q1"]`))

	msg := CallMessage{Type: "start", InterviewID: "i-1"}
	_, _, err := handler.buildParams(context.Background(), testUser("user-1", "test@example.com"), msg)
	if err != errInterviewNotFound {
		t.Fatalf("expected errInterviewNotFound, got %v", err)
	}
}
