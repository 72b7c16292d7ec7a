package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prepwise/backend/models"
)

func TestGetInterviewByIDNotFoundReturnsNil(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM "interviews"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	interview, err := repo.GetInterviewByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetInterviewByID: %v", err)
	}
	if interview != nil {
		t.Errorf("expected nil for a missing interview, got %+v", interview)
	}
}

func TestGetLatestInterviewsFiltersFinalizedAndOwner(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"id", "user_id", "role", "type", "finalized", "created_at"}).
		AddRow("i-1", "other-user", "Backend Engineer", "Technical", true, time.Now())

	mock.ExpectQuery(`SELECT (.+) FROM "interviews" WHERE \(finalized = \$1 AND user_id <> \$2\)`).
		WithArgs(true, "me", 5).
		WillReturnRows(rows)

	interviews, err := repo.GetLatestInterviews(context.Background(), "me", 5)
	if err != nil {
		t.Fatalf("GetLatestInterviews: %v", err)
	}
	if len(interviews) != 1 || interviews[0].ID != "i-1" {
		t.Errorf("unexpected interviews: %+v", interviews)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestGetUserByEmailNotFoundReturnsNil(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	user, err := repo.GetUserByEmail(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil for an unknown email, got %+v", user)
	}
}

func TestUpsertFeedbackUpdatesWhenIDSet(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "feedbacks"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	feedback := &models.Feedback{
		ID:                  "fb-1",
		InterviewID:         "i-1",
		UserID:              "u-1",
		TotalScore:          80,
		Strengths:           "Clear reasoning",
		AreasForImprovement: "More depth on system design",
		FinalAssessment:     "Solid performance overall with room to grow.",
	}

	if err := repo.UpsertFeedback(context.Background(), feedback); err != nil {
		t.Fatalf("UpsertFeedback: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestGetFeedbackByInterviewIDNotFoundReturnsNil(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM "feedbacks"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	feedback, err := repo.GetFeedbackByInterviewID(context.Background(), "i-1", "u-1")
	if err != nil {
		t.Fatalf("GetFeedbackByInterviewID: %v", err)
	}
	if feedback != nil {
		t.Errorf("expected nil for missing feedback, got %+v", feedback)
	}
}
