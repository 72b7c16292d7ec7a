package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prepwise/backend/models"
	"gorm.io/gorm"
)

// DefaultDedupWindow is the span within which a repeat create request for the
// same (user, role, type) triple is treated as a duplicate submission. The
// value is hand-tuned to absorb double form submits.
const DefaultDedupWindow = 60 * time.Second

// errDuplicateFound aborts the create transaction when the in-transaction
// re-check observes a qualifying duplicate. It never escapes this package.
var errDuplicateFound = errors.New("duplicate interview found")

// CreateInterviewDeduped creates an interview unless an interview with the
// same (user, role, type) triple was created within the dedup window, in which
// case the existing identifier is returned with duplicate=true and no row is
// written.
//
// The check runs twice: once as a cheap fast path, then again inside the same
// transaction that performs the insert, closing the read-then-write race
// window between the initial check and the create. This is best-effort
// deduplication, not a uniqueness constraint: concurrent writers outside the
// transaction's isolation guarantees can still produce duplicates.
func (r *GORMRepository) CreateInterviewDeduped(ctx context.Context, interview *models.Interview, window time.Duration) (string, bool, error) {
	if window <= 0 {
		window = DefaultDedupWindow
	}

	// Fast path: skip the transaction entirely when a fresh duplicate is
	// already visible
	existing, err := r.latestMatchingInterview(r.db.WithContext(ctx), interview)
	if err != nil {
		return "", false, err
	}
	if existing != nil && time.Since(existing.CreatedAt) < window {
		slog.Info("Duplicate interview request, reusing existing record",
			"interview_id", existing.ID, "user_id", interview.UserID, "role", interview.Role)
		return existing.ID, true, nil
	}

	if interview.ID == "" {
		interview.ID = uuid.New().String()
	}
	interview.CreatedAt = time.Now()

	var duplicateID string
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := r.latestMatchingInterview(tx, interview)
		if err != nil {
			return err
		}
		if existing != nil && time.Until(existing.CreatedAt.Add(window)) > 0 {
			duplicateID = existing.ID
			return errDuplicateFound
		}
		return tx.Create(interview).Error
	})

	if errors.Is(err, errDuplicateFound) {
		slog.Info("Duplicate interview appeared during create, reusing existing record",
			"interview_id", duplicateID, "user_id", interview.UserID, "role", interview.Role)
		return duplicateID, true, nil
	}
	if err != nil {
		slog.Error("Failed to create interview", "error", err, "user_id", interview.UserID, "role", interview.Role)
		return "", false, err
	}

	slog.Info("Interview created", "interview_id", interview.ID, "user_id", interview.UserID, "role", interview.Role)
	return interview.ID, false, nil
}

func (r *GORMRepository) latestMatchingInterview(tx *gorm.DB, interview *models.Interview) (*models.Interview, error) {
	var existing models.Interview
	err := tx.
		Where("user_id = ? AND role = ? AND type = ?", interview.UserID, interview.Role, interview.Type).
		Order("created_at DESC").
		First(&existing).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to query for duplicate interview", "error", err, "user_id", interview.UserID)
		return nil, err
	}
	return &existing, nil
}
