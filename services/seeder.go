package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prepwise/backend/models"
	"github.com/prepwise/backend/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

// DatabaseSeeder handles database seeding operations
type DatabaseSeeder struct {
	repo *repository.GORMRepository
}

// NewDatabaseSeeder creates a new database seeder
func NewDatabaseSeeder(repo *repository.GORMRepository) *DatabaseSeeder {
	return &DatabaseSeeder{repo: repo}
}

// SeedDatabase seeds the database with initial data (idempotent)
func (s *DatabaseSeeder) SeedDatabase() error {
	ctx := context.Background()

	// Hash default password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	users := []models.User{
		{
			Email:    "test@example.com",
			Password: string(hashedPassword),
			FullName: "Test User",
		},
		{
			Email:    "demo@example.com",
			Password: string(hashedPassword),
			FullName: "Demo User",
		},
	}

	// Seed users (idempotent)
	for _, user := range users {
		if err := s.seedUser(ctx, user); err != nil {
			slog.Error("Failed to seed user", "email", user.Email, "error", err)
		}
	}

	testUser, err := s.repo.GetUserByEmail(ctx, "test@example.com")
	if err != nil {
		return fmt.Errorf("failed to get test user: %w", err)
	}
	if testUser == nil {
		return fmt.Errorf("test user not found")
	}

	sampleInterviews := []models.Interview{
		{
			UserID:    testUser.ID,
			Role:      "Frontend Developer",
			Type:      models.InterviewTypeTechnical,
			Level:     "Junior",
			TechStack: models.TechStack{"React", "TypeScript", "TailwindCSS"},
			Questions: datatypes.JSONSlice[string]{
				"What is the virtual DOM and why does React use it?",
				"How do you type component props in TypeScript?",
				"Explain the difference between controlled and uncontrolled inputs.",
				"How would you optimize a slow rendering list?",
				"What does the useEffect dependency array control?",
			},
			Finalized:  true,
			CoverImage: RandomInterviewCover(),
		},
		{
			UserID:    testUser.ID,
			Role:      "Backend Engineer",
			Type:      models.InterviewTypeMixed,
			Level:     "Senior",
			TechStack: models.TechStack{"Go", "PostgreSQL", "Docker"},
			Questions: datatypes.JSONSlice[string]{
				"Describe a production incident you handled and what you changed afterwards.",
				"How do you design a database schema for soft deletes?",
				"When would you reach for a message queue instead of a direct call?",
				"Tell me about a time you disagreed with a technical decision.",
				"How do you approach load testing a new service?",
			},
			Finalized:  true,
			CoverImage: RandomInterviewCover(),
		},
	}

	// Seed sample interviews (idempotent)
	for _, interview := range sampleInterviews {
		if err := s.seedInterview(ctx, interview); err != nil {
			slog.Error("Failed to seed interview", "role", interview.Role, "error", err)
		}
	}

	slog.Info("Database seeding completed successfully")
	return nil
}

// seedUser seeds a single user (idempotent)
func (s *DatabaseSeeder) seedUser(ctx context.Context, user models.User) error {
	existingUser, err := s.repo.GetUserByEmail(ctx, user.Email)
	if err != nil {
		return fmt.Errorf("error checking user %s: %w", user.Email, err)
	}

	if existingUser != nil {
		slog.Info("User already exists, skipping", "email", user.Email)
		return nil
	}

	if err := s.repo.CreateUser(ctx, &user); err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.Email, err)
	}

	slog.Info("Created user", "email", user.Email)
	return nil
}

// seedInterview seeds a single interview, skipping when the user already has
// an interview for the same role and type
func (s *DatabaseSeeder) seedInterview(ctx context.Context, interview models.Interview) error {
	existing, err := s.repo.GetInterviewsByUserID(ctx, interview.UserID)
	if err != nil {
		return fmt.Errorf("error checking interviews: %w", err)
	}

	for _, e := range existing {
		if e.Role == interview.Role && e.Type == interview.Type {
			slog.Info("Interview already exists, skipping", "role", interview.Role, "type", interview.Type)
			return nil
		}
	}

	if err := s.repo.CreateInterview(ctx, &interview); err != nil {
		return fmt.Errorf("failed to create interview %s: %w", interview.Role, err)
	}

	slog.Info("Created interview", "role", interview.Role, "type", interview.Type)
	return nil
}
