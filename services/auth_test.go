package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prepwise/backend/models"
	"github.com/prepwise/backend/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newAuthService(t *testing.T) (*AuthService, sqlmock.Sqlmock) {
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

	return NewAuthService(repository.NewGORMRepository(gormDB), "test-secret"), mock
}

func testUser(id, email string) *models.User {
	return &models.User{ID: id, Email: email, FullName: "Test User"}
}

func userRow(id, email, password string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "password", "full_name"}).
		AddRow(id, email, password, "Test User")
}

func TestAccessTokenRoundTrip(t *testing.T) {
	auth, mock := newAuthService(t)

	token, err := auth.generateAccessToken(testUser("user-1", "test@example.com"))
	if err != nil {
		t.Fatalf("generateAccessToken: %v", err)
	}

	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(userRow("user-1", "test@example.com", "hash"))

	user, err := auth.VerifyAccessToken(context.Background(), token)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if user.ID != "user-1" || user.Email != "test@example.com" {
		t.Errorf("unexpected user from token: %+v", user)
	}
}

func TestVerifyAccessTokenRejectsWrongSecret(t *testing.T) {
	auth, _ := newAuthService(t)
	other, _ := newAuthService(t)
	other.jwtSecret = []byte("different-secret")

	token, err := other.generateAccessToken(testUser("user-1", "test@example.com"))
	if err != nil {
		t.Fatalf("generateAccessToken: %v", err)
	}

	if _, err := auth.VerifyAccessToken(context.Background(), token); err == nil {
		t.Error("expected verification to fail for a token signed with another secret")
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	auth, mock := newAuthService(t)

	hashed, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(userRow("user-1", "test@example.com", string(hashed)))

	if _, err := auth.Login(context.Background(), "test@example.com", "wrong-password"); err == nil {
		t.Error("expected login to fail with a wrong password")
	}
}

func TestLoginRejectsUnknownUser(t *testing.T) {
	auth, mock := newAuthService(t)

	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := auth.Login(context.Background(), "ghost@example.com", "password"); err == nil {
		t.Error("expected login to fail for an unknown email")
	}
}

func TestHashTokenIsDeterministic(t *testing.T) {
	auth, _ := newAuthService(t)

	first := auth.hashToken("refresh-token")
	second := auth.hashToken("refresh-token")
	if first != second {
		t.Error("expected identical hashes for the same token")
	}
	if first == auth.hashToken("other-token") {
		t.Error("expected different hashes for different tokens")
	}
}

func TestSetAuthCookies(t *testing.T) {
	auth, _ := newAuthService(t)

	rec := httptest.NewRecorder()
	auth.SetAuthCookies(rec, "access", "refresh")

	cookies := rec.Result().Cookies()
	names := map[string]string{}
	for _, c := range cookies {
		names[c.Name] = c.Value
		if !c.HttpOnly {
			t.Errorf("cookie %s must be HTTP-only", c.Name)
		}
	}
	if names["access_token"] != "access" || names["refresh_token"] != "refresh" {
		t.Errorf("unexpected cookies: %v", names)
	}
}

func TestSetAuthCookiesSkipsEmptyRefresh(t *testing.T) {
	auth, _ := newAuthService(t)

	rec := httptest.NewRecorder()
	auth.SetAuthCookies(rec, "access", "")

	for _, c := range rec.Result().Cookies() {
		if c.Name == "refresh_token" {
			t.Error("refresh cookie must not be set when the token is empty")
		}
	}
}

func TestMiddlewareRejectsMissingCookies(t *testing.T) {
	auth, _ := newAuthService(t)

	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run for unauthenticated requests")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/interviews", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}
