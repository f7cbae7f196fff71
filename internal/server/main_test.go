package server

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"guildboard/internal/auth"
	"guildboard/internal/config"
	"guildboard/internal/models"
	"guildboard/internal/repository"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Experience{},
		&models.Education{},
		&models.Community{},
		&models.CommunityMembership{},
		&models.Post{},
		&models.Like{},
		&models.Comment{},
		&models.Job{},
		&models.JobApplication{},
		&models.SavedJob{},
	); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	cfg := &config.Config{
		JWTSecret: "test-secret-for-handler-tests-0123456789",
		Port:      "0",
		Env:       "test",
	}

	s := &Server{
		config:        cfg,
		db:            db,
		tokens:        auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL()),
		userRepo:      repository.NewUserRepository(db),
		communityRepo: repository.NewCommunityRepository(db),
		postRepo:      repository.NewPostRepository(db),
		jobRepo:       repository.NewJobRepository(db),
	}

	app := fiber.New()
	s.SetupRoutes(app)
	return s, app
}

func createUser(t *testing.T, s *Server, username, email string) (*models.User, string) {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
	}
	if err := s.db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return user, token
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()

	resp, err := app.Test(req, int(5*time.Second/time.Millisecond))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	var body map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			// Not every response is a JSON object; callers only use body
			// when they expect one.
			body = nil
		}
	}
	return resp, body
}
