package repository

import (
	"testing"

	"guildboard/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
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

	return db
}

func createTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		Username: gofakeit.Username(),
		Email:    gofakeit.Email(),
		Password: "hashed-password",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func createTestCommunity(t *testing.T, db *gorm.DB, creatorID uint) *models.Community {
	t.Helper()
	repo := NewCommunityRepository(db)
	community := &models.Community{
		Name: gofakeit.Company(),
		Slug: gofakeit.LetterN(12),
	}
	if err := repo.Create(t.Context(), community, creatorID); err != nil {
		t.Fatalf("create community: %v", err)
	}
	return community
}

func createTestJob(t *testing.T, db *gorm.DB, posterID uint) *models.Job {
	t.Helper()
	job := &models.Job{
		Title:       gofakeit.JobTitle(),
		Company:     gofakeit.Company(),
		Location:    gofakeit.City(),
		Type:        models.JobTypeFullTime,
		Description: gofakeit.Paragraph(1, 3, 10, " "),
		PostedByID:  posterID,
	}
	if err := db.Create(job).Error; err != nil {
		t.Fatalf("create job: %v", err)
	}
	return job
}
