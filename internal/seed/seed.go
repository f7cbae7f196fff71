// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"guildboard/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers       int
	NumCommunities int
	NumJobs        int
	PostsPerUser   int
	ShouldClean    bool
}

// DemoPassword is the plaintext password every seeded user gets.
const DemoPassword = "password1"

var communityThemes = []string{
	"Backend", "Frontend", "DevOps", "Cloud", "Data", "Security",
	"Mobile", "Gaming", "Freelance", "Career Switchers", "Remote Work",
	"Startups", "Open Source", "Interview Prep", "Design",
}

// Seed populates the database with demo data.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Seeding %d users, %d communities, %d jobs...",
		opts.NumUsers, opts.NumCommunities, opts.NumJobs)

	gofakeit.Seed(time.Now().UnixNano())

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway")
		}
	}

	users, err := createUsers(db, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("created %d users", len(users))

	communities, err := createCommunities(db, users, opts.NumCommunities)
	if err != nil {
		return fmt.Errorf("failed to create communities: %w", err)
	}
	log.Printf("created %d communities", len(communities))

	if err := createMemberships(db, users, communities); err != nil {
		return fmt.Errorf("failed to create memberships: %w", err)
	}

	if err := createPosts(db, users, communities, opts.PostsPerUser); err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}

	jobs, err := createJobs(db, users, opts.NumJobs)
	if err != nil {
		return fmt.Errorf("failed to create jobs: %w", err)
	}
	log.Printf("created %d jobs", len(jobs))

	if err := createApplications(db, users, jobs); err != nil {
		return fmt.Errorf("failed to create applications: %w", err)
	}

	log.Println("Seeding complete")
	return nil
}

func clearData(db *gorm.DB) error {
	tables := []any{
		&models.JobApplication{}, &models.SavedJob{}, &models.Job{},
		&models.Like{}, &models.Comment{}, &models.Post{},
		&models.CommunityMembership{}, &models.Community{},
		&models.Experience{}, &models.Education{}, &models.User{},
	}
	for _, table := range tables {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Unscoped().Delete(table).Error; err != nil {
			return err
		}
	}
	return nil
}

func createUsers(db *gorm.DB, n int) ([]models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		name := gofakeit.Person()
		user := models.User{
			Username: fmt.Sprintf("%s%d", strings.ToLower(name.FirstName), gofakeit.Number(10, 9999)),
			Email:    fmt.Sprintf("seed-%d-%s", i, gofakeit.Email()),
			Password: string(hashed),
			Bio:      gofakeit.Sentence(12),
			Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
			Skills:   randomSkills(),
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, err
		}

		// About half the users get a work history entry.
		if gofakeit.Bool() {
			from := gofakeit.DateRange(
				time.Now().AddDate(-8, 0, 0), time.Now().AddDate(-1, 0, 0))
			exp := models.Experience{
				UserID:      user.ID,
				Title:       gofakeit.JobTitle(),
				Company:     gofakeit.Company(),
				Location:    gofakeit.City(),
				From:        from,
				Current:     true,
				Description: gofakeit.Sentence(15),
			}
			if err := db.Create(&exp).Error; err != nil {
				return nil, err
			}
		}

		users = append(users, user)
	}
	return users, nil
}

func randomSkills() []string {
	all := []string{
		"Go", "PostgreSQL", "Redis", "Docker", "Kubernetes", "TypeScript",
		"React", "gRPC", "Terraform", "Python", "Kafka", "AWS",
	}
	rand.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	return all[:gofakeit.Number(2, 5)]
}

func createCommunities(db *gorm.DB, users []models.User, n int) ([]models.Community, error) {
	if n > len(communityThemes) {
		n = len(communityThemes)
	}

	communities := make([]models.Community, 0, n)
	for i := 0; i < n; i++ {
		theme := communityThemes[i]
		creator := users[gofakeit.Number(0, len(users)-1)]
		community := models.Community{
			Name:            theme + " Guild",
			Slug:            strings.ReplaceAll(strings.ToLower(theme), " ", "-"),
			Description:     gofakeit.Sentence(14),
			CreatedByUserID: &creator.ID,
		}
		if err := db.Create(&community).Error; err != nil {
			return nil, err
		}
		membership := models.CommunityMembership{
			CommunityID:   community.ID,
			UserID:        creator.ID,
			Role:          models.CommunityRoleModerator,
			Notifications: true,
		}
		if err := db.Create(&membership).Error; err != nil {
			return nil, err
		}
		communities = append(communities, community)
	}
	return communities, nil
}

func createMemberships(db *gorm.DB, users []models.User, communities []models.Community) error {
	for _, user := range users {
		for _, community := range communities {
			if gofakeit.Number(0, 2) != 0 {
				continue
			}
			membership := models.CommunityMembership{
				CommunityID:   community.ID,
				UserID:        user.ID,
				Role:          models.CommunityRoleMember,
				Notifications: gofakeit.Bool(),
			}
			// Creator memberships already exist; skip duplicates quietly.
			if err := db.Where("community_id = ? AND user_id = ?", community.ID, user.ID).
				FirstOrCreate(&membership).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func createPosts(db *gorm.DB, users []models.User, communities []models.Community, perUser int) error {
	if len(communities) == 0 {
		return nil
	}
	for _, user := range users {
		for i := 0; i < perUser; i++ {
			community := communities[gofakeit.Number(0, len(communities)-1)]
			post := models.Post{
				Title:       gofakeit.Sentence(5),
				Content:     gofakeit.Paragraph(1, 3, 8, "\n"),
				CommunityID: community.ID,
				UserID:      &user.ID,
				AuthorName:  user.Username,
				CreatedAt:   gofakeit.DateRange(time.Now().AddDate(0, -3, 0), time.Now()),
			}
			if err := db.Create(&post).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func createJobs(db *gorm.DB, users []models.User, n int) ([]models.Job, error) {
	types := []models.JobType{
		models.JobTypeFullTime, models.JobTypePartTime, models.JobTypeContract,
		models.JobTypeInternship, models.JobTypeRemote,
	}

	jobs := make([]models.Job, 0, n)
	for i := 0; i < n; i++ {
		poster := users[gofakeit.Number(0, len(users)-1)]
		salaryMin := gofakeit.Number(40, 120) * 1000
		job := models.Job{
			Title:       gofakeit.JobTitle(),
			Company:     gofakeit.Company(),
			Location:    gofakeit.City(),
			Type:        types[gofakeit.Number(0, len(types)-1)],
			Description: gofakeit.Paragraph(2, 4, 10, "\n"),
			SalaryMin:   salaryMin,
			SalaryMax:   salaryMin + gofakeit.Number(10, 60)*1000,
			PostedByID:  poster.ID,
		}
		if gofakeit.Bool() {
			deadline := gofakeit.DateRange(time.Now(), time.Now().AddDate(0, 2, 0))
			job.ApplicationDeadline = &deadline
		}
		if err := db.Create(&job).Error; err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func createApplications(db *gorm.DB, users []models.User, jobs []models.Job) error {
	statuses := []models.ApplicationStatus{
		models.ApplicationStatusApplied, models.ApplicationStatusReviewing,
		models.ApplicationStatusInterview, models.ApplicationStatusRejected,
	}

	for _, job := range jobs {
		for _, user := range users {
			if user.ID == job.PostedByID || gofakeit.Number(0, 4) != 0 {
				continue
			}
			application := models.JobApplication{
				JobID:       job.ID,
				UserID:      user.ID,
				Status:      statuses[gofakeit.Number(0, len(statuses)-1)],
				Resume:      gofakeit.Paragraph(1, 2, 8, "\n"),
				CoverLetter: gofakeit.Sentence(20),
				AppliedAt:   gofakeit.DateRange(time.Now().AddDate(0, -1, 0), time.Now()),
			}
			if err := db.Create(&application).Error; err != nil {
				return err
			}
			if gofakeit.Bool() {
				saved := models.SavedJob{UserID: user.ID, JobID: job.ID}
				if err := db.Create(&saved).Error; err != nil {
					return err
				}
			}
		}
	}
	return nil
}
