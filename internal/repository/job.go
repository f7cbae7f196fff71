package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"guildboard/internal/cache"
	"guildboard/internal/models"
	"guildboard/internal/observability"

	"gorm.io/gorm"
)

// JobFilter holds the query parameters for listing jobs.
type JobFilter struct {
	Search   string
	Type     string
	Location string
	Sort     string
	Limit    int
	Offset   int
}

// JobRepository defines persistence operations for job listings,
// applications, and saved jobs.
type JobRepository interface {
	Create(ctx context.Context, job *models.Job) error
	GetByID(ctx context.Context, id uint) (*models.Job, error)
	List(ctx context.Context, filter JobFilter) ([]*models.Job, int64, error)
	Update(ctx context.Context, job *models.Job) error
	Delete(ctx context.Context, id uint) error
	Apply(ctx context.Context, application *models.JobApplication) error
	GetApplication(ctx context.Context, jobID, userID uint) (*models.JobApplication, error)
	ListApplications(ctx context.Context, jobID uint) ([]models.JobApplication, error)
	ListApplicationsByUser(ctx context.Context, userID uint) ([]models.JobApplication, error)
	UpdateApplicationStatus(ctx context.Context, jobID, userID uint, status models.ApplicationStatus) error
	ToggleSaved(ctx context.Context, userID, jobID uint) (bool, error)
	ListSaved(ctx context.Context, userID uint) ([]models.SavedJob, error)
}

type jobRepository struct {
	db *gorm.DB
}

// NewJobRepository returns a new JobRepository implementation.
func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) Create(ctx context.Context, job *models.Job) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *jobRepository) GetByID(ctx context.Context, id uint) (*models.Job, error) {
	var job models.Job
	key := cache.JobKey(id)

	err := cache.Aside(ctx, key, &job, cache.JobTTL, func() error {
		if err := r.withApplicantCount(r.db.WithContext(ctx)).
			Preload("PostedBy").
			First(&job, "jobs.id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Job", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) List(ctx context.Context, filter JobFilter) ([]*models.Job, int64, error) {
	defer observability.TrackQuery("list", "jobs")()

	q := r.db.WithContext(ctx).Model(&models.Job{})

	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		q = q.Where(
			"LOWER(jobs.title) LIKE ? OR LOWER(jobs.company) LIKE ? OR LOWER(jobs.description) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if filter.Type != "" {
		q = q.Where("jobs.type = ?", filter.Type)
	}
	if l := strings.TrimSpace(filter.Location); l != "" {
		q = q.Where("LOWER(jobs.location) LIKE ?", "%"+strings.ToLower(l)+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	switch filter.Sort {
	case "oldest":
		q = q.Order("jobs.created_at ASC")
	case "deadline":
		q = q.Order("jobs.application_deadline ASC NULLS LAST")
	default:
		q = q.Order("jobs.created_at DESC")
	}

	var jobs []*models.Job
	if err := q.
		Select("jobs.*, (SELECT COUNT(*) FROM job_applications a WHERE a.job_id = jobs.id) AS applicant_count").
		Preload("PostedBy").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&jobs).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	return jobs, total, nil
}

func (r *jobRepository) Update(ctx context.Context, job *models.Job) error {
	if err := r.db.WithContext(ctx).Save(job).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateJob(ctx, job.ID)
	return nil
}

func (r *jobRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", id).Delete(&models.JobApplication{}).Error; err != nil {
			return err
		}
		if err := tx.Where("job_id = ?", id).Delete(&models.SavedJob{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Job{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateJob(ctx, id)
	return nil
}

// Apply records a job application. A second application by the same user is a
// conflict, as is applying after the deadline.
func (r *jobRepository) Apply(ctx context.Context, application *models.JobApplication) error {
	defer observability.TrackQuery("apply", "job_applications")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job models.Job
		if err := tx.First(&job, application.JobID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Job", application.JobID)
			}
			return models.NewInternalError(err)
		}

		if job.ApplicationDeadline != nil && job.ApplicationDeadline.Before(time.Now()) {
			return models.NewConflictError("Application deadline has passed")
		}

		application.Status = models.ApplicationStatusApplied
		application.AppliedAt = time.Now()
		if err := tx.Create(application).Error; err != nil {
			if isUniqueConstraintError(err) {
				return models.NewConflictError("Already applied to this job")
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			observability.ToggleOperations.WithLabelValues("apply", "rejected").Inc()
			return appErr
		}
		observability.ToggleOperations.WithLabelValues("apply", "error").Inc()
		return models.NewInternalError(err)
	}
	observability.ToggleOperations.WithLabelValues("apply", "ok").Inc()
	cache.InvalidateJob(ctx, application.JobID)
	return nil
}

func (r *jobRepository) GetApplication(ctx context.Context, jobID, userID uint) (*models.JobApplication, error) {
	var application models.JobApplication
	err := r.db.WithContext(ctx).
		Where("job_id = ? AND user_id = ?", jobID, userID).
		First(&application).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &application, nil
}

func (r *jobRepository) ListApplications(ctx context.Context, jobID uint) ([]models.JobApplication, error) {
	var applications []models.JobApplication
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("job_id = ?", jobID).
		Order("applied_at ASC").
		Find(&applications).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return applications, nil
}

func (r *jobRepository) ListApplicationsByUser(ctx context.Context, userID uint) ([]models.JobApplication, error) {
	var applications []models.JobApplication
	if err := r.db.WithContext(ctx).
		Preload("Job").
		Where("user_id = ?", userID).
		Order("applied_at DESC").
		Find(&applications).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return applications, nil
}

func (r *jobRepository) UpdateApplicationStatus(ctx context.Context, jobID, userID uint, status models.ApplicationStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.JobApplication{}).
		Where("job_id = ? AND user_id = ?", jobID, userID).
		Update("status", status)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Application", userID)
	}
	return nil
}

// ToggleSaved flips the saved state of a job for a user and returns the
// resulting state: true when the job is now saved, false when unsaved.
func (r *jobRepository) ToggleSaved(ctx context.Context, userID, jobID uint) (bool, error) {
	defer observability.TrackQuery("save_toggle", "saved_jobs")()

	var saved bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND job_id = ?", userID, jobID).
			Delete(&models.SavedJob{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			saved = false
			return nil
		}
		if err := tx.Create(&models.SavedJob{UserID: userID, JobID: jobID}).Error; err != nil {
			// Lost a race against a concurrent save; the row exists, which is
			// the state we would have created.
			if isUniqueConstraintError(err) {
				saved = true
				return nil
			}
			return err
		}
		saved = true
		return nil
	})
	if err != nil {
		observability.ToggleOperations.WithLabelValues("save", "error").Inc()
		return false, models.NewInternalError(err)
	}
	observability.ToggleOperations.WithLabelValues("save", "ok").Inc()
	return saved, nil
}

func (r *jobRepository) ListSaved(ctx context.Context, userID uint) ([]models.SavedJob, error) {
	var saved []models.SavedJob
	if err := r.db.WithContext(ctx).
		Preload("Job").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&saved).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return saved, nil
}

func (r *jobRepository) withApplicantCount(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Job{}).
		Select("jobs.*, (SELECT COUNT(*) FROM job_applications a WHERE a.job_id = jobs.id) AS applicant_count")
}
