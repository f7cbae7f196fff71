package repository

import (
	"errors"
	"testing"
	"time"

	"guildboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyOncePerUser(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewJobRepository(db)
	poster := createTestUser(t, db)
	applicant := createTestUser(t, db)
	job := createTestJob(t, db, poster.ID)

	require.NoError(t, repo.Apply(t.Context(), &models.JobApplication{
		JobID:  job.ID,
		UserID: applicant.ID,
		Resume: "resume text",
	}))

	err := repo.Apply(t.Context(), &models.JobApplication{
		JobID:  job.ID,
		UserID: applicant.ID,
	})
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Message, "Already applied")

	application, err := repo.GetApplication(t.Context(), job.ID, applicant.ID)
	require.NoError(t, err)
	require.NotNil(t, application)
	assert.Equal(t, models.ApplicationStatusApplied, application.Status)
	assert.False(t, application.AppliedAt.IsZero())
}

func TestApplyAfterDeadline(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewJobRepository(db)
	poster := createTestUser(t, db)
	applicant := createTestUser(t, db)
	job := createTestJob(t, db, poster.ID)

	past := time.Now().Add(-24 * time.Hour)
	job.ApplicationDeadline = &past
	require.NoError(t, db.Save(job).Error)

	err := repo.Apply(t.Context(), &models.JobApplication{
		JobID:  job.ID,
		UserID: applicant.ID,
	})
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Message, "deadline")
}

func TestToggleSavedFlipsState(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewJobRepository(db)
	poster := createTestUser(t, db)
	user := createTestUser(t, db)
	job := createTestJob(t, db, poster.ID)

	saved, err := repo.ToggleSaved(t.Context(), user.ID, job.ID)
	require.NoError(t, err)
	assert.True(t, saved)

	saved, err = repo.ToggleSaved(t.Context(), user.ID, job.ID)
	require.NoError(t, err)
	assert.False(t, saved)

	saved, err = repo.ToggleSaved(t.Context(), user.ID, job.ID)
	require.NoError(t, err)
	assert.True(t, saved)

	list, err := repo.ListSaved(t.Context(), user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, job.ID, list[0].JobID)
}

func TestListFiltersAndCounts(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewJobRepository(db)
	poster := createTestUser(t, db)

	jobs := []models.Job{
		{Title: "Backend Engineer", Company: "Acme", Location: "Berlin", Type: models.JobTypeFullTime, Description: "Go services", PostedByID: poster.ID},
		{Title: "Frontend Engineer", Company: "Acme", Location: "Berlin", Type: models.JobTypeContract, Description: "UI work", PostedByID: poster.ID},
		{Title: "Data Analyst", Company: "Initech", Location: "Remote", Type: models.JobTypeFullTime, Description: "dashboards", PostedByID: poster.ID},
	}
	for i := range jobs {
		require.NoError(t, db.Create(&jobs[i]).Error)
	}

	got, total, err := repo.List(t.Context(), JobFilter{Search: "engineer", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, got, 2)

	got, total, err = repo.List(t.Context(), JobFilter{Type: string(models.JobTypeFullTime), Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	got, total, err = repo.List(t.Context(), JobFilter{Location: "berlin", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	// Total reflects the full filtered set even when the page is smaller.
	got, total, err = repo.List(t.Context(), JobFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, got, 2)
}

func TestUpdateApplicationStatus(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewJobRepository(db)
	poster := createTestUser(t, db)
	applicant := createTestUser(t, db)
	job := createTestJob(t, db, poster.ID)

	require.NoError(t, repo.Apply(t.Context(), &models.JobApplication{
		JobID:  job.ID,
		UserID: applicant.ID,
	}))

	require.NoError(t, repo.UpdateApplicationStatus(t.Context(), job.ID, applicant.ID, models.ApplicationStatusInterview))

	application, err := repo.GetApplication(t.Context(), job.ID, applicant.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusInterview, application.Status)

	err = repo.UpdateApplicationStatus(t.Context(), job.ID, poster.ID, models.ApplicationStatusRejected)
	require.Error(t, err)
}

func TestJobDeleteRemovesApplications(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewJobRepository(db)
	poster := createTestUser(t, db)
	applicant := createTestUser(t, db)
	job := createTestJob(t, db, poster.ID)

	require.NoError(t, repo.Apply(t.Context(), &models.JobApplication{JobID: job.ID, UserID: applicant.ID}))
	_, err := repo.ToggleSaved(t.Context(), applicant.ID, job.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(t.Context(), job.ID))

	_, err = repo.GetByID(t.Context(), job.ID)
	require.Error(t, err)

	var applications, saved int64
	require.NoError(t, db.Model(&models.JobApplication{}).Where("job_id = ?", job.ID).Count(&applications).Error)
	require.NoError(t, db.Model(&models.SavedJob{}).Where("job_id = ?", job.ID).Count(&saved).Error)
	assert.Zero(t, applications)
	assert.Zero(t, saved)
}
