package models

import (
	"time"

	"gorm.io/gorm"
)

// JobType enumerates the employment types a listing can advertise.
type JobType string

const (
	JobTypeFullTime   JobType = "full-time"
	JobTypePartTime   JobType = "part-time"
	JobTypeContract   JobType = "contract"
	JobTypeInternship JobType = "internship"
	JobTypeRemote     JobType = "remote"
)

// ValidJobType reports whether t is one of the known job types.
func ValidJobType(t JobType) bool {
	switch t {
	case JobTypeFullTime, JobTypePartTime, JobTypeContract, JobTypeInternship, JobTypeRemote:
		return true
	}
	return false
}

// Job represents a job listing.
type Job struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	Title               string         `gorm:"not null" json:"title"`
	Company             string         `gorm:"not null" json:"company"`
	Location            string         `gorm:"index" json:"location"`
	Type                JobType        `gorm:"type:varchar(20);not null;default:'full-time';index" json:"type"`
	Description         string         `gorm:"type:text;not null" json:"description"`
	SalaryMin           int            `json:"salary_min"`
	SalaryMax           int            `json:"salary_max"`
	ApplicationDeadline *time.Time     `json:"application_deadline,omitempty"`
	PostedByID          uint           `gorm:"not null;index" json:"posted_by_id"`
	PostedBy            *User          `gorm:"foreignKey:PostedByID" json:"posted_by,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`

	// ApplicantCount is not persisted; computed at query time
	ApplicantCount int `gorm:"->" json:"applicant_count"`
}

// ApplicationStatus tracks an application through the hiring pipeline.
type ApplicationStatus string

const (
	ApplicationStatusApplied   ApplicationStatus = "applied"
	ApplicationStatusReviewing ApplicationStatus = "reviewing"
	ApplicationStatusInterview ApplicationStatus = "interview"
	ApplicationStatusRejected  ApplicationStatus = "rejected"
	ApplicationStatusAccepted  ApplicationStatus = "accepted"
)

// ValidApplicationStatus reports whether s is in the fixed status enum.
func ValidApplicationStatus(s ApplicationStatus) bool {
	switch s {
	case ApplicationStatusApplied, ApplicationStatusReviewing, ApplicationStatusInterview,
		ApplicationStatusRejected, ApplicationStatusAccepted:
		return true
	}
	return false
}

// JobApplication records a user's application to a job. The composite unique
// index enforces the one-application-per-user invariant.
type JobApplication struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	JobID       uint              `gorm:"not null;uniqueIndex:idx_application_job_user" json:"job_id"`
	Job         *Job              `gorm:"foreignKey:JobID" json:"job,omitempty"`
	UserID      uint              `gorm:"not null;uniqueIndex:idx_application_job_user" json:"user_id"`
	User        *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status      ApplicationStatus `gorm:"type:varchar(20);not null;default:'applied'" json:"status"`
	Resume      string            `gorm:"type:text" json:"resume"`
	CoverLetter string            `gorm:"type:text" json:"cover_letter"`
	AppliedAt   time.Time         `json:"applied_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// SavedJob records that a user bookmarked a job. Presence of a row is the
// single source of truth for the saved state.
type SavedJob struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	JobID     uint      `gorm:"primaryKey;autoIncrement:false" json:"job_id"`
	Job       *Job      `gorm:"foreignKey:JobID" json:"job,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
