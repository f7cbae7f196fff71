package server

import (
	"time"

	"guildboard/internal/models"
	"guildboard/internal/repository"

	"github.com/gofiber/fiber/v2"
)

type jobRequest struct {
	Title               string     `json:"title"`
	Company             string     `json:"company"`
	Location            string     `json:"location"`
	Type                string     `json:"type"`
	Description         string     `json:"description"`
	SalaryMin           int        `json:"salary_min"`
	SalaryMax           int        `json:"salary_max"`
	ApplicationDeadline *time.Time `json:"application_deadline"`
}

func (r *jobRequest) validate() error {
	if r.Title == "" || r.Company == "" || r.Description == "" {
		return models.NewValidationError("Title, company, and description are required")
	}
	if r.Type != "" && !models.ValidJobType(models.JobType(r.Type)) {
		return models.NewValidationError("Unknown job type: " + r.Type)
	}
	if r.SalaryMin < 0 || (r.SalaryMax > 0 && r.SalaryMax < r.SalaryMin) {
		return models.NewValidationError("Invalid salary range")
	}
	return nil
}

// CreateJob handles POST /api/job
func (s *Server) CreateJob(c *fiber.Ctx) error {
	var req jobRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := req.validate(); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	userID, _ := currentUserID(c)
	jobType := models.JobType(req.Type)
	if jobType == "" {
		jobType = models.JobTypeFullTime
	}

	job := &models.Job{
		Title:               req.Title,
		Company:             req.Company,
		Location:            req.Location,
		Type:                jobType,
		Description:         req.Description,
		SalaryMin:           req.SalaryMin,
		SalaryMax:           req.SalaryMax,
		ApplicationDeadline: req.ApplicationDeadline,
		PostedByID:          userID,
	}
	if err := s.jobRepo.Create(c.UserContext(), job); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.Status(fiber.StatusCreated).JSON(job)
}

// GetJobs handles GET /api/job with search, filter, sort, and pagination.
func (s *Server) GetJobs(c *fiber.Ctx) error {
	p := parsePagination(c)

	if t := c.Query("type"); t != "" && !models.ValidJobType(models.JobType(t)) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unknown job type: "+t))
	}

	filter := repository.JobFilter{
		Search:   c.Query("search"),
		Type:     c.Query("type"),
		Location: c.Query("location"),
		Sort:     c.Query("sort"),
		Limit:    p.Limit,
		Offset:   p.Offset,
	}

	jobs, total, err := s.jobRepo.List(c.UserContext(), filter)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{
		"pagination": paginationMeta(p, total),
		"data":       jobs,
	})
}

// GetJob handles GET /api/job/:id
func (s *Server) GetJob(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	job, err := s.jobRepo.GetByID(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(job)
}

// requireJobPoster loads the job and checks the actor posted it, writing the
// error response itself on failure.
func (s *Server) requireJobPoster(c *fiber.Ctx, jobID uint) (*models.Job, error) {
	job, err := s.jobRepo.GetByID(c.UserContext(), jobID)
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusInternalServerError, err)
		return nil, errResponseWritten
	}

	userID, _ := currentUserID(c)
	if job.PostedByID != userID {
		_ = models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Only the job poster can do this"))
		return nil, errResponseWritten
	}
	return job, nil
}

// UpdateJob handles PUT /api/job/:id (poster only)
func (s *Server) UpdateJob(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	job, err := s.requireJobPoster(c, id)
	if err != nil {
		return nil
	}

	var req jobRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := req.validate(); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	job.Title = req.Title
	job.Company = req.Company
	job.Location = req.Location
	job.Description = req.Description
	job.SalaryMin = req.SalaryMin
	job.SalaryMax = req.SalaryMax
	job.ApplicationDeadline = req.ApplicationDeadline
	if req.Type != "" {
		job.Type = models.JobType(req.Type)
	}

	if err := s.jobRepo.Update(c.UserContext(), job); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(job)
}

// DeleteJob handles DELETE /api/job/:id (poster only)
func (s *Server) DeleteJob(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, err := s.requireJobPoster(c, id); err != nil {
		return nil
	}

	if err := s.jobRepo.Delete(c.UserContext(), id); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Job deleted",
	})
}

// ApplyToJob handles PUT /api/job/:id/apply
func (s *Server) ApplyToJob(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Resume      string `json:"resume"`
		CoverLetter string `json:"cover_letter"`
	}
	_ = c.BodyParser(&req)

	userID, _ := currentUserID(c)
	application := &models.JobApplication{
		JobID:       id,
		UserID:      userID,
		Resume:      req.Resume,
		CoverLetter: req.CoverLetter,
	}
	if err := s.jobRepo.Apply(c.UserContext(), application); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}
	return c.JSON(application)
}

// ToggleSaveJob handles PUT /api/job/:id/save
func (s *Server) ToggleSaveJob(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, err := s.jobRepo.GetByID(c.UserContext(), id); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	userID, _ := currentUserID(c)
	saved, err := s.jobRepo.ToggleSaved(c.UserContext(), userID, id)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(fiber.Map{"saved": saved})
}

// UpdateApplicationStatus handles PUT /api/job/:id/application/:user_id
// (poster only)
func (s *Server) UpdateApplicationStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	applicantID, err := s.parseID(c, "user_id")
	if err != nil {
		return nil
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	status := models.ApplicationStatus(req.Status)
	if !models.ValidApplicationStatus(status) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unknown application status: "+req.Status))
	}

	if _, err := s.requireJobPoster(c, id); err != nil {
		return nil
	}

	if err := s.jobRepo.UpdateApplicationStatus(c.UserContext(), id, applicantID, status); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"status":  status,
	})
}
