package server

import (
	"guildboard/internal/models"
	"guildboard/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// GetUserProfile handles GET /api/users/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userRepo.GetProfile(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req struct {
		Username   *string             `json:"username"`
		Bio        *string             `json:"bio"`
		Avatar     *string             `json:"avatar"`
		Skills     *[]string           `json:"skills"`
		Experience []models.Experience `json:"experience"`
		Education  []models.Education  `json:"education"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Username != nil {
		if err := validation.ValidateUsername(*req.Username); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(err.Error()))
		}
		user.Username = *req.Username
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Avatar != nil {
		user.Avatar = *req.Avatar
	}
	if req.Skills != nil {
		user.Skills = *req.Skills
	}

	if err := s.userRepo.Update(c.UserContext(), user); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	if req.Experience != nil {
		if err := s.userRepo.ReplaceExperience(c.UserContext(), user.ID, req.Experience); err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
	}
	if req.Education != nil {
		if err := s.userRepo.ReplaceEducation(c.UserContext(), user.ID, req.Education); err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
	}

	updated, err := s.userRepo.GetProfile(c.UserContext(), user.ID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(updated)
}

// GetMySavedJobs handles GET /api/users/me/jobs/saved
func (s *Server) GetMySavedJobs(c *fiber.Ctx) error {
	userID, _ := currentUserID(c)
	saved, err := s.jobRepo.ListSaved(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(saved)
}

// GetMyApplications handles GET /api/users/me/jobs/applied
func (s *Server) GetMyApplications(c *fiber.Ctx) error {
	userID, _ := currentUserID(c)
	applications, err := s.jobRepo.ListApplicationsByUser(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(applications)
}
