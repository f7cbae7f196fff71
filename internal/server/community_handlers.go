package server

import (
	"guildboard/internal/models"
	"guildboard/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// CreateCommunity handles POST /api/community
func (s *Server) CreateCommunity(c *fiber.Ctx) error {
	var req struct {
		Name        string `json:"name"`
		Slug        string `json:"slug"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Name == "" || req.Slug == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Name and slug are required"))
	}
	if err := validation.ValidateCommunitySlug(req.Slug); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}

	userID, _ := currentUserID(c)
	community := &models.Community{
		Name:            req.Name,
		Slug:            req.Slug,
		Description:     req.Description,
		CreatedByUserID: &userID,
	}
	if err := s.communityRepo.Create(c.UserContext(), community, userID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	community.MemberCount = 1
	return c.Status(fiber.StatusCreated).JSON(community)
}

// GetCommunities handles GET /api/community
func (s *Server) GetCommunities(c *fiber.Ctx) error {
	p := parsePagination(c)
	communities, err := s.communityRepo.List(c.UserContext(), p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(communities)
}

// GetCommunity handles GET /api/community/:id
func (s *Server) GetCommunity(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	community, err := s.communityRepo.GetByID(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(community)
}

// UpdateCommunity handles PUT /api/community/:id (moderators only)
func (s *Server) UpdateCommunity(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	community, err := s.communityRepo.GetByID(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	userID, _ := currentUserID(c)
	if err := s.requireModerator(c, id, userID); err != nil {
		return nil
	}

	if req.Name != nil {
		community.Name = *req.Name
	}
	if req.Description != nil {
		community.Description = *req.Description
	}
	if err := s.communityRepo.Update(c.UserContext(), community); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(community)
}

// actorRequest is the body accepted by optional-auth membership operations.
// user_id is only consulted when no token identity is present.
type actorRequest struct {
	UserID uint `json:"user_id"`
}

// JoinCommunity handles PUT /api/community/:id/join
func (s *Server) JoinCommunity(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req actorRequest
	_ = c.BodyParser(&req)

	actor, err := s.resolveActor(c, req.UserID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	if _, err := s.communityRepo.GetByID(c.UserContext(), id); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	if err := s.communityRepo.Join(c.UserContext(), id, actor.ID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Joined community",
	})
}

// LeaveCommunity handles PUT /api/community/:id/leave
func (s *Server) LeaveCommunity(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req actorRequest
	_ = c.BodyParser(&req)

	actor, err := s.resolveActor(c, req.UserID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	if err := s.communityRepo.Leave(c.UserContext(), id, actor.ID); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Left community",
	})
}

// ToggleNotifications handles PUT /api/community/:id/notifications
func (s *Server) ToggleNotifications(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		UserID  uint  `json:"user_id"`
		Enabled *bool `json:"enabled"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	actor, err := s.resolveActor(c, req.UserID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	// Absent "enabled" flips the current value.
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	} else {
		membership, err := s.communityRepo.GetMembership(c.UserContext(), id, actor.ID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if membership != nil {
			enabled = !membership.Notifications
		}
	}

	if err := s.communityRepo.SetNotifications(c.UserContext(), id, actor.ID, enabled); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"notifications": enabled,
	})
}
