package server

import (
	"guildboard/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/community/:id/posts. Authenticated users post
// under their own identity; anonymous clients must supply an author_name.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	communityID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title      string `json:"title"`
		Content    string `json:"content"`
		UserID     uint   `json:"user_id"`
		AuthorName string `json:"author_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Title == "" || req.Content == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Title and content are required"))
	}

	if _, err := s.communityRepo.GetByID(c.UserContext(), communityID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	post := &models.Post{
		Title:       req.Title,
		Content:     req.Content,
		CommunityID: communityID,
	}

	actor, actorErr := s.resolveActor(c, req.UserID)
	switch {
	case actorErr == nil:
		post.UserID = &actor.ID
		post.AuthorName = actor.Username
	case req.UserID != 0:
		// A supplied user id must resolve; never downgrade to anonymous.
		return models.RespondWithError(c, fiber.StatusUnauthorized, actorErr)
	case req.AuthorName != "":
		post.AuthorName = req.AuthorName
	default:
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("author_name is required for anonymous posts"))
	}

	if err := s.postRepo.Create(c.UserContext(), post); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetCommunityPosts handles GET /api/community/:id/posts
func (s *Server) GetCommunityPosts(c *fiber.Ctx) error {
	communityID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	p := parsePagination(c)
	posts, err := s.postRepo.ListByCommunity(c.UserContext(), communityID, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(posts)
}

// DeletePost handles DELETE /api/community/posts/:postId. Allowed for the post
// author and for moderators of the post's community.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	post, err := s.postRepo.GetByID(c.UserContext(), postID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	userID, _ := currentUserID(c)
	isAuthor := post.UserID != nil && *post.UserID == userID
	if !isAuthor {
		isMod, err := s.communityRepo.IsModerator(c.UserContext(), post.CommunityID, userID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if !isMod {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Only the author or a community moderator can delete this post"))
		}
	}

	if err := s.postRepo.Delete(c.UserContext(), postID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Post deleted",
	})
}

// LikePost handles POST /api/community/posts/:postId/like
func (s *Server) LikePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	var req actorRequest
	_ = c.BodyParser(&req)

	actor, err := s.resolveActor(c, req.UserID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	if _, err := s.postRepo.GetByID(c.UserContext(), postID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	count, err := s.postRepo.Like(c.UserContext(), actor.ID, postID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}
	return c.JSON(fiber.Map{"like_count": count})
}

// UnlikePost handles DELETE /api/community/posts/:postId/like
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	var req actorRequest
	_ = c.BodyParser(&req)

	actor, err := s.resolveActor(c, req.UserID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	count, err := s.postRepo.Unlike(c.UserContext(), actor.ID, postID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}
	return c.JSON(fiber.Map{"like_count": count})
}

// CreateComment handles POST /api/community/posts/:postId/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	var req struct {
		Content    string `json:"content"`
		UserID     uint   `json:"user_id"`
		AuthorName string `json:"author_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Content == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Content is required"))
	}

	if _, err := s.postRepo.GetByID(c.UserContext(), postID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	comment := &models.Comment{
		PostID:  postID,
		Content: req.Content,
	}
	actor, actorErr := s.resolveActor(c, req.UserID)
	switch {
	case actorErr == nil:
		comment.UserID = &actor.ID
		comment.AuthorName = actor.Username
	case req.UserID != 0:
		return models.RespondWithError(c, fiber.StatusUnauthorized, actorErr)
	case req.AuthorName != "":
		comment.AuthorName = req.AuthorName
	default:
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("author_name is required for anonymous comments"))
	}

	if err := s.postRepo.CreateComment(c.UserContext(), comment); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetComments handles GET /api/community/posts/:postId/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	p := parsePagination(c)
	comments, err := s.postRepo.ListComments(c.UserContext(), postID, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.JSON(comments)
}
