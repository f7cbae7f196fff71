package repository

import (
	"context"
	"errors"

	"guildboard/internal/cache"
	"guildboard/internal/models"
	"guildboard/internal/observability"

	"gorm.io/gorm"
)

// CommunityRepository defines persistence operations for communities and memberships.
type CommunityRepository interface {
	Create(ctx context.Context, community *models.Community, creatorID uint) error
	GetByID(ctx context.Context, id uint) (*models.Community, error)
	GetBySlug(ctx context.Context, slug string) (*models.Community, error)
	List(ctx context.Context, limit, offset int) ([]models.Community, error)
	Update(ctx context.Context, community *models.Community) error
	GetMembership(ctx context.Context, communityID, userID uint) (*models.CommunityMembership, error)
	ListMemberships(ctx context.Context, userID uint) ([]models.CommunityMembership, error)
	Join(ctx context.Context, communityID, userID uint) error
	Leave(ctx context.Context, communityID, userID uint) error
	SetNotifications(ctx context.Context, communityID, userID uint, enabled bool) error
	IsModerator(ctx context.Context, communityID, userID uint) (bool, error)
}

type communityRepository struct {
	db *gorm.DB
}

// NewCommunityRepository returns a new CommunityRepository implementation.
func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &communityRepository{db: db}
}

// Create persists the community and the creator's moderator membership in one
// transaction so a community never exists without a moderator.
func (r *communityRepository) Create(ctx context.Context, community *models.Community, creatorID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(community).Error; err != nil {
			return err
		}
		membership := models.CommunityMembership{
			CommunityID:   community.ID,
			UserID:        creatorID,
			Role:          models.CommunityRoleModerator,
			Notifications: true,
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Community name or slug already in use")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *communityRepository) GetByID(ctx context.Context, id uint) (*models.Community, error) {
	var community models.Community
	if err := r.withMemberCount(r.db.WithContext(ctx)).
		First(&community, "communities.id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Community", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &community, nil
}

func (r *communityRepository) GetBySlug(ctx context.Context, slug string) (*models.Community, error) {
	var community models.Community
	key := cache.CommunityKey(slug)

	err := cache.Aside(ctx, key, &community, cache.CommunityTTL, func() error {
		if err := r.withMemberCount(r.db.WithContext(ctx)).
			First(&community, "communities.slug = ?", slug).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Community", slug)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &community, nil
}

func (r *communityRepository) List(ctx context.Context, limit, offset int) ([]models.Community, error) {
	var communities []models.Community
	if err := r.withMemberCount(r.db.WithContext(ctx)).
		Order("communities.name ASC").
		Limit(limit).
		Offset(offset).
		Find(&communities).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return communities, nil
}

func (r *communityRepository) Update(ctx context.Context, community *models.Community) error {
	if err := r.db.WithContext(ctx).Save(community).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Community name or slug already in use")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateCommunity(ctx, community.Slug)
	return nil
}

func (r *communityRepository) GetMembership(ctx context.Context, communityID, userID uint) (*models.CommunityMembership, error) {
	var membership models.CommunityMembership
	err := r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &membership, nil
}

func (r *communityRepository) ListMemberships(ctx context.Context, userID uint) ([]models.CommunityMembership, error) {
	var memberships []models.CommunityMembership
	if err := r.db.WithContext(ctx).
		Preload("Community").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&memberships).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return memberships, nil
}

// Join adds the user as a member. Joining an already-joined community is a
// no-op success.
func (r *communityRepository) Join(ctx context.Context, communityID, userID uint) error {
	defer observability.TrackQuery("join", "community_memberships")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.CommunityMembership
		err := tx.Where("community_id = ? AND user_id = ?", communityID, userID).
			First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		membership := models.CommunityMembership{
			CommunityID: communityID,
			UserID:      userID,
			Role:        models.CommunityRoleMember,
		}
		if err := tx.Create(&membership).Error; err != nil {
			// A concurrent join can beat us to the insert; the composite
			// primary key makes that a success, not a failure.
			if isUniqueConstraintError(err) {
				return nil
			}
			return err
		}
		return nil
	})
	if err != nil {
		observability.ToggleOperations.WithLabelValues("join", "error").Inc()
		return models.NewInternalError(err)
	}
	observability.ToggleOperations.WithLabelValues("join", "ok").Inc()
	return nil
}

// Leave removes the user's membership. It fails with a conflict when the user
// is not a member, and refuses to let the sole moderator leave while other
// members remain.
func (r *communityRepository) Leave(ctx context.Context, communityID, userID uint) error {
	defer observability.TrackQuery("leave", "community_memberships")()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var membership models.CommunityMembership
		err := tx.Where("community_id = ? AND user_id = ?", communityID, userID).
			First(&membership).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewConflictError("Not a member of this community")
		}
		if err != nil {
			return models.NewInternalError(err)
		}

		if membership.Role == models.CommunityRoleModerator {
			var moderators, members int64
			if err := tx.Model(&models.CommunityMembership{}).
				Where("community_id = ? AND role = ?", communityID, models.CommunityRoleModerator).
				Count(&moderators).Error; err != nil {
				return models.NewInternalError(err)
			}
			if err := tx.Model(&models.CommunityMembership{}).
				Where("community_id = ?", communityID).
				Count(&members).Error; err != nil {
				return models.NewInternalError(err)
			}
			if moderators == 1 && members > 1 {
				return models.NewConflictError("Cannot leave: you are the last moderator of a community with other members")
			}
		}

		return tx.Where("community_id = ? AND user_id = ?", communityID, userID).
			Delete(&models.CommunityMembership{}).Error
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			observability.ToggleOperations.WithLabelValues("leave", "rejected").Inc()
			return appErr
		}
		observability.ToggleOperations.WithLabelValues("leave", "error").Inc()
		return models.NewInternalError(err)
	}
	observability.ToggleOperations.WithLabelValues("leave", "ok").Inc()
	return nil
}

// SetNotifications flips the notification preference on an existing membership.
// Non-members get a conflict error.
func (r *communityRepository) SetNotifications(ctx context.Context, communityID, userID uint, enabled bool) error {
	res := r.db.WithContext(ctx).
		Model(&models.CommunityMembership{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Update("notifications", enabled)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewConflictError("Not a member of this community")
	}
	return nil
}

func (r *communityRepository) IsModerator(ctx context.Context, communityID, userID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CommunityMembership{}).
		Where("community_id = ? AND user_id = ? AND role = ?",
			communityID, userID, models.CommunityRoleModerator).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// withMemberCount annotates community rows with their membership count.
func (r *communityRepository) withMemberCount(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Community{}).
		Select("communities.*, (SELECT COUNT(*) FROM community_memberships cm WHERE cm.community_id = communities.id) AS member_count")
}
