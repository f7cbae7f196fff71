package models

import "time"

// Community represents a named community namespace users can join and post in.
type Community struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"size:120;not null;uniqueIndex" json:"name"`
	Slug            string    `gorm:"size:24;not null;uniqueIndex" json:"slug"`
	Description     string    `gorm:"type:text" json:"description"`
	CreatedByUserID *uint     `json:"created_by_user_id"`
	CreatedByUser   *User     `gorm:"foreignKey:CreatedByUserID" json:"created_by_user,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// MemberCount is not persisted; computed at query time
	MemberCount int `gorm:"->" json:"member_count"`
}

// TableName specifies the table name for GORM.
func (Community) TableName() string {
	return "communities"
}

// CommunityMembershipRole defines a member's role in a community.
type CommunityMembershipRole string

const (
	// CommunityRoleModerator has elevated authorization over a community's
	// roster and content.
	CommunityRoleModerator CommunityMembershipRole = "moderator"
	// CommunityRoleMember is the default role.
	CommunityRoleMember CommunityMembershipRole = "member"
)

// CommunityMembership maps users to communities. It is the single source of
// truth for joined communities, moderator status, and per-community
// notification preference.
type CommunityMembership struct {
	CommunityID   uint                    `gorm:"primaryKey;autoIncrement:false" json:"community_id"`
	Community     *Community              `gorm:"foreignKey:CommunityID" json:"community,omitempty"`
	UserID        uint                    `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	User          *User                   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role          CommunityMembershipRole `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	Notifications bool                    `gorm:"not null;default:false" json:"notifications"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}
