package models

import (
	"time"
)

// Permission tiers. Tier 0 is an unverified account, tier 1 a regular
// student, tier 2 a tutor, tier 3 a board member, tier 5 a platform
// administrator.
const (
	TierUnverified = 0
	TierStudent    = 1
	TierTutor      = 2
	TierBoard      = 3
	TierAdmin      = 5
)

type User struct {
	UserID         int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	UserFname      string     `gorm:"column:user_fname" json:"user_fname"`
	UserLname      string     `gorm:"column:user_lname" json:"user_lname"`
	Email          string     `gorm:"column:email;unique" json:"email"`
	Password       string     `gorm:"column:password" json:"-"`
	PermissionTier int        `gorm:"column:permission_tier" json:"permission_tier"`
	EmailVerified  bool       `gorm:"column:email_verified" json:"email_verified"`
	Department     *string    `gorm:"column:department" json:"department,omitempty"`
	CreateAt       *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt       *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt       *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// FullName joins first and last name for mail templates.
func (u User) FullName() string {
	if u.UserLname == "" {
		return u.UserFname
	}
	return u.UserFname + " " + u.UserLname
}

// VerificationCode stores a hashed e-mail verification code issued at
// registration. The raw code never touches the database.
type VerificationCode struct {
	CodeID    int        `gorm:"primaryKey;column:code_id" json:"code_id"`
	UserID    int        `gorm:"column:user_id" json:"user_id"`
	CodeHash  string     `gorm:"column:code_hash" json:"-"`
	ExpiresAt time.Time  `gorm:"column:expires_at" json:"expires_at"`
	UsedAt    *time.Time `gorm:"column:used_at" json:"used_at,omitempty"`
	CreatedAt time.Time  `gorm:"column:created_at" json:"created_at"`
}

func (VerificationCode) TableName() string {
	return "verification_codes"
}
