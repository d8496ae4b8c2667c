package models

import "time"

// Club represents the clubs table. A club passes through tutor review
// and final administrative validation; there is no board stage.
type Club struct {
	ClubID          int           `gorm:"primaryKey;column:club_id" json:"club_id"`
	ClubNumber      string        `gorm:"column:club_number;unique" json:"club_number"`
	ClubName        string        `gorm:"column:club_name" json:"club_name"`
	Description     *string       `gorm:"column:description" json:"description,omitempty"`
	OwnerID         int           `gorm:"column:owner_id" json:"owner_id"`
	AssignedTutorID *int          `gorm:"column:assigned_tutor_id" json:"assigned_tutor_id,omitempty"`
	TutorApproval   ApprovalState `gorm:"column:tutor_approval" json:"tutor_approval"`
	FinalStatus     FinalStatus   `gorm:"column:final_status" json:"final_status"`
	RejectionReason *string       `gorm:"column:rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time     `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       *time.Time    `gorm:"column:updated_at" json:"updated_at,omitempty"`
	DeletedAt       *time.Time    `gorm:"column:deleted_at" json:"deleted_at,omitempty"`

	Owner         *User `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	AssignedTutor *User `gorm:"foreignKey:AssignedTutorID" json:"assigned_tutor,omitempty"`

	Members []ClubMembership `gorm:"foreignKey:ClubID" json:"members,omitempty"`
}

func (Club) TableName() string {
	return "clubs"
}

// ClubMembership links a user to a club. Rows cascade away with the
// club when a rejected club is deleted.
type ClubMembership struct {
	MembershipID int       `gorm:"primaryKey;column:membership_id" json:"membership_id"`
	ClubID       int       `gorm:"column:club_id" json:"club_id"`
	UserID       int       `gorm:"column:user_id" json:"user_id"`
	JoinedAt     time.Time `gorm:"column:joined_at" json:"joined_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (ClubMembership) TableName() string {
	return "club_memberships"
}
