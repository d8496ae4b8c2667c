package models

import "time"

// Event represents the events table. Events carry one extra review
// stage (the board) between tutor review and final validation, and can
// be archived once approved and older than the retention window.
type Event struct {
	EventID         int           `gorm:"primaryKey;column:event_id" json:"event_id"`
	EventNumber     string        `gorm:"column:event_number;unique" json:"event_number"`
	EventName       string        `gorm:"column:event_name" json:"event_name"`
	Description     *string       `gorm:"column:description" json:"description,omitempty"`
	Location        *string       `gorm:"column:location" json:"location,omitempty"`
	EventDate       time.Time     `gorm:"column:event_date" json:"event_date"`
	OwnerID         int           `gorm:"column:owner_id" json:"owner_id"`
	AssignedTutorID *int          `gorm:"column:assigned_tutor_id" json:"assigned_tutor_id,omitempty"`
	TutorApproval   ApprovalState `gorm:"column:tutor_approval" json:"tutor_approval"`
	BoardApproval   ApprovalState `gorm:"column:board_approval" json:"board_approval"`
	FinalStatus     FinalStatus   `gorm:"column:final_status" json:"final_status"`
	RejectionReason *string       `gorm:"column:rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time     `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       *time.Time    `gorm:"column:updated_at" json:"updated_at,omitempty"`
	DeletedAt       *time.Time    `gorm:"column:deleted_at" json:"deleted_at,omitempty"`

	Owner         *User `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	AssignedTutor *User `gorm:"foreignKey:AssignedTutorID" json:"assigned_tutor,omitempty"`

	Subscriptions []EventSubscription `gorm:"foreignKey:EventID" json:"subscriptions,omitempty"`
}

func (Event) TableName() string {
	return "events"
}

// ArchiveRetention is how long after its date an approved event must be
// before the archive sweep may move it to Archived.
const ArchiveRetention = 365 * 24 * time.Hour

// EventSubscription links a user to an event they want reminders for.
type EventSubscription struct {
	SubscriptionID int       `gorm:"primaryKey;column:subscription_id" json:"subscription_id"`
	EventID        int       `gorm:"column:event_id" json:"event_id"`
	UserID         int       `gorm:"column:user_id" json:"user_id"`
	SubscribedAt   time.Time `gorm:"column:subscribed_at" json:"subscribed_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (EventSubscription) TableName() string {
	return "event_subscriptions"
}
