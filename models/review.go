package models

import "time"

// ReviewRecord is the audit row written for every reviewer decision
// (tutor, board or final).
type ReviewRecord struct {
	ReviewID      int        `gorm:"primaryKey;column:review_id" json:"review_id"`
	RecordKind    RecordKind `gorm:"column:record_kind" json:"record_kind"`
	RecordID      int        `gorm:"column:record_id" json:"record_id"`
	ReviewerID    int        `gorm:"column:reviewer_id" json:"reviewer_id"`
	ReviewStage   string     `gorm:"column:review_stage" json:"review_stage"` // tutor|board|final|archive
	ReviewRound   int        `gorm:"column:review_round" json:"review_round"`
	Decision      string     `gorm:"column:decision" json:"decision"`
	Remarks       *string    `gorm:"column:remarks" json:"remarks"`
	InternalNotes *string    `gorm:"column:internal_notes" json:"internal_notes"`
	ReviewedAt    time.Time  `gorm:"column:reviewed_at" json:"reviewed_at"`

	Reviewer *User `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
}

func (ReviewRecord) TableName() string {
	return "review_records"
}

// StatusHistory logs every final_status change with who caused it.
type StatusHistory struct {
	HistoryID  int         `gorm:"primaryKey;column:history_id" json:"history_id"`
	RecordKind RecordKind  `gorm:"column:record_kind" json:"record_kind"`
	RecordID   int         `gorm:"column:record_id" json:"record_id"`
	OldStatus  FinalStatus `gorm:"column:old_status" json:"old_status"`
	NewStatus  FinalStatus `gorm:"column:new_status" json:"new_status"`
	ChangedBy  int         `gorm:"column:changed_by" json:"changed_by"`
	Reason     *string     `gorm:"column:reason" json:"reason"`
	Notes      *string     `gorm:"column:notes" json:"notes"`
	CreatedAt  time.Time   `gorm:"column:created_at" json:"created_at"`
}

func (StatusHistory) TableName() string {
	return "status_histories"
}
