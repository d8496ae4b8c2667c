package models

// ApprovalState is the verdict of a single review stage. A stage starts
// pending and is decided exactly once.
type ApprovalState string

const (
	ApprovalPending  ApprovalState = "pending"
	ApprovalApproved ApprovalState = "approved"
	ApprovalRejected ApprovalState = "rejected"
)

// FinalStatus is the overall lifecycle state of a submission. Rejected
// and Archived are terminal; Archived is a distinct state and is never
// surfaced as Rejected.
type FinalStatus string

const (
	FinalPending  FinalStatus = "pending"
	FinalApproved FinalStatus = "approved"
	FinalRejected FinalStatus = "rejected"
	FinalArchived FinalStatus = "archived"
)

// Terminal reports whether no further review transitions are allowed.
func (s FinalStatus) Terminal() bool {
	return s == FinalRejected || s == FinalArchived
}

// RecordKind discriminates polymorphic rows (reviews, history, audit)
// between the two submission types.
type RecordKind string

const (
	KindClub  RecordKind = "club"
	KindEvent RecordKind = "event"
)
