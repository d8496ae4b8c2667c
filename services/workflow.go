package services

import (
	"fmt"
	"time"

	"campus-life-api/models"
)

// Decision is a reviewer's verdict on a single stage.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ParseDecision validates a request-supplied action string.
func ParseDecision(raw string) (Decision, bool) {
	switch Decision(raw) {
	case DecisionApprove:
		return DecisionApprove, true
	case DecisionReject:
		return DecisionReject, true
	default:
		return "", false
	}
}

// Actor is the identity a transition is evaluated against.
type Actor struct {
	ID             int
	PermissionTier int
}

// Workflow error codes. Every precondition violation surfaces as one of
// these; transitions never fail silently.
type WorkflowErrorCode string

const (
	CodeNotAuthorized     WorkflowErrorCode = "not_authorized"
	CodeInvalidStageOrder WorkflowErrorCode = "invalid_stage_order"
	CodeAlreadyTerminal   WorkflowErrorCode = "already_terminal"
	CodeReasonRequired    WorkflowErrorCode = "reason_required"
)

type WorkflowError struct {
	Code    WorkflowErrorCode
	Message string
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func notAuthorized(msg string) *WorkflowError {
	return &WorkflowError{Code: CodeNotAuthorized, Message: msg}
}

func invalidStageOrder(msg string) *WorkflowError {
	return &WorkflowError{Code: CodeInvalidStageOrder, Message: msg}
}

func alreadyTerminal(msg string) *WorkflowError {
	return &WorkflowError{Code: CodeAlreadyTerminal, Message: msg}
}

// ReviewSnapshot is the in-memory view of a submission a transition is
// computed against. BoardApproval is only meaningful for events.
type ReviewSnapshot struct {
	Kind            models.RecordKind
	RecordID        int
	OwnerID         int
	AssignedTutorID *int
	TutorApproval   models.ApprovalState
	BoardApproval   models.ApprovalState
	FinalStatus     models.FinalStatus
	EventDate       *time.Time
}

// Transition is the outcome of a successful workflow function: the
// columns to set, plus the preconditions the storage layer must
// re-assert inside the same transaction before writing. Two concurrent
// requests can both observe a pending stage; the Require fields are
// what turns the write into an optimistic check-then-write.
type Transition struct {
	Stage    string // tutor|board|final|archive
	Decision Decision
	Kind     models.RecordKind
	RecordID int

	SetTutorApproval   *models.ApprovalState
	SetBoardApproval   *models.ApprovalState
	SetFinalStatus     *models.FinalStatus
	SetRejectionReason *string

	RequireTutorApproval *models.ApprovalState
	RequireBoardApproval *models.ApprovalState
	RequireFinalStatus   *models.FinalStatus
}

func approvalFor(d Decision) models.ApprovalState {
	if d == DecisionApprove {
		return models.ApprovalApproved
	}
	return models.ApprovalRejected
}

// TutorReview records the assigned tutor's decision. Only the assigned
// tutor may act, and only while the tutor stage is still pending; a
// second decision fails with AlreadyTerminal rather than silently
// overwriting the first.
func TutorReview(snap ReviewSnapshot, actor Actor, decision Decision) (Transition, error) {
	if snap.AssignedTutorID == nil || actor.ID != *snap.AssignedTutorID {
		return Transition{}, notAuthorized("only the assigned tutor may review this submission")
	}
	if snap.FinalStatus.Terminal() {
		return Transition{}, alreadyTerminal("submission has reached a terminal state")
	}
	if snap.TutorApproval != models.ApprovalPending {
		return Transition{}, alreadyTerminal("tutor decision already recorded")
	}

	next := approvalFor(decision)
	pending := models.ApprovalPending
	return Transition{
		Stage:                "tutor",
		Decision:             decision,
		SetTutorApproval:     &next,
		RequireTutorApproval: &pending,
	}, nil
}

// BoardReview records the board's decision on an event. Requires tier 3
// and a completed, approved tutor stage.
func BoardReview(snap ReviewSnapshot, actor Actor, decision Decision) (Transition, error) {
	if snap.Kind != models.KindEvent {
		return Transition{}, invalidStageOrder("board review only applies to events")
	}
	if actor.PermissionTier < models.TierBoard {
		return Transition{}, notAuthorized("board review requires permission tier 3")
	}
	if snap.FinalStatus.Terminal() {
		return Transition{}, alreadyTerminal("event has reached a terminal state")
	}
	if snap.TutorApproval != models.ApprovalApproved {
		return Transition{}, invalidStageOrder("tutor approval must precede board review")
	}
	if snap.BoardApproval != models.ApprovalPending {
		return Transition{}, alreadyTerminal("board decision already recorded")
	}

	next := approvalFor(decision)
	pending := models.ApprovalPending
	return Transition{
		Stage:                "board",
		Decision:             decision,
		SetBoardApproval:     &next,
		RequireBoardApproval: &pending,
	}, nil
}

// FinalReview records the terminal administrative decision. Approval
// requires every prior stage approved; rejection additionally requires
// a non-empty reason.
func FinalReview(snap ReviewSnapshot, actor Actor, decision Decision, reason string) (Transition, error) {
	if actor.PermissionTier < models.TierBoard {
		return Transition{}, notAuthorized("final validation requires permission tier 3")
	}
	if snap.FinalStatus != models.FinalPending {
		return Transition{}, alreadyTerminal("final decision already recorded")
	}
	if snap.TutorApproval != models.ApprovalApproved {
		return Transition{}, invalidStageOrder("tutor approval must precede final validation")
	}
	if snap.Kind == models.KindEvent && snap.BoardApproval != models.ApprovalApproved {
		return Transition{}, invalidStageOrder("board approval must precede final validation")
	}

	pending := models.FinalPending
	t := Transition{
		Stage:              "final",
		Decision:           decision,
		RequireFinalStatus: &pending,
	}

	if decision == DecisionReject {
		if reason == "" {
			return Transition{}, &WorkflowError{Code: CodeReasonRequired, Message: "a rejection reason is required"}
		}
		rejected := models.FinalRejected
		t.SetFinalStatus = &rejected
		t.SetRejectionReason = &reason
		return t, nil
	}

	approved := models.FinalApproved
	t.SetFinalStatus = &approved
	return t, nil
}

// BulkFinalApprove computes the approval transitions for every snapshot
// whose prerequisite stages are approved, leaving the rest untouched.
// Already-approved records are skipped, which makes the operation
// idempotent. The stage check is the strict one: the tutor stage must
// actually be approved, not merely have a tutor assigned.
func BulkFinalApprove(snaps []ReviewSnapshot, actor Actor) ([]Transition, error) {
	if actor.PermissionTier < models.TierBoard {
		return nil, notAuthorized("bulk approval requires permission tier 3")
	}

	transitions := make([]Transition, 0, len(snaps))
	for _, snap := range snaps {
		if snap.FinalStatus != models.FinalPending {
			continue
		}
		if snap.TutorApproval != models.ApprovalApproved {
			continue
		}
		if snap.Kind == models.KindEvent && snap.BoardApproval != models.ApprovalApproved {
			continue
		}

		t, err := FinalReview(snap, actor, DecisionApprove, "")
		if err != nil {
			return nil, err
		}
		t.RecordID = snap.RecordID
		t.Kind = snap.Kind
		transitions = append(transitions, t)
	}
	return transitions, nil
}

// ArchiveEvent moves a stale approved event to Archived. Requires tier
// 5 and an event date older than the retention window. Archived is a
// distinct terminal state; it must never be surfaced as Rejected.
func ArchiveEvent(snap ReviewSnapshot, actor Actor, now time.Time) (Transition, error) {
	if actor.PermissionTier < models.TierAdmin {
		return Transition{}, notAuthorized("archival requires permission tier 5")
	}
	if snap.Kind != models.KindEvent {
		return Transition{}, invalidStageOrder("only events can be archived")
	}
	if snap.FinalStatus.Terminal() {
		return Transition{}, alreadyTerminal("event has reached a terminal state")
	}
	if snap.FinalStatus != models.FinalApproved {
		return Transition{}, invalidStageOrder("only approved events can be archived")
	}
	if snap.EventDate == nil || now.Sub(*snap.EventDate) <= models.ArchiveRetention {
		return Transition{}, invalidStageOrder("event is still within the retention window")
	}

	approved := models.FinalApproved
	archived := models.FinalArchived
	return Transition{
		Stage:              "archive",
		Decision:           DecisionApprove,
		SetFinalStatus:     &archived,
		RequireFinalStatus: &approved,
	}, nil
}

// DeleteTerminal authorizes the explicit removal of a rejected
// submission. The storage layer performs the cascade; this only guards
// the preconditions.
func DeleteTerminal(snap ReviewSnapshot, actor Actor) error {
	if actor.PermissionTier < models.TierBoard {
		return notAuthorized("terminal deletion requires permission tier 3")
	}
	if snap.FinalStatus != models.FinalRejected {
		return invalidStageOrder("only rejected submissions can be deleted")
	}
	return nil
}
