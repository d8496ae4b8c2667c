package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"campus-life-api/models"

	"gorm.io/gorm"
)

// ErrRecordNotFound is returned when the target submission does not
// exist or was already removed.
var ErrRecordNotFound = errors.New("record not found")

// PersistenceError wraps a storage failure that aborted a transition.
// The transaction is rolled back in full; callers show a generic retry
// message and the detail stays in the server log.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func persistence(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

// RequestMeta carries the request attribution written to the audit log.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// ValidationService orchestrates review transitions: it reads the
// current state inside a transaction, runs the pure workflow function,
// re-asserts the precondition on the write and records review, history
// and audit rows atomically with the state change.
type ValidationService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewValidationService(db *gorm.DB, notifier Notifier) *ValidationService {
	return &ValidationService{db: db, notifier: notifier}
}

func clubSnapshot(c *models.Club) ReviewSnapshot {
	return ReviewSnapshot{
		Kind:            models.KindClub,
		RecordID:        c.ClubID,
		OwnerID:         c.OwnerID,
		AssignedTutorID: c.AssignedTutorID,
		TutorApproval:   c.TutorApproval,
		FinalStatus:     c.FinalStatus,
	}
}

func eventSnapshot(e *models.Event) ReviewSnapshot {
	date := e.EventDate
	return ReviewSnapshot{
		Kind:            models.KindEvent,
		RecordID:        e.EventID,
		OwnerID:         e.OwnerID,
		AssignedTutorID: e.AssignedTutorID,
		TutorApproval:   e.TutorApproval,
		BoardApproval:   e.BoardApproval,
		FinalStatus:     e.FinalStatus,
		EventDate:       &date,
	}
}

// Pending queues. These are derived views, never stored: a tutor only
// sees records assigned to them, board and admin queues span the whole
// organization.

func (s *ValidationService) PendingClubsForTutor(actorID int) ([]models.Club, error) {
	var clubs []models.Club
	err := s.db.Preload("Owner").
		Where("deleted_at IS NULL").
		Where("assigned_tutor_id = ?", actorID).
		Where("tutor_approval = ?", models.ApprovalPending).
		Where("final_status = ?", models.FinalPending).
		Order("created_at ASC").
		Find(&clubs).Error
	if err != nil {
		return nil, persistence("tutor club queue", err)
	}
	return clubs, nil
}

func (s *ValidationService) PendingEventsForTutor(actorID int) ([]models.Event, error) {
	var events []models.Event
	err := s.db.Preload("Owner").
		Where("deleted_at IS NULL").
		Where("assigned_tutor_id = ?", actorID).
		Where("tutor_approval = ?", models.ApprovalPending).
		Where("final_status = ?", models.FinalPending).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, persistence("tutor event queue", err)
	}
	return events, nil
}

func (s *ValidationService) PendingForBoard() ([]models.Event, error) {
	var events []models.Event
	err := s.db.Preload("Owner").Preload("AssignedTutor").
		Where("deleted_at IS NULL").
		Where("tutor_approval = ?", models.ApprovalApproved).
		Where("board_approval = ?", models.ApprovalPending).
		Where("final_status = ?", models.FinalPending).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, persistence("board queue", err)
	}
	return events, nil
}

func (s *ValidationService) PendingClubsForFinal() ([]models.Club, error) {
	var clubs []models.Club
	err := s.db.Preload("Owner").Preload("AssignedTutor").
		Where("deleted_at IS NULL").
		Where("tutor_approval = ?", models.ApprovalApproved).
		Where("final_status = ?", models.FinalPending).
		Order("created_at ASC").
		Find(&clubs).Error
	if err != nil {
		return nil, persistence("final club queue", err)
	}
	return clubs, nil
}

func (s *ValidationService) PendingEventsForFinal() ([]models.Event, error) {
	var events []models.Event
	err := s.db.Preload("Owner").Preload("AssignedTutor").
		Where("deleted_at IS NULL").
		Where("tutor_approval = ?", models.ApprovalApproved).
		Where("board_approval = ?", models.ApprovalApproved).
		Where("final_status = ?", models.FinalPending).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, persistence("final event queue", err)
	}
	return events, nil
}

// transitionUpdates builds the column set written for a transition.
func transitionUpdates(t Transition, now time.Time) map[string]interface{} {
	updates := map[string]interface{}{"updated_at": now}
	if t.SetTutorApproval != nil {
		updates["tutor_approval"] = *t.SetTutorApproval
	}
	if t.SetBoardApproval != nil {
		updates["board_approval"] = *t.SetBoardApproval
	}
	if t.SetFinalStatus != nil {
		updates["final_status"] = *t.SetFinalStatus
	}
	if t.SetRejectionReason != nil {
		updates["rejection_reason"] = *t.SetRejectionReason
	}
	return updates
}

// applyGuard re-asserts the transition preconditions on the UPDATE
// itself. If another request won the race the write matches zero rows
// and the whole transaction is rolled back.
func applyGuard(query *gorm.DB, t Transition) *gorm.DB {
	if t.RequireTutorApproval != nil {
		query = query.Where("tutor_approval = ?", *t.RequireTutorApproval)
	}
	if t.RequireBoardApproval != nil {
		query = query.Where("board_approval = ?", *t.RequireBoardApproval)
	}
	if t.RequireFinalStatus != nil {
		query = query.Where("final_status = ?", *t.RequireFinalStatus)
	}
	return query
}

func writeDecisionRows(tx *gorm.DB, t Transition, kind models.RecordKind, recordID int, number string,
	actor Actor, remarks string, oldStatus, newStatus models.FinalStatus, meta RequestMeta, now time.Time) error {

	var round int64
	if err := tx.Model(&models.ReviewRecord{}).
		Where("record_kind = ? AND record_id = ?", kind, recordID).
		Count(&round).Error; err != nil {
		return err
	}

	review := models.ReviewRecord{
		RecordKind:  kind,
		RecordID:    recordID,
		ReviewerID:  actor.ID,
		ReviewStage: t.Stage,
		ReviewRound: int(round) + 1,
		Decision:    string(t.Decision),
		ReviewedAt:  now,
	}
	if remarks != "" {
		review.Remarks = &remarks
	}
	note := fmt.Sprintf("stage=%s;decision=%s", t.Stage, t.Decision)
	review.InternalNotes = &note
	if err := tx.Create(&review).Error; err != nil {
		return err
	}

	if oldStatus != newStatus {
		history := models.StatusHistory{
			RecordKind: kind,
			RecordID:   recordID,
			OldStatus:  oldStatus,
			NewStatus:  newStatus,
			ChangedBy:  actor.ID,
			CreatedAt:  now,
		}
		if remarks != "" {
			history.Reason = &remarks
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}
	}

	serialized, _ := json.Marshal(map[string]interface{}{
		"stage":    t.Stage,
		"decision": t.Decision,
		"remarks":  remarks,
	})
	payload := string(serialized)
	description := fmt.Sprintf("%s %s decision on %s %d", t.Stage, t.Decision, kind, recordID)
	entityID := recordID
	audit := models.AuditLog{
		UserID:      actor.ID,
		Action:      "review",
		EntityType:  string(kind),
		EntityID:    &entityID,
		NewValues:   &payload,
		Description: &description,
		IPAddress:   meta.IPAddress,
		CreatedAt:   now,
	}
	if number != "" {
		audit.EntityNumber = &number
	}
	if meta.UserAgent != "" {
		ua := meta.UserAgent
		audit.UserAgent = &ua
	}
	return tx.Create(&audit).Error
}

// applyClub runs one transition on a club inside a single transaction.
func (s *ValidationService) applyClub(clubID int, actor Actor, meta RequestMeta, remarks string,
	compute func(ReviewSnapshot) (Transition, error)) (*models.Club, error) {

	var updated *models.Club
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var club models.Club
		if err := tx.Where("club_id = ? AND deleted_at IS NULL", clubID).First(&club).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecordNotFound
			}
			return persistence("load club", err)
		}

		t, err := compute(clubSnapshot(&club))
		if err != nil {
			return err
		}
		t.Kind = models.KindClub
		t.RecordID = club.ClubID

		now := time.Now()
		query := applyGuard(tx.Model(&models.Club{}).
			Where("club_id = ? AND deleted_at IS NULL", club.ClubID), t)
		result := query.Updates(transitionUpdates(t, now))
		if result.Error != nil {
			return persistence("update club", result.Error)
		}
		if result.RowsAffected == 0 {
			// Lost the race: the precondition no longer holds.
			return alreadyTerminal("submission state changed concurrently")
		}

		newStatus := club.FinalStatus
		if t.SetFinalStatus != nil {
			newStatus = *t.SetFinalStatus
		}
		if err := writeDecisionRows(tx, t, models.KindClub, club.ClubID, club.ClubNumber,
			actor, remarks, club.FinalStatus, newStatus, meta, now); err != nil {
			return persistence("record club decision", err)
		}

		updated = &club
		return nil
	})
	if err != nil {
		return nil, err
	}

	var fresh models.Club
	if err := s.db.Preload("Owner").Preload("AssignedTutor").
		Where("club_id = ?", clubID).First(&fresh).Error; err == nil {
		updated = &fresh
	}
	return updated, nil
}

// applyEvent mirrors applyClub for events.
func (s *ValidationService) applyEvent(eventID int, actor Actor, meta RequestMeta, remarks string,
	compute func(ReviewSnapshot) (Transition, error)) (*models.Event, error) {

	var updated *models.Event
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := tx.Where("event_id = ? AND deleted_at IS NULL", eventID).First(&event).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecordNotFound
			}
			return persistence("load event", err)
		}

		t, err := compute(eventSnapshot(&event))
		if err != nil {
			return err
		}
		t.Kind = models.KindEvent
		t.RecordID = event.EventID

		now := time.Now()
		query := applyGuard(tx.Model(&models.Event{}).
			Where("event_id = ? AND deleted_at IS NULL", event.EventID), t)
		result := query.Updates(transitionUpdates(t, now))
		if result.Error != nil {
			return persistence("update event", result.Error)
		}
		if result.RowsAffected == 0 {
			return alreadyTerminal("submission state changed concurrently")
		}

		newStatus := event.FinalStatus
		if t.SetFinalStatus != nil {
			newStatus = *t.SetFinalStatus
		}
		if err := writeDecisionRows(tx, t, models.KindEvent, event.EventID, event.EventNumber,
			actor, remarks, event.FinalStatus, newStatus, meta, now); err != nil {
			return persistence("record event decision", err)
		}

		updated = &event
		return nil
	})
	if err != nil {
		return nil, err
	}

	var fresh models.Event
	if err := s.db.Preload("Owner").Preload("AssignedTutor").
		Where("event_id = ?", eventID).First(&fresh).Error; err == nil {
		updated = &fresh
	}
	return updated, nil
}

// TutorReviewClub applies the assigned tutor's decision to a club.
func (s *ValidationService) TutorReviewClub(clubID int, actor Actor, decision Decision, remarks string, meta RequestMeta) (*models.Club, error) {
	return s.applyClub(clubID, actor, meta, remarks, func(snap ReviewSnapshot) (Transition, error) {
		return TutorReview(snap, actor, decision)
	})
}

// TutorReviewEvent applies the assigned tutor's decision to an event.
func (s *ValidationService) TutorReviewEvent(eventID int, actor Actor, decision Decision, remarks string, meta RequestMeta) (*models.Event, error) {
	return s.applyEvent(eventID, actor, meta, remarks, func(snap ReviewSnapshot) (Transition, error) {
		return TutorReview(snap, actor, decision)
	})
}

// BoardReviewEvent applies the board's decision to an event.
func (s *ValidationService) BoardReviewEvent(eventID int, actor Actor, decision Decision, remarks string, meta RequestMeta) (*models.Event, error) {
	return s.applyEvent(eventID, actor, meta, remarks, func(snap ReviewSnapshot) (Transition, error) {
		return BoardReview(snap, actor, decision)
	})
}

// FinalReviewClub applies the terminal administrative decision to a
// club and notifies the owner after commit.
func (s *ValidationService) FinalReviewClub(clubID int, actor Actor, decision Decision, reason string, meta RequestMeta) (*models.Club, error) {
	club, err := s.applyClub(clubID, actor, meta, reason, func(snap ReviewSnapshot) (Transition, error) {
		return FinalReview(snap, actor, decision, reason)
	})
	if err != nil {
		return nil, err
	}
	s.notifyFinalDecision(club.OwnerID, club.ClubName, decision, reason, models.KindClub)
	return club, nil
}

// FinalReviewEvent applies the terminal administrative decision to an
// event and notifies the owner after commit.
func (s *ValidationService) FinalReviewEvent(eventID int, actor Actor, decision Decision, reason string, meta RequestMeta) (*models.Event, error) {
	event, err := s.applyEvent(eventID, actor, meta, reason, func(snap ReviewSnapshot) (Transition, error) {
		return FinalReview(snap, actor, decision, reason)
	})
	if err != nil {
		return nil, err
	}
	s.notifyFinalDecision(event.OwnerID, event.EventName, decision, reason, models.KindEvent)
	return event, nil
}

func (s *ValidationService) notifyFinalDecision(ownerID int, name string, decision Decision, reason string, kind models.RecordKind) {
	if s.notifier == nil {
		return
	}
	template := TemplateSubmissionValidated
	ctx := map[string]string{"record_name": name, "record_kind": string(kind)}
	if decision == DecisionReject {
		template = TemplateSubmissionRejected
		ctx["reason"] = reason
	}
	if err := s.notifier.Notify(ownerID, template, ctx); err != nil {
		log.Printf("notifier: final decision notification failed for user %d: %v", ownerID, err)
	}
}

// BulkFinalApprove approves, in one transaction, every pending
// submission whose prerequisite stages are approved. Running it twice
// in a row leaves the second run with nothing to do.
func (s *ValidationService) BulkFinalApprove(actor Actor, meta RequestMeta) (int, error) {
	if actor.PermissionTier < models.TierBoard {
		return 0, notAuthorized("bulk approval requires permission tier 3")
	}

	approved := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var clubs []models.Club
		if err := tx.Where("deleted_at IS NULL AND final_status = ?", models.FinalPending).
			Find(&clubs).Error; err != nil {
			return persistence("bulk load clubs", err)
		}
		var events []models.Event
		if err := tx.Where("deleted_at IS NULL AND final_status = ?", models.FinalPending).
			Find(&events).Error; err != nil {
			return persistence("bulk load events", err)
		}

		snaps := make([]ReviewSnapshot, 0, len(clubs)+len(events))
		numbers := make(map[string]string, len(clubs)+len(events))
		for i := range clubs {
			snaps = append(snaps, clubSnapshot(&clubs[i]))
			numbers[fmt.Sprintf("club/%d", clubs[i].ClubID)] = clubs[i].ClubNumber
		}
		for i := range events {
			snaps = append(snaps, eventSnapshot(&events[i]))
			numbers[fmt.Sprintf("event/%d", events[i].EventID)] = events[i].EventNumber
		}

		transitions, err := BulkFinalApprove(snaps, actor)
		if err != nil {
			return err
		}

		now := time.Now()
		for _, t := range transitions {
			var query *gorm.DB
			if t.Kind == models.KindClub {
				query = tx.Model(&models.Club{}).Where("club_id = ? AND deleted_at IS NULL", t.RecordID)
			} else {
				query = tx.Model(&models.Event{}).Where("event_id = ? AND deleted_at IS NULL", t.RecordID)
			}
			result := applyGuard(query, t).Updates(transitionUpdates(t, now))
			if result.Error != nil {
				return persistence("bulk update", result.Error)
			}
			if result.RowsAffected == 0 {
				// Another request already decided this one; skip it.
				continue
			}
			number := numbers[fmt.Sprintf("%s/%d", t.Kind, t.RecordID)]
			if err := writeDecisionRows(tx, t, t.Kind, t.RecordID, number,
				actor, "", models.FinalPending, models.FinalApproved, meta, now); err != nil {
				return persistence("bulk record decision", err)
			}
			approved++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return approved, nil
}

// ArchiveEventByID archives a single stale approved event.
func (s *ValidationService) ArchiveEventByID(eventID int, actor Actor, now time.Time, meta RequestMeta) (*models.Event, error) {
	return s.applyEvent(eventID, actor, meta, "", func(snap ReviewSnapshot) (Transition, error) {
		return ArchiveEvent(snap, actor, now)
	})
}

// ArchiveStaleEvents sweeps every approved event past the retention
// window into Archived, as one transaction. There is no scheduler; an
// administrator triggers this explicitly.
func (s *ValidationService) ArchiveStaleEvents(actor Actor, now time.Time, meta RequestMeta) (int, error) {
	if actor.PermissionTier < models.TierAdmin {
		return 0, notAuthorized("archival requires permission tier 5")
	}

	archived := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		threshold := now.Add(-models.ArchiveRetention)
		var events []models.Event
		if err := tx.Where("deleted_at IS NULL").
			Where("final_status = ?", models.FinalApproved).
			Where("event_date < ?", threshold).
			Find(&events).Error; err != nil {
			return persistence("archive sweep load", err)
		}

		swept := now
		for i := range events {
			t, err := ArchiveEvent(eventSnapshot(&events[i]), actor, now)
			if err != nil {
				return err
			}
			t.Kind = models.KindEvent
			t.RecordID = events[i].EventID

			result := applyGuard(tx.Model(&models.Event{}).
				Where("event_id = ? AND deleted_at IS NULL", events[i].EventID), t).
				Updates(transitionUpdates(t, swept))
			if result.Error != nil {
				return persistence("archive update", result.Error)
			}
			if result.RowsAffected == 0 {
				continue
			}
			if err := writeDecisionRows(tx, t, models.KindEvent, events[i].EventID, events[i].EventNumber,
				actor, "", models.FinalApproved, models.FinalArchived, meta, swept); err != nil {
				return persistence("archive record decision", err)
			}
			archived++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return archived, nil
}

// DeleteRejectedClub removes a rejected club together with its
// membership rows. All dependents go or none do.
func (s *ValidationService) DeleteRejectedClub(clubID int, actor Actor, meta RequestMeta) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var club models.Club
		if err := tx.Where("club_id = ? AND deleted_at IS NULL", clubID).First(&club).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecordNotFound
			}
			return persistence("load club", err)
		}

		if err := DeleteTerminal(clubSnapshot(&club), actor); err != nil {
			return err
		}

		if err := tx.Where("club_id = ?", club.ClubID).Delete(&models.ClubMembership{}).Error; err != nil {
			return persistence("delete club memberships", err)
		}
		if err := tx.Where("club_id = ?", club.ClubID).Delete(&models.Club{}).Error; err != nil {
			return persistence("delete club", err)
		}

		return auditDeletion(tx, actor, models.KindClub, club.ClubID, club.ClubNumber, meta)
	})
}

// DeleteRejectedEvent removes a rejected event together with its
// subscription rows.
func (s *ValidationService) DeleteRejectedEvent(eventID int, actor Actor, meta RequestMeta) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := tx.Where("event_id = ? AND deleted_at IS NULL", eventID).First(&event).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecordNotFound
			}
			return persistence("load event", err)
		}

		if err := DeleteTerminal(eventSnapshot(&event), actor); err != nil {
			return err
		}

		if err := tx.Where("event_id = ?", event.EventID).Delete(&models.EventSubscription{}).Error; err != nil {
			return persistence("delete event subscriptions", err)
		}
		if err := tx.Where("event_id = ?", event.EventID).Delete(&models.Event{}).Error; err != nil {
			return persistence("delete event", err)
		}

		return auditDeletion(tx, actor, models.KindEvent, event.EventID, event.EventNumber, meta)
	})
}

func auditDeletion(tx *gorm.DB, actor Actor, kind models.RecordKind, recordID int, number string, meta RequestMeta) error {
	entityID := recordID
	description := fmt.Sprintf("deleted rejected %s %d", kind, recordID)
	audit := models.AuditLog{
		UserID:      actor.ID,
		Action:      "delete",
		EntityType:  string(kind),
		EntityID:    &entityID,
		Description: &description,
		IPAddress:   meta.IPAddress,
		CreatedAt:   time.Now(),
	}
	if number != "" {
		audit.EntityNumber = &number
	}
	if meta.UserAgent != "" {
		ua := meta.UserAgent
		audit.UserAgent = &ua
	}
	if err := tx.Create(&audit).Error; err != nil {
		return persistence("audit deletion", err)
	}
	return nil
}

// AssignTutorToClub sets the assigned tutor on a club and notifies the
// tutor once the assignment is committed. Notification failures are
// logged, never rolled back.
func (s *ValidationService) AssignTutorToClub(clubID, tutorID int, actor Actor, meta RequestMeta) (*models.Club, error) {
	var club models.Club
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.assignTutor(tx, actor, models.KindClub, clubID, tutorID, meta, &club)
	})
	if err != nil {
		return nil, err
	}
	s.notifyTutorAssigned(tutorID, club.ClubName, models.KindClub)
	return &club, nil
}

// AssignTutorToEvent mirrors AssignTutorToClub for events.
func (s *ValidationService) AssignTutorToEvent(eventID, tutorID int, actor Actor, meta RequestMeta) (*models.Event, error) {
	var event models.Event
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.assignTutor(tx, actor, models.KindEvent, eventID, tutorID, meta, &event)
	})
	if err != nil {
		return nil, err
	}
	s.notifyTutorAssigned(tutorID, event.EventName, models.KindEvent)
	return &event, nil
}

func (s *ValidationService) assignTutor(tx *gorm.DB, actor Actor, kind models.RecordKind, recordID, tutorID int, meta RequestMeta, out interface{}) error {
	if actor.PermissionTier < models.TierBoard {
		return notAuthorized("tutor assignment requires permission tier 3")
	}

	var tutor models.User
	if err := tx.Where("user_id = ? AND delete_at IS NULL", tutorID).First(&tutor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &WorkflowError{Code: CodeNotAuthorized, Message: "tutor account not found"}
		}
		return persistence("load tutor", err)
	}
	if tutor.PermissionTier < models.TierTutor {
		return notAuthorized("assignee does not have tutor permissions")
	}

	now := time.Now()
	var number string
	switch kind {
	case models.KindClub:
		club := out.(*models.Club)
		if err := tx.Where("club_id = ? AND deleted_at IS NULL", recordID).First(club).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecordNotFound
			}
			return persistence("load club", err)
		}
		if club.FinalStatus.Terminal() {
			return alreadyTerminal("submission has reached a terminal state")
		}
		if err := tx.Model(&models.Club{}).Where("club_id = ?", recordID).
			Updates(map[string]interface{}{"assigned_tutor_id": tutorID, "updated_at": now}).Error; err != nil {
			return persistence("assign tutor", err)
		}
		club.AssignedTutorID = &tutorID
		number = club.ClubNumber
	case models.KindEvent:
		event := out.(*models.Event)
		if err := tx.Where("event_id = ? AND deleted_at IS NULL", recordID).First(event).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecordNotFound
			}
			return persistence("load event", err)
		}
		if event.FinalStatus.Terminal() {
			return alreadyTerminal("submission has reached a terminal state")
		}
		if err := tx.Model(&models.Event{}).Where("event_id = ?", recordID).
			Updates(map[string]interface{}{"assigned_tutor_id": tutorID, "updated_at": now}).Error; err != nil {
			return persistence("assign tutor", err)
		}
		event.AssignedTutorID = &tutorID
		number = event.EventNumber
	}

	entityID := recordID
	description := fmt.Sprintf("assigned tutor %d to %s %d", tutorID, kind, recordID)
	audit := models.AuditLog{
		UserID:      actor.ID,
		Action:      "assign_tutor",
		EntityType:  string(kind),
		EntityID:    &entityID,
		Description: &description,
		IPAddress:   meta.IPAddress,
		CreatedAt:   now,
	}
	if number != "" {
		audit.EntityNumber = &number
	}
	if err := tx.Create(&audit).Error; err != nil {
		return persistence("audit tutor assignment", err)
	}
	return nil
}

func (s *ValidationService) notifyTutorAssigned(tutorID int, name string, kind models.RecordKind) {
	if s.notifier == nil {
		return
	}
	ctx := map[string]string{"record_name": name, "record_kind": string(kind)}
	if err := s.notifier.Notify(tutorID, TemplateTutorAssigned, ctx); err != nil {
		log.Printf("notifier: tutor assignment notification failed for user %d: %v", tutorID, err)
	}
}
