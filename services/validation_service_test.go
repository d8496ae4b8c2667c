package services

import (
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"campus-life-api/models"
)

func clubColumns() []string {
	return []string{"club_id", "club_number", "club_name", "owner_id",
		"assigned_tutor_id", "tutor_approval", "final_status", "created_at"}
}

func clubRow(id int, tutorID interface{}, tutorApproval, finalStatus string) []driver.Value {
	return []driver.Value{int64(id), "CLB-2025-ABCD1234", "Chess Club", int64(7),
		tutorID, tutorApproval, finalStatus, time.Now()}
}

func userColumns() []string {
	return []string{"user_id", "user_fname", "user_lname", "email", "permission_tier"}
}

func userRow(id int, tier int) []driver.Value {
	return []driver.Value{int64(id), "Alex", "Rivera", "alex@example.edu", int64(tier)}
}

func TestTutorReviewClubPersistsDecision(t *testing.T) {
	steps := []*queryStep{
		{kind: kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM .clubs. WHERE club_id = \\? AND deleted_at IS NULL"),
			columns: clubColumns(),
			rows:    [][]driver.Value{clubRow(5, int64(2), "pending", "pending")}},
		{kind: kindExec,
			pattern: regexp.MustCompile("UPDATE .clubs. SET"),
			result:  scriptedResult{rowsAffected: 1}},
		{kind: kindQuery,
			pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM .review_records."),
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(0)}}},
		{kind: kindExec,
			pattern: regexp.MustCompile("INSERT INTO .review_records."),
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1}},
		{kind: kindExec,
			pattern: regexp.MustCompile("INSERT INTO .audit_logs."),
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1}},
		{kind: kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM .clubs. WHERE club_id = \\?"),
			columns: clubColumns(),
			rows:    [][]driver.Value{clubRow(5, int64(2), "approved", "pending")}},
		{kind: kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM .users."),
			columns: userColumns(),
			rows:    [][]driver.Value{userRow(2, models.TierTutor)}},
		{kind: kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM .users."),
			columns: userColumns(),
			rows:    [][]driver.Value{userRow(7, models.TierStudent)}},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewValidationService(db, nil)
	actor := Actor{ID: 2, PermissionTier: models.TierTutor}
	club, err := svc.TutorReviewClub(5, actor, DecisionApprove, "looks ready", RequestMeta{IPAddress: "10.0.0.1"})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if club.TutorApproval != models.ApprovalApproved {
		t.Fatalf("expected reloaded tutor_approval approved, got %s", club.TutorApproval)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unsatisfied script: %v", err)
	}
}

func TestTutorReviewClubConcurrentConflict(t *testing.T) {
	steps := []*queryStep{
		{kind: kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM .clubs. WHERE club_id = \\? AND deleted_at IS NULL"),
			columns: clubColumns(),
			rows:    [][]driver.Value{clubRow(5, int64(2), "pending", "pending")}},
		// The guarded write matches zero rows: another request won.
		{kind: kindExec,
			pattern: regexp.MustCompile("UPDATE .clubs. SET"),
			result:  scriptedResult{rowsAffected: 0}},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewValidationService(db, nil)
	actor := Actor{ID: 2, PermissionTier: models.TierTutor}
	_, err := svc.TutorReviewClub(5, actor, DecisionApprove, "", RequestMeta{})

	var wErr *WorkflowError
	if !errors.As(err, &wErr) || wErr.Code != CodeAlreadyTerminal {
		t.Fatalf("expected already_terminal on lost race, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unsatisfied script: %v", err)
	}
}

func TestTutorReviewClubRefusesUnassignedActor(t *testing.T) {
	steps := []*queryStep{
		{kind: kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM .clubs. WHERE club_id = \\? AND deleted_at IS NULL"),
			columns: clubColumns(),
			rows:    [][]driver.Value{clubRow(5, int64(2), "pending", "pending")}},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewValidationService(db, nil)
	actor := Actor{ID: 9, PermissionTier: models.TierTutor}
	_, err := svc.TutorReviewClub(5, actor, DecisionApprove, "", RequestMeta{})

	var wErr *WorkflowError
	if !errors.As(err, &wErr) || wErr.Code != CodeNotAuthorized {
		t.Fatalf("expected not_authorized for unassigned tutor, got %v", err)
	}
	// Nothing is written when the workflow refuses the transition.
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unsatisfied script: %v", err)
	}
}

func TestFinalReviewClubWritesStatusHistory(t *testing.T) {
	steps := []*queryStep{
		{kind: kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM .clubs. WHERE club_id = \\? AND deleted_at IS NULL"),
			columns: clubColumns(),
			rows:    [][]driver.Value{clubRow(5, int64(2), "approved", "pending")}},
		{kind: kindExec,
			pattern: regexp.MustCompile("UPDATE .clubs. SET"),
			result:  scriptedResult{rowsAffected: 1}},
		{kind: kindQuery,
			pattern: regexp.MustCompile("SELECT count\\(\\*\\) FROM .review_records."),
			columns: []string{"count(*)"},
			rows:    [][]driver.Value{{int64(1)}}},
		{kind: kindExec,
			pattern: regexp.MustCompile("INSERT INTO .review_records."),
			result:  scriptedResult{lastInsertID: 2, rowsAffected: 1}},
		{kind: kindExec,
			pattern: regexp.MustCompile("INSERT INTO .status_histories."),
			result:  scriptedResult{lastInsertID: 1, rowsAffected: 1}},
		{kind: kindExec,
			pattern: regexp.MustCompile("INSERT INTO .audit_logs."),
			result:  scriptedResult{lastInsertID: 2, rowsAffected: 1}},
		{kind: kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM .clubs. WHERE club_id = \\?"),
			columns: clubColumns(),
			rows:    [][]driver.Value{clubRow(5, int64(2), "approved", "approved")}},
		{kind: kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM .users."),
			columns: userColumns(),
			rows:    [][]driver.Value{userRow(2, models.TierTutor)}},
		{kind: kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM .users."),
			columns: userColumns(),
			rows:    [][]driver.Value{userRow(7, models.TierStudent)}},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewValidationService(db, nil)
	actor := Actor{ID: 3, PermissionTier: models.TierAdmin}
	club, err := svc.FinalReviewClub(5, actor, DecisionApprove, "", RequestMeta{})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if club.FinalStatus != models.FinalApproved {
		t.Fatalf("expected final_status approved, got %s", club.FinalStatus)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unsatisfied script: %v", err)
	}
}

func TestDeleteRejectedClubCascades(t *testing.T) {
	steps := []*queryStep{
		{kind: kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM .clubs. WHERE club_id = \\? AND deleted_at IS NULL"),
			columns: clubColumns(),
			rows:    [][]driver.Value{clubRow(5, int64(2), "rejected", "rejected")}},
		{kind: kindExec,
			pattern: regexp.MustCompile("DELETE FROM .club_memberships. WHERE club_id = \\?"),
			args:    []driver.Value{int64(5)},
			result:  scriptedResult{rowsAffected: 3}},
		{kind: kindExec,
			pattern: regexp.MustCompile("DELETE FROM .clubs. WHERE club_id = \\?"),
			args:    []driver.Value{int64(5)},
			result:  scriptedResult{rowsAffected: 1}},
		{kind: kindExec,
			pattern: regexp.MustCompile("INSERT INTO .audit_logs."),
			result:  scriptedResult{lastInsertID: 3, rowsAffected: 1}},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewValidationService(db, nil)
	actor := Actor{ID: 3, PermissionTier: models.TierAdmin}
	if err := svc.DeleteRejectedClub(5, actor, RequestMeta{IPAddress: "10.0.0.1"}); err != nil {
		t.Fatalf("expected cascade delete to succeed, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unsatisfied script: %v", err)
	}
}

func TestDeleteRejectedClubMissingRecord(t *testing.T) {
	steps := []*queryStep{
		{kind: kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM .clubs. WHERE club_id = \\? AND deleted_at IS NULL"),
			columns: clubColumns(),
			rows:    nil},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewValidationService(db, nil)
	actor := Actor{ID: 3, PermissionTier: models.TierAdmin}
	err := svc.DeleteRejectedClub(5, actor, RequestMeta{})
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unsatisfied script: %v", err)
	}
}

func TestDeleteNonRejectedClubRefused(t *testing.T) {
	steps := []*queryStep{
		{kind: kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM .clubs. WHERE club_id = \\? AND deleted_at IS NULL"),
			columns: clubColumns(),
			rows:    [][]driver.Value{clubRow(5, int64(2), "approved", "approved")}},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewValidationService(db, nil)
	actor := Actor{ID: 3, PermissionTier: models.TierAdmin}
	err := svc.DeleteRejectedClub(5, actor, RequestMeta{})

	var wErr *WorkflowError
	if !errors.As(err, &wErr) || wErr.Code != CodeInvalidStageOrder {
		t.Fatalf("expected invalid_stage_order for non-rejected club, got %v", err)
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unsatisfied script: %v", err)
	}
}

func TestPendingClubsForTutorScopedToAssignment(t *testing.T) {
	steps := []*queryStep{
		{kind: kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM .clubs. WHERE deleted_at IS NULL AND assigned_tutor_id = \\?"),
			columns: clubColumns(),
			rows: [][]driver.Value{
				clubRow(5, int64(2), "pending", "pending"),
				clubRow(6, int64(2), "pending", "pending"),
			}},
		{kind: kindQuery,
			pattern: regexp.MustCompile("SELECT \\* FROM .users."),
			columns: userColumns(),
			rows:    [][]driver.Value{userRow(7, models.TierStudent)}},
	}
	db, state, cleanup := newScriptedGormDB(t, steps)
	defer cleanup()

	svc := NewValidationService(db, nil)
	clubs, err := svc.PendingClubsForTutor(2)
	if err != nil {
		t.Fatalf("expected queue load to succeed, got %v", err)
	}
	if len(clubs) != 2 {
		t.Fatalf("expected 2 pending clubs, got %d", len(clubs))
	}
	if err := state.verifyComplete(); err != nil {
		t.Fatalf("unsatisfied script: %v", err)
	}
}
