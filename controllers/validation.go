package controllers

import (
	"net/http"
	"strings"

	"campus-life-api/middleware"
	"campus-life-api/services"

	"github.com/gin-gonic/gin"
)

type clubDecisionRequest struct {
	ClubID    int    `json:"club_id" binding:"required"`
	Action    string `json:"action" binding:"required"`
	Remarques string `json:"remarques"`
}

type eventDecisionRequest struct {
	EventID   int    `json:"event_id" binding:"required"`
	Action    string `json:"action" binding:"required"`
	Remarques string `json:"remarques"`
}

func bindDecision(c *gin.Context, action string) (services.Decision, bool) {
	decision, ok := services.ParseDecision(strings.ToLower(strings.TrimSpace(action)))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Action must be either 'approve' or 'reject'"})
		return "", false
	}
	return decision, true
}

// PendingClubs lists the clubs waiting for the current tutor's review.
// A tutor only ever sees submissions assigned to them.
func PendingClubs(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	clubs, err := validationSvc.PendingClubsForTutor(actor.ID)
	if err != nil {
		mapWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "clubs": clubs, "total": len(clubs)})
}

// PendingEvents lists the events waiting for the current tutor's review.
func PendingEvents(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	events, err := validationSvc.PendingEventsForTutor(actor.ID)
	if err != nil {
		mapWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "events": events, "total": len(events)})
}

// ValidateClub records the assigned tutor's decision on a club.
func ValidateClub(c *gin.Context) {
	var req clubDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	decision, ok := bindDecision(c, req.Action)
	if !ok {
		return
	}
	actor, _ := middleware.CurrentActor(c)

	club, err := validationSvc.TutorReviewClub(req.ClubID, actor, decision, strings.TrimSpace(req.Remarques), requestMeta(c))
	if err != nil {
		mapWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Tutor decision recorded",
		"club":    club,
	})
}

// ValidateEvent records the assigned tutor's decision on an event.
func ValidateEvent(c *gin.Context) {
	var req eventDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	decision, ok := bindDecision(c, req.Action)
	if !ok {
		return
	}
	actor, _ := middleware.CurrentActor(c)

	event, err := validationSvc.TutorReviewEvent(req.EventID, actor, decision, strings.TrimSpace(req.Remarques), requestMeta(c))
	if err != nil {
		mapWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Tutor decision recorded",
		"event":   event,
	})
}

// BoardQueue lists events whose tutor stage is approved and which now
// wait for the board.
func BoardQueue(c *gin.Context) {
	events, err := validationSvc.PendingForBoard()
	if err != nil {
		mapWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "events": events, "total": len(events)})
}

// BoardDecision records the board's decision on an event.
func BoardDecision(c *gin.Context) {
	var req eventDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	decision, ok := bindDecision(c, req.Action)
	if !ok {
		return
	}
	actor, _ := middleware.CurrentActor(c)

	event, err := validationSvc.BoardReviewEvent(req.EventID, actor, decision, strings.TrimSpace(req.Remarques), requestMeta(c))
	if err != nil {
		mapWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Board decision recorded",
		"event":   event,
	})
}

// FinalQueue lists every submission ready for final validation: clubs
// with tutor approval, events with both tutor and board approval.
func FinalQueue(c *gin.Context) {
	clubs, err := validationSvc.PendingClubsForFinal()
	if err != nil {
		mapWorkflowError(c, err)
		return
	}
	events, err := validationSvc.PendingEventsForFinal()
	if err != nil {
		mapWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"clubs":   clubs,
		"events":  events,
		"total":   len(clubs) + len(events),
	})
}

// FinalClub records the terminal administrative decision on a club.
// Rejection requires remarques.
func FinalClub(c *gin.Context) {
	var req clubDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	decision, ok := bindDecision(c, req.Action)
	if !ok {
		return
	}
	actor, _ := middleware.CurrentActor(c)

	club, err := validationSvc.FinalReviewClub(req.ClubID, actor, decision, strings.TrimSpace(req.Remarques), requestMeta(c))
	if err != nil {
		mapWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Final decision recorded",
		"club":    club,
	})
}

// FinalEvent records the terminal administrative decision on an event.
func FinalEvent(c *gin.Context) {
	var req eventDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	decision, ok := bindDecision(c, req.Action)
	if !ok {
		return
	}
	actor, _ := middleware.CurrentActor(c)

	event, err := validationSvc.FinalReviewEvent(req.EventID, actor, decision, strings.TrimSpace(req.Remarques), requestMeta(c))
	if err != nil {
		mapWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Final decision recorded",
		"event":   event,
	})
}

// BulkApprove validates every submission whose prerequisite stages are
// approved, in a single transaction. Safe to invoke twice: the second
// run finds nothing left to approve.
func BulkApprove(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)

	approved, err := validationSvc.BulkFinalApprove(actor, requestMeta(c))
	if err != nil {
		mapWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Bulk approval completed",
		"approved": approved,
	})
}
