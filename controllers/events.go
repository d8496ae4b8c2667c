package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"campus-life-api/config"
	"campus-life-api/models"
	"campus-life-api/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CreateEventRequest struct {
	EventName   string `json:"event_name" binding:"required"`
	Description string `json:"description"`
	Location    string `json:"location"`
	EventDate   string `json:"event_date" binding:"required"`
}

func parseEventDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

// CreateEvent registers a new event submission with all three review
// stages pending.
func CreateEvent(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	eventDate, err := parseEventDate(req.EventDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event date"})
		return
	}

	userID := c.GetInt("userID")
	now := time.Now()

	event := models.Event{
		EventNumber:   fmt.Sprintf("EVT-%d-%s", now.Year(), strings.ToUpper(uuid.NewString()[:8])),
		EventName:     utils.SanitizeInput(req.EventName),
		EventDate:     eventDate,
		OwnerID:       userID,
		TutorApproval: models.ApprovalPending,
		BoardApproval: models.ApprovalPending,
		FinalStatus:   models.FinalPending,
		CreatedAt:     now,
	}
	if req.Description != "" {
		desc := utils.SanitizeInput(req.Description)
		event.Description = &desc
	}
	if req.Location != "" {
		loc := utils.SanitizeInput(req.Location)
		event.Location = &loc
	}

	if err := config.DB.Create(&event).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create event"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Event submitted for review",
		"event":   event,
	})
}

// GetEvents lists events, with the same filter semantics as clubs.
// Validated and rejected listings never include archived events.
func GetEvents(c *gin.Context) {
	userID := c.GetInt("userID")

	query := config.DB.Preload("Owner").Preload("AssignedTutor").
		Where("events.deleted_at IS NULL")

	filter := strings.TrimSpace(c.Query("filter"))
	switch filter {
	case "", "all":
	case "mine":
		query = query.Where("events.owner_id = ?", userID)
	default:
		status, ok := clubStatusFilter(filter)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter"})
			return
		}
		query = query.Where("events.final_status = ?", status)
	}

	var events []models.Event
	if err := query.Order("events.event_date ASC").Find(&events).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"events":  events,
		"total":   len(events),
	})
}

// GetEvent returns one event.
func GetEvent(c *gin.Context) {
	eventID, err := strconv.Atoi(c.Param("id"))
	if err != nil || eventID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return
	}

	var event models.Event
	if err := config.DB.Preload("Owner").Preload("AssignedTutor").
		Where("event_id = ? AND deleted_at IS NULL", eventID).
		First(&event).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "event": event})
}

// SubscribeEvent subscribes the current user to reminders for a
// validated event.
func SubscribeEvent(c *gin.Context) {
	eventID, err := strconv.Atoi(c.Param("id"))
	if err != nil || eventID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return
	}
	userID := c.GetInt("userID")

	var event models.Event
	if err := config.DB.Where("event_id = ? AND deleted_at IS NULL", eventID).First(&event).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}
	if event.FinalStatus != models.FinalApproved {
		c.JSON(http.StatusConflict, gin.H{"error": "Event is not open for subscriptions"})
		return
	}

	var existing models.EventSubscription
	if err := config.DB.Where("event_id = ? AND user_id = ?", eventID, userID).First(&existing).Error; err == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Already subscribed"})
		return
	}

	subscription := models.EventSubscription{EventID: eventID, UserID: userID, SubscribedAt: time.Now()}
	if err := config.DB.Create(&subscription).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to subscribe"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Subscribed to event"})
}

// UnsubscribeEvent removes the current user's subscription.
func UnsubscribeEvent(c *gin.Context) {
	eventID, err := strconv.Atoi(c.Param("id"))
	if err != nil || eventID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return
	}
	userID := c.GetInt("userID")

	result := config.DB.Where("event_id = ? AND user_id = ?", eventID, userID).
		Delete(&models.EventSubscription{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unsubscribe"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Unsubscribed"})
}

// UpcomingEvents lists validated events starting within the next seven
// days that the current user is subscribed to. Computed at request
// time; there is no reminder scheduler.
func UpcomingEvents(c *gin.Context) {
	userID := c.GetInt("userID")
	now := time.Now()
	horizon := now.Add(7 * 24 * time.Hour)

	var events []models.Event
	if err := config.DB.Preload("Owner").
		Joins("JOIN event_subscriptions ON event_subscriptions.event_id = events.event_id").
		Where("event_subscriptions.user_id = ?", userID).
		Where("events.deleted_at IS NULL").
		Where("events.final_status = ?", models.FinalApproved).
		Where("events.event_date BETWEEN ? AND ?", now, horizon).
		Order("events.event_date ASC").
		Find(&events).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch upcoming events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"events":  events,
		"total":   len(events),
	})
}
