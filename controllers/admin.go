package controllers

import (
	"net/http"
	"strconv"
	"time"

	"campus-life-api/config"
	"campus-life-api/middleware"
	"campus-life-api/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type assignTutorRequest struct {
	Entity   string `json:"entity" binding:"required"`
	RecordID int    `json:"record_id" binding:"required"`
	TutorID  int    `json:"tutor_id" binding:"required"`
}

// AssignTutor sets the first-stage reviewer on a club or event. The
// entity name is resolved against the allow-list; the assigned tutor is
// notified once the assignment is committed.
func AssignTutor(c *gin.Context) {
	var req assignTutorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	entity, ok := models.ResolveEntity(req.Entity)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown collection"})
		return
	}
	actor, _ := middleware.CurrentActor(c)

	switch entity {
	case models.EntityClubs:
		club, err := validationSvc.AssignTutorToClub(req.RecordID, req.TutorID, actor, requestMeta(c))
		if err != nil {
			mapWorkflowError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Tutor assigned", "club": club})
	case models.EntityEvents:
		event, err := validationSvc.AssignTutorToEvent(req.RecordID, req.TutorID, actor, requestMeta(c))
		if err != nil {
			mapWorkflowError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Tutor assigned", "event": event})
	}
}

// DeleteClub removes a rejected club and its membership rows.
func DeleteClub(c *gin.Context) {
	clubID, err := strconv.Atoi(c.Param("id"))
	if err != nil || clubID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid club ID"})
		return
	}
	actor, _ := middleware.CurrentActor(c)

	if err := validationSvc.DeleteRejectedClub(clubID, actor, requestMeta(c)); err != nil {
		mapWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Club deleted"})
}

// DeleteEvent removes a rejected event and its subscription rows.
func DeleteEvent(c *gin.Context) {
	eventID, err := strconv.Atoi(c.Param("id"))
	if err != nil || eventID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return
	}
	actor, _ := middleware.CurrentActor(c)

	if err := validationSvc.DeleteRejectedEvent(eventID, actor, requestMeta(c)); err != nil {
		mapWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Event deleted"})
}

// ArchiveEvent archives one approved event past the retention window.
func ArchiveEvent(c *gin.Context) {
	eventID, err := strconv.Atoi(c.Param("id"))
	if err != nil || eventID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return
	}
	actor, _ := middleware.CurrentActor(c)

	event, err := validationSvc.ArchiveEventByID(eventID, actor, time.Now(), requestMeta(c))
	if err != nil {
		mapWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Event archived", "event": event})
}

// ArchiveSweep archives every stale approved event in one transaction.
// Triggered explicitly; there is no timer doing this in the background.
func ArchiveSweep(c *gin.Context) {
	actor, _ := middleware.CurrentActor(c)

	archived, err := validationSvc.ArchiveStaleEvents(actor, time.Now(), requestMeta(c))
	if err != nil {
		mapWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Archive sweep completed",
		"archived": archived,
	})
}

// ListUsers returns the user directory for reviewers and admins.
func ListUsers(c *gin.Context) {
	var users []models.User
	if err := config.DB.Where("delete_at IS NULL").
		Order("user_id ASC").
		Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "users": users, "total": len(users)})
}

type setTierRequest struct {
	PermissionTier *int `json:"permission_tier" binding:"required"`
}

// SetUserTier changes a user's permission tier. An administrator can
// never change their own tier.
func SetUserTier(c *gin.Context) {
	targetID, err := strconv.Atoi(c.Param("id"))
	if err != nil || targetID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var req setTierRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PermissionTier == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	tier := *req.PermissionTier
	if tier < 0 || tier > models.TierAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Permission tier must be between 0 and 5"})
		return
	}

	actor, _ := middleware.CurrentActor(c)
	if actor.ID == targetID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You cannot change your own permission tier"})
		return
	}

	var target models.User
	if err := config.DB.Where("user_id = ? AND delete_at IS NULL", targetID).First(&target).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	now := time.Now()
	if err := config.DB.Model(&models.User{}).
		Where("user_id = ?", targetID).
		Updates(map[string]interface{}{
			"permission_tier": tier,
			"update_at":       now,
		}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Permission tier updated"})
}

// DeleteUser soft-deletes an account and revokes its sessions. An
// administrator can never delete their own account.
func DeleteUser(c *gin.Context) {
	targetID, err := strconv.Atoi(c.Param("id"))
	if err != nil || targetID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	actor, _ := middleware.CurrentActor(c)
	if actor.ID == targetID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You cannot delete your own account"})
		return
	}

	var target models.User
	if err := config.DB.Where("user_id = ? AND delete_at IS NULL", targetID).First(&target).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	now := time.Now()
	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).
			Where("user_id = ?", targetID).
			Update("delete_at", now).Error; err != nil {
			return err
		}
		return tx.Model(&models.UserSession{}).
			Where("user_id = ? AND is_revoked = ?", targetID, false).
			Updates(map[string]interface{}{
				"is_revoked": true,
				"revoked_at": now,
			}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User deleted"})
}
