package controllers

import (
	"encoding/csv"
	"fmt"
	"log"
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

type CreateClubRequest struct {
	ClubName    string `json:"club_name" binding:"required"`
	Description string `json:"description"`
}

// CreateClub registers a new club submission. It starts with both
// review stages pending; the owner becomes its first member.
func CreateClub(c *gin.Context) {
	var req CreateClubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	now := time.Now()

	club := models.Club{
		ClubNumber:    fmt.Sprintf("CLB-%d-%s", now.Year(), strings.ToUpper(uuid.NewString()[:8])),
		ClubName:      utils.SanitizeInput(req.ClubName),
		OwnerID:       userID,
		TutorApproval: models.ApprovalPending,
		FinalStatus:   models.FinalPending,
		CreatedAt:     now,
	}
	if req.Description != "" {
		desc := utils.SanitizeInput(req.Description)
		club.Description = &desc
	}

	if err := config.DB.Create(&club).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create club"})
		return
	}

	membership := models.ClubMembership{ClubID: club.ClubID, UserID: userID, JoinedAt: now}
	if err := config.DB.Create(&membership).Error; err != nil {
		log.Printf("failed to add owner membership for club %d: %v", club.ClubID, err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Club submitted for review",
		"club":    club,
	})
}

// clubStatusFilter maps a request filter onto a final_status match.
// Archived is its own filter; it is never folded into validated or
// rejected.
func clubStatusFilter(filter string) (models.FinalStatus, bool) {
	switch filter {
	case "pending":
		return models.FinalPending, true
	case "validated":
		return models.FinalApproved, true
	case "rejected":
		return models.FinalRejected, true
	case "archived":
		return models.FinalArchived, true
	default:
		return "", false
	}
}

// GetClubs lists clubs. With ?filter=mine only clubs the user owns or
// belongs to are returned; a status filter narrows by final state.
func GetClubs(c *gin.Context) {
	userID := c.GetInt("userID")

	query := config.DB.Preload("Owner").Preload("AssignedTutor").
		Where("clubs.deleted_at IS NULL")

	filter := strings.TrimSpace(c.Query("filter"))
	switch filter {
	case "", "all":
	case "mine":
		query = query.
			Joins("LEFT JOIN club_memberships ON club_memberships.club_id = clubs.club_id").
			Where("clubs.owner_id = ? OR club_memberships.user_id = ?", userID, userID).
			Distinct("clubs.*")
	default:
		status, ok := clubStatusFilter(filter)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter"})
			return
		}
		query = query.Where("clubs.final_status = ?", status)
	}

	var clubs []models.Club
	if err := query.Order("clubs.created_at DESC").Find(&clubs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch clubs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"clubs":   clubs,
		"total":   len(clubs),
	})
}

// GetClub returns one club with its reviewer relations.
func GetClub(c *gin.Context) {
	clubID, err := strconv.Atoi(c.Param("id"))
	if err != nil || clubID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid club ID"})
		return
	}

	var club models.Club
	if err := config.DB.Preload("Owner").Preload("AssignedTutor").
		Where("club_id = ? AND deleted_at IS NULL", clubID).
		First(&club).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Club not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "club": club})
}

// JoinClub adds the current user to a validated club.
func JoinClub(c *gin.Context) {
	clubID, err := strconv.Atoi(c.Param("id"))
	if err != nil || clubID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid club ID"})
		return
	}
	userID := c.GetInt("userID")

	var club models.Club
	if err := config.DB.Where("club_id = ? AND deleted_at IS NULL", clubID).First(&club).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Club not found"})
		return
	}
	if club.FinalStatus != models.FinalApproved {
		c.JSON(http.StatusConflict, gin.H{"error": "Club is not open for membership"})
		return
	}

	var existing models.ClubMembership
	if err := config.DB.Where("club_id = ? AND user_id = ?", clubID, userID).First(&existing).Error; err == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Already a member"})
		return
	}

	membership := models.ClubMembership{ClubID: clubID, UserID: userID, JoinedAt: time.Now()}
	if err := config.DB.Create(&membership).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join club"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Joined club"})
}

// LeaveClub removes the current user's membership.
func LeaveClub(c *gin.Context) {
	clubID, err := strconv.Atoi(c.Param("id"))
	if err != nil || clubID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid club ID"})
		return
	}
	userID := c.GetInt("userID")

	result := config.DB.Where("club_id = ? AND user_id = ?", clubID, userID).
		Delete(&models.ClubMembership{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to leave club"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Membership not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Left club"})
}

// GetClubMembers lists a club's members.
func GetClubMembers(c *gin.Context) {
	clubID, err := strconv.Atoi(c.Param("id"))
	if err != nil || clubID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid club ID"})
		return
	}

	var members []models.ClubMembership
	if err := config.DB.Preload("User").
		Where("club_id = ?", clubID).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch members"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"members": members,
		"total":   len(members),
	})
}

// ExportClubMembers streams the member list as CSV.
func ExportClubMembers(c *gin.Context) {
	clubID, err := strconv.Atoi(c.Param("id"))
	if err != nil || clubID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid club ID"})
		return
	}

	var members []models.ClubMembership
	if err := config.DB.Preload("User").
		Where("club_id = ?", clubID).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch members"})
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=club-%d-members.csv", clubID))

	writer := csv.NewWriter(c.Writer)
	_ = writer.Write([]string{"name", "email", "joined_at"})
	for _, m := range members {
		name, email := "", ""
		if m.User != nil {
			name = m.User.FullName()
			email = m.User.Email
		}
		_ = writer.Write([]string{name, email, m.JoinedAt.Format(time.RFC3339)})
	}
	writer.Flush()
}

// ListRecords lists a collection chosen by name. The entity parameter
// is resolved against the closed allow-list before any query runs.
func ListRecords(c *gin.Context) {
	entity, ok := models.ResolveEntity(c.Param("entity"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown collection"})
		return
	}

	filter := strings.TrimSpace(c.Query("status"))
	var status models.FinalStatus
	haveStatus := false
	if filter != "" {
		status, haveStatus = clubStatusFilter(filter)
		if !haveStatus {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
			return
		}
	}

	switch entity {
	case models.EntityClubs:
		query := config.DB.Preload("Owner").Where("deleted_at IS NULL")
		if haveStatus {
			query = query.Where("final_status = ?", status)
		}
		var clubs []models.Club
		if err := query.Order("created_at DESC").Find(&clubs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch records"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "records": clubs, "total": len(clubs)})
	case models.EntityEvents:
		query := config.DB.Preload("Owner").Where("deleted_at IS NULL")
		if haveStatus {
			query = query.Where("final_status = ?", status)
		}
		var events []models.Event
		if err := query.Order("created_at DESC").Find(&events).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch records"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "records": events, "total": len(events)})
	}
}
