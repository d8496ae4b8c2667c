package routes

import (
	"net/http"

	"campus-life-api/controllers"
	"campus-life-api/middleware"
	"campus-life-api/models"

	"github.com/gin-gonic/gin"
)

// Route binds a rule from the static table to its handler. The table is
// resolved once at startup; an unknown path never reaches a handler.
type Route struct {
	middleware.RouteRule
	Handler gin.HandlerFunc
}

func rule(name, method, path string, requiresAuth bool, minTier int, csrfExempt bool) middleware.RouteRule {
	return middleware.RouteRule{
		Name:         name,
		Method:       method,
		Path:         path,
		RequiresAuth: requiresAuth,
		MinTier:      minTier,
		CSRFExempt:   csrfExempt,
	}
}

// Table is the full route table. login, register and verify-email are
// CSRF-exempt: they carry the first form a session ever submits.
func Table() []Route {
	return []Route{
		// Public
		{rule("register", http.MethodPost, "/api/v1/register", false, 0, true), controllers.Register},
		{rule("verify-email", http.MethodPost, "/api/v1/verify-email", false, 0, true), controllers.VerifyEmail},
		{rule("login", http.MethodPost, "/api/v1/login", false, 0, true), controllers.Login},
		{rule("health", http.MethodGet, "/api/v1/health", false, 0, true), controllers.Health},

		// Session management
		{rule("logout", http.MethodPost, "/api/v1/logout", true, 0, false), controllers.Logout},
		{rule("profile", http.MethodGet, "/api/v1/profile", true, 0, false), controllers.GetProfile},
		{rule("change-password", http.MethodPut, "/api/v1/change-password", true, 0, false), controllers.ChangePassword},
		{rule("notifications", http.MethodGet, "/api/v1/notifications", true, 0, false), controllers.GetNotifications},

		// Submissions
		{rule("create-club", http.MethodPost, "/api/v1/clubs", true, models.TierStudent, false), controllers.CreateClub},
		{rule("my-clubs", http.MethodGet, "/api/v1/clubs", true, models.TierStudent, false), controllers.GetClubs},
		{rule("club-detail", http.MethodGet, "/api/v1/clubs/:id", true, models.TierStudent, false), controllers.GetClub},
		{rule("join-club", http.MethodPost, "/api/v1/clubs/:id/join", true, models.TierStudent, false), controllers.JoinClub},
		{rule("leave-club", http.MethodPost, "/api/v1/clubs/:id/leave", true, models.TierStudent, false), controllers.LeaveClub},
		{rule("club-members", http.MethodGet, "/api/v1/clubs/:id/members", true, models.TierStudent, false), controllers.GetClubMembers},
		{rule("export-members", http.MethodGet, "/api/v1/clubs/:id/members/export", true, models.TierTutor, false), controllers.ExportClubMembers},
		{rule("create-event", http.MethodPost, "/api/v1/events", true, models.TierStudent, false), controllers.CreateEvent},
		{rule("my-events", http.MethodGet, "/api/v1/events", true, models.TierStudent, false), controllers.GetEvents},
		{rule("upcoming-events", http.MethodGet, "/api/v1/events/upcoming", true, models.TierStudent, false), controllers.UpcomingEvents},
		{rule("event-detail", http.MethodGet, "/api/v1/events/:id", true, models.TierStudent, false), controllers.GetEvent},
		{rule("subscribe-event", http.MethodPost, "/api/v1/events/:id/subscribe", true, models.TierStudent, false), controllers.SubscribeEvent},
		{rule("unsubscribe-event", http.MethodPost, "/api/v1/events/:id/unsubscribe", true, models.TierStudent, false), controllers.UnsubscribeEvent},
		{rule("list-records", http.MethodGet, "/api/v1/records/:entity", true, models.TierStudent, false), controllers.ListRecords},

		// Tutor review
		{rule("pending-clubs", http.MethodGet, "/api/v1/review/pending-clubs", true, models.TierTutor, false), controllers.PendingClubs},
		{rule("pending-events", http.MethodGet, "/api/v1/review/pending-events", true, models.TierTutor, false), controllers.PendingEvents},
		{rule("validate-club", http.MethodPost, "/api/v1/review/validate-club", true, models.TierTutor, false), controllers.ValidateClub},
		{rule("validate-event", http.MethodPost, "/api/v1/review/validate-event", true, models.TierTutor, false), controllers.ValidateEvent},

		// Board review (events only)
		{rule("board-queue", http.MethodGet, "/api/v1/review/board-queue", true, models.TierBoard, false), controllers.BoardQueue},
		{rule("board-decision", http.MethodPost, "/api/v1/review/board-decision", true, models.TierBoard, false), controllers.BoardDecision},

		// Final validation
		{rule("final-queue", http.MethodGet, "/api/v1/review/final-queue", true, models.TierBoard, false), controllers.FinalQueue},
		{rule("final-club", http.MethodPost, "/api/v1/review/final-club", true, models.TierBoard, false), controllers.FinalClub},
		{rule("final-event", http.MethodPost, "/api/v1/review/final-event", true, models.TierBoard, false), controllers.FinalEvent},
		{rule("bulk-approve", http.MethodPost, "/api/v1/review/bulk-approve", true, models.TierBoard, false), controllers.BulkApprove},

		// Administration
		{rule("assign-tutor", http.MethodPost, "/api/v1/admin/assign-tutor", true, models.TierBoard, false), controllers.AssignTutor},
		{rule("delete-club", http.MethodDelete, "/api/v1/admin/clubs/:id", true, models.TierBoard, false), controllers.DeleteClub},
		{rule("delete-event", http.MethodDelete, "/api/v1/admin/events/:id", true, models.TierBoard, false), controllers.DeleteEvent},
		{rule("archive-event", http.MethodPost, "/api/v1/admin/events/:id/archive", true, models.TierAdmin, false), controllers.ArchiveEvent},
		{rule("archive-sweep", http.MethodPost, "/api/v1/admin/archive-sweep", true, models.TierAdmin, false), controllers.ArchiveSweep},
		{rule("list-users", http.MethodGet, "/api/v1/admin/users", true, models.TierBoard, false), controllers.ListUsers},
		{rule("set-user-tier", http.MethodPut, "/api/v1/admin/users/:id/tier", true, models.TierAdmin, false), controllers.SetUserTier},
		{rule("delete-user", http.MethodDelete, "/api/v1/admin/users/:id", true, models.TierAdmin, false), controllers.DeleteUser},
	}
}

// SetupRoutes registers the table on the engine and installs the 404
// catch-all for unknown routes.
func SetupRoutes(router *gin.Engine) {
	for _, route := range Table() {
		route := route
		router.Handle(route.Method, route.Path, middleware.Gate(route.RouteRule), route.Handler)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
}
