package services

import (
	"fmt"
	"log"

	"campus-life-api/config"
	"campus-life-api/models"

	"gorm.io/gorm"
)

// TemplateKind selects which notification template is rendered. The
// workflow layer only picks a kind; wording and transport live here.
type TemplateKind string

const (
	TemplateTutorAssigned       TemplateKind = "tutor_assigned"
	TemplateSubmissionValidated TemplateKind = "submission_validated"
	TemplateSubmissionRejected  TemplateKind = "submission_rejected"
)

// Notifier delivers a notification to a user. Implementations own
// transport, retries and formatting; callers treat delivery as
// best-effort and never roll back committed state on failure.
type Notifier interface {
	Notify(recipientID int, kind TemplateKind, ctx map[string]string) error
}

// MailNotifier sends an e-mail via SMTP and records an in-app
// notification row.
type MailNotifier struct {
	db *gorm.DB
}

func NewMailNotifier(db *gorm.DB) *MailNotifier {
	return &MailNotifier{db: db}
}

func (n *MailNotifier) Notify(recipientID int, kind TemplateKind, ctx map[string]string) error {
	var user models.User
	if err := n.db.Where("user_id = ? AND delete_at IS NULL", recipientID).First(&user).Error; err != nil {
		return fmt.Errorf("notifier: recipient %d not found: %w", recipientID, err)
	}

	subject, body := renderTemplate(kind, user, ctx)

	notification := models.Notification{
		UserID:  uint(recipientID),
		Title:   subject,
		Message: body,
		Type:    notificationType(kind),
	}
	if name, ok := ctx["record_kind"]; ok {
		kindCopy := name
		notification.RelatedKind = &kindCopy
	}
	if err := n.db.Create(&notification).Error; err != nil {
		log.Printf("notifier: failed to store notification for user %d: %v", recipientID, err)
	}

	html := fmt.Sprintf("<p>%s</p>", body)
	return config.SendMail([]string{user.Email}, subject, html)
}

func notificationType(kind TemplateKind) string {
	switch kind {
	case TemplateSubmissionRejected:
		return "warning"
	case TemplateSubmissionValidated:
		return "success"
	default:
		return "info"
	}
}

func renderTemplate(kind TemplateKind, user models.User, ctx map[string]string) (string, string) {
	name := ctx["record_name"]
	switch kind {
	case TemplateTutorAssigned:
		return "New submission assigned to you",
			fmt.Sprintf("Dear %s, you have been assigned as tutor for %q. Please review it in your pending queue.", user.FullName(), name)
	case TemplateSubmissionValidated:
		return "Your submission has been validated",
			fmt.Sprintf("Dear %s, your submission %q has been approved.", user.FullName(), name)
	case TemplateSubmissionRejected:
		reason := ctx["reason"]
		return "Your submission has been rejected",
			fmt.Sprintf("Dear %s, your submission %q has been rejected. Reason: %s", user.FullName(), name, reason)
	default:
		return "Notification", fmt.Sprintf("Dear %s, there is an update on %q.", user.FullName(), name)
	}
}
