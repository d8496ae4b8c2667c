package models

import "time"

// UserSession is the server-side half of a login session. The browser
// holds a signed cookie wrapping SessionID; everything revocable lives
// here, including the CSRF token bound to the session.
type UserSession struct {
	SessionID     string     `gorm:"primaryKey;column:session_id" json:"session_id"`
	UserID        int        `gorm:"column:user_id" json:"user_id"`
	CSRFToken     string     `gorm:"column:csrf_token" json:"-"`
	CSRFIssuedAt  time.Time  `gorm:"column:csrf_issued_at" json:"-"`
	DeviceInfo    string     `gorm:"column:device_info" json:"device_info"`
	IPAddress     string     `gorm:"column:ip_address" json:"ip_address"`
	IsRevoked     bool       `gorm:"column:is_revoked" json:"is_revoked"`
	LastSeenAt    time.Time  `gorm:"column:last_seen_at" json:"last_seen_at"`
	CreatedAt     time.Time  `gorm:"column:created_at" json:"created_at"`
	RevokedAt     *time.Time `gorm:"column:revoked_at" json:"revoked_at,omitempty"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (UserSession) TableName() string {
	return "user_sessions"
}

// CSRFTokenValidity is how long a session's CSRF token is accepted
// before it is rotated. Comparison is always against the single current
// token; there is no sliding window of older tokens.
const CSRFTokenValidity = 2 * time.Hour

// CSRFExpired reports whether the session's CSRF token is past its
// validity window at the given instant.
func (s *UserSession) CSRFExpired(now time.Time) bool {
	return now.Sub(s.CSRFIssuedAt) > CSRFTokenValidity
}
