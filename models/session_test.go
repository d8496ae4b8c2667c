package models

import (
	"testing"
	"time"
)

func TestCSRFExpiredBoundary(t *testing.T) {
	issued := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	session := UserSession{CSRFToken: "token", CSRFIssuedAt: issued}

	cases := []struct {
		name    string
		elapsed time.Duration
		want    bool
	}{
		{"just under validity", CSRFTokenValidity - time.Minute, false},
		{"exactly at validity", CSRFTokenValidity, false},
		{"just past validity", CSRFTokenValidity + time.Minute, true},
	}
	for _, tc := range cases {
		if got := session.CSRFExpired(issued.Add(tc.elapsed)); got != tc.want {
			t.Errorf("%s: CSRFExpired = %v, want %v", tc.name, got, tc.want)
		}
	}
}
