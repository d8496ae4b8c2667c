package controllers

import (
	"testing"

	"campus-life-api/models"
)

func TestClubStatusFilterKeepsArchivedDistinct(t *testing.T) {
	cases := []struct {
		filter string
		want   models.FinalStatus
		ok     bool
	}{
		{"pending", models.FinalPending, true},
		{"validated", models.FinalApproved, true},
		{"rejected", models.FinalRejected, true},
		{"archived", models.FinalArchived, true},
		{"deleted", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := clubStatusFilter(tc.filter)
		if ok != tc.ok || got != tc.want {
			t.Errorf("clubStatusFilter(%q) = (%q, %v), want (%q, %v)", tc.filter, got, ok, tc.want, tc.ok)
		}
	}

	// An archived record must never surface under validated or rejected.
	validated, _ := clubStatusFilter("validated")
	rejected, _ := clubStatusFilter("rejected")
	archived, _ := clubStatusFilter("archived")
	if archived == validated || archived == rejected {
		t.Fatalf("archived filter overlaps another status: %q", archived)
	}
}

func TestParseEventDateAcceptsBothLayouts(t *testing.T) {
	if _, err := parseEventDate("2026-10-01"); err != nil {
		t.Fatalf("date-only layout rejected: %v", err)
	}
	if _, err := parseEventDate("2026-10-01T18:30:00Z"); err != nil {
		t.Fatalf("RFC3339 layout rejected: %v", err)
	}
	if _, err := parseEventDate("01/10/2026"); err == nil {
		t.Fatal("expected slash-formatted date to be rejected")
	}
}
