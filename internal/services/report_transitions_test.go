package services

import (
	"testing"

	types "github.com/floortrack/floortrack-backend/internal/domain"
)

func TestMalfunctionTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		allowed  bool
	}{
		{types.ReportStatusOpen, types.ReportStatusKnown, true},
		{types.ReportStatusOpen, types.ReportStatusSolved, true},
		{types.ReportStatusKnown, types.ReportStatusSolved, true},
		{types.ReportStatusSolved, types.ReportStatusOpen, true}, // reopen
		{types.ReportStatusSolved, types.ReportStatusKnown, false},
		{types.ReportStatusKnown, types.ReportStatusOpen, false},
		{types.ReportStatusOpen, types.ReportStatusOpen, true}, // same-state no-op
	}
	for _, tc := range cases {
		got := reportTransitionAllowed(types.ReportTypeMalfunction, tc.from, tc.to)
		if got != tc.allowed {
			t.Fatalf("malfunction %s -> %s: expected %v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestApprovalTransitions(t *testing.T) {
	for _, reportType := range []string{types.ReportTypeGeneral, types.ReportTypeScrap} {
		if !reportTransitionAllowed(reportType, types.ReportStatusNew, types.ReportStatusApproved) {
			t.Fatalf("%s new -> approved must be allowed", reportType)
		}
		if reportTransitionAllowed(reportType, types.ReportStatusApproved, types.ReportStatusNew) {
			t.Fatalf("%s approved -> new must be rejected", reportType)
		}
		if !reportTransitionAllowed(reportType, types.ReportStatusNew, types.ReportStatusNew) {
			t.Fatalf("%s same-state transition must be a no-op", reportType)
		}
	}
}

func TestUnknownReportTypeForbidden(t *testing.T) {
	if reportTransitionAllowed("bogus", types.ReportStatusOpen, types.ReportStatusSolved) {
		t.Fatalf("unknown report type must never transition")
	}
}

func TestInitialReportStatusForced(t *testing.T) {
	if got, err := initialReportStatus(types.ReportTypeMalfunction); err != nil || got != types.ReportStatusOpen {
		t.Fatalf("malfunction initial: got %q, %v", got, err)
	}
	if got, err := initialReportStatus(types.ReportTypeGeneral); err != nil || got != types.ReportStatusNew {
		t.Fatalf("general initial: got %q, %v", got, err)
	}
	if got, err := initialReportStatus(types.ReportTypeScrap); err != nil || got != types.ReportStatusNew {
		t.Fatalf("scrap initial: got %q, %v", got, err)
	}
	if _, err := initialReportStatus("bogus"); err == nil {
		t.Fatalf("unknown type must error")
	}
}

func TestValidateColorPalette(t *testing.T) {
	if err := validateColor("#4CAF50"); err != nil {
		t.Fatalf("palette color rejected: %v", err)
	}
	if err := validateColor("#4caf50"); err != nil {
		t.Fatalf("palette check must be case-insensitive: %v", err)
	}
	if err := validateColor("#123456"); err == nil {
		t.Fatalf("off-palette color must be rejected")
	}
}
