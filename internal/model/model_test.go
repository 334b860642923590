package model

import "testing"

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		role     string
		minimum  string
		expected bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleCrew, true},
		{RoleCrew, RoleAdmin, false},
		{RoleCrew, RoleCrew, true},
		// Unknown roles fail-closed.
		{"unknown", RoleCrew, false},
		{"", "", false},
		{"", RoleCrew, false},
	}

	for _, tt := range tests {
		got := RoleAtLeast(tt.role, tt.minimum)
		if got != tt.expected {
			t.Errorf("RoleAtLeast(%q, %q) = %v, want %v", tt.role, tt.minimum, got, tt.expected)
		}
	}
}

func TestParseEventStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    EventStatus
		wantErr bool
	}{
		{"scheduled", EventScheduled, false},
		{"in_progress", EventInProgress, false},
		{"finalized", EventFinalized, false},
		{"Finalizado", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseEventStatus(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseEventStatus(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseEventStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidDate(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"2026-03-14", true},
		{"2026-02-30", false},
		{"14/03/2026", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidDate(tt.in); got != tt.want {
			t.Errorf("ValidDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidCategoryAndMemberRole(t *testing.T) {
	if !ValidCategory(CategoryFurniture) || ValidCategory("Mobiliário") {
		t.Error("category validation mismatch")
	}
	if !ValidMemberRole(MemberDriver) || ValidMemberRole("admin") {
		t.Error("member role validation mismatch")
	}
}
