package normalize

import "testing"

func TestEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"User@Example.COM", "user@example.com"},
		{"  user@example.com  ", "user@example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Email(tt.in); got != tt.want {
			t.Errorf("Email(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Jane Doe  ", "Jane Doe"},
		{"Jane Doe", "Jane Doe"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Name(tt.in); got != tt.want {
			t.Errorf("Name(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRoleAndStatus(t *testing.T) {
	if got := Role("  Admin "); got != "admin" {
		t.Errorf("Role = %q", got)
	}
	if got := Status(" PENDING"); got != "pending" {
		t.Errorf("Status = %q", got)
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Board Game Nights", "board-game-nights"},
		{"  Rock & Roll!!  ", "rock-roll"},
		{"already-a-slug", "already-a-slug"},
		{"___", ""},
		{"Trail--Runners", "trail-runners"},
	}
	for _, tt := range tests {
		if got := Slug(tt.in); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
