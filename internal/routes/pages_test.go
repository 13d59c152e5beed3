package routes

import "testing"

func TestPortalPageMetadata(t *testing.T) {
	tests := []struct {
		path        string
		title       string
		description string
	}{
		{"/languages", "Languages - Healthcare Professional Registration", "Select languages you speak"},
		{"/my-shifts", "My Shifts - Healthcare Professional Portal", "View and manage your pharmacy shifts"},
		{"/profile/bank-account", "Bank Account - Profile", "Manage your bank account information"},
		{"/profile", "Profile - Healthcare Professional Portal", "View and manage your healthcare professional profile"},
		{"/profile/settings", "Account Settings - Healthcare Professional Portal", "Manage your account settings and preferences"},
		{"/software", "Software - Healthcare Professional Registration", "Select software you are experienced with"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			meta, ok := MetaFor(tt.path)
			if !ok {
				t.Fatalf("no metadata for %s", tt.path)
			}
			if meta.Title != tt.title {
				t.Errorf("title = %q, want %q", meta.Title, tt.title)
			}
			if meta.Description != tt.description {
				t.Errorf("description = %q, want %q", meta.Description, tt.description)
			}
		})
	}
}

func TestPagesOrderAndCopy(t *testing.T) {
	pages := Pages()
	if len(pages) != 6 {
		t.Fatalf("expected 6 portal pages, got %d", len(pages))
	}
	if pages[0].Path != Languages || pages[5].Path != Software {
		t.Errorf("unexpected order: %s ... %s", pages[0].Path, pages[5].Path)
	}

	pages[0].Meta.Title = "mutated"
	if Pages()[0].Meta.Title == "mutated" {
		t.Error("Pages must return a copy")
	}
}

func TestMetaForUnknown(t *testing.T) {
	if _, ok := MetaFor("/nope"); ok {
		t.Error("unknown path should not have metadata")
	}

	defer func() {
		if recover() == nil {
			t.Error("MustMeta should panic for unknown paths")
		}
	}()
	MustMeta("/nope")
}

func TestShiftAction(t *testing.T) {
	if got := ShiftAction(7, "accept"); got != "/my-shifts/7/accept" {
		t.Errorf("ShiftAction = %s", got)
	}
}
