package slug

import "testing"

func TestMake(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Peak Black", "peak-black"},
		{"Peak Black (2nd Gen)", "peak-black-2nd-gen"},
		{"  Spaced  Out  ", "spaced-out"},
		{"ALL CAPS", "all-caps"},
		{"already-a-slug", "already-a-slug"},
	}

	for _, tt := range tests {
		if got := Make(tt.name); got != tt.want {
			t.Errorf("Make(%q): expected %q, got %q", tt.name, tt.want, got)
		}
	}
}

func TestUnique_FirstFree(t *testing.T) {
	taken := func(s string) (bool, error) { return false, nil }

	got, err := Unique("peak-black", taken)
	if err != nil {
		t.Fatalf("Unique failed: %v", err)
	}
	if got != "peak-black" {
		t.Errorf("Expected peak-black, got %s", got)
	}
}

func TestUnique_RetriesWithSuffix(t *testing.T) {
	existing := map[string]bool{
		"peak-black":   true,
		"peak-black-2": true,
	}
	taken := func(s string) (bool, error) { return existing[s], nil }

	got, err := Unique("peak-black", taken)
	if err != nil {
		t.Fatalf("Unique failed: %v", err)
	}
	if got != "peak-black-3" {
		t.Errorf("Expected peak-black-3, got %s", got)
	}
}
