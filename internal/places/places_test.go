package places

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLoad_EmptyPathUsesDefaults verifies an unset PLACES_FILE falls back to
// the built-in centers.
func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	got, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != len(Defaults()) {
		t.Errorf("loaded %d places, want %d defaults", len(got), len(Defaults()))
	}
}

// TestLoad_ParsesYAMLFile verifies a places file overrides the defaults.
func TestLoad_ParsesYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "places.yaml")
	body := `places:
  - name: Lusaka
    lat: -15.4167
    lon: 28.2833
    kind: city
  - name: Chirundu
    lat: -16.0333
    lon: 28.8500
    kind: town
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("loaded %d places, want 2", len(got))
	}
	if got[0].Name != "Lusaka" || got[0].Kind != KindCity {
		t.Errorf("first place = %+v", got[0])
	}
	if got[1].Lat != -16.0333 {
		t.Errorf("second place lat = %f", got[1].Lat)
	}
}

// TestLoad_RejectsEmptyFile verifies a file listing no places is an error.
func TestLoad_RejectsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "places.yaml")
	if err := os.WriteFile(path, []byte("places: []\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for empty places list")
	}
}
