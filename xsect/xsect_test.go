package xsect

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetBundledAlka(t *testing.T) {
	table, err := Get("alka", nil)
	if err != nil {
		t.Fatal(err)
	}

	if table.Energy != "1486.6 eV" {
		t.Fatalf("energy = %q, want \"1486.6 eV\"", table.Energy)
	}
	if !strings.Contains(table.Citation, "Yeh") {
		t.Fatalf("citation = %q, want a Yeh/Lindau reference", table.Citation)
	}

	na, ok := table.Element("Na")
	if !ok {
		t.Fatal("element Na missing from bundled table")
	}

	s, present := na.Weight("s")
	if !present || s == nil {
		t.Fatal("Na s cross-section missing")
	}
	if *s <= 0 {
		t.Fatalf("Na s cross-section = %v, want positive", *s)
	}

	d, present := na.Weight("d")
	if !present {
		t.Fatal("Na d entry missing")
	}
	if d != nil {
		t.Fatalf("Na d cross-section = %v, want null (no occupied d states)", *d)
	}
}

func TestGetBundledDatasets(t *testing.T) {
	for _, name := range []string{"alka", "he2", "yeh_haxpes"} {
		t.Run(name, func(t *testing.T) {
			table, err := Get(name, nil)
			if err != nil {
				t.Fatal(err)
			}
			if len(table.Elements()) == 0 {
				t.Fatal("bundled table has no elements")
			}
			if table.Energy == "" {
				t.Fatal("bundled table has no photon energy metadata")
			}
		})
	}
}

func TestGetLegacyKeysRejected(t *testing.T) {
	tests := []struct {
		key     string
		suggest string
	}{
		{"xps", "alka"},
		{"ups", "he2"},
		{"haxpes", "yeh_haxpes"},
	}

	for _, tt := range tests {
		_, err := Get(tt.key, nil)
		if !errors.Is(err, ErrUnknownWeighting) {
			t.Fatalf("%q: err = %v, want ErrUnknownWeighting", tt.key, err)
		}
		if !strings.Contains(err.Error(), tt.suggest) {
			t.Fatalf("%q: error %q does not suggest %q", tt.key, err, tt.suggest)
		}
	}
}

func TestGetNumericEnergyUsesScofield(t *testing.T) {
	table, err := Get("8", []string{"Si", "O"})
	if err != nil {
		t.Fatal(err)
	}

	if table.Energy != "8 keV" {
		t.Fatalf("energy = %q, want \"8 keV\"", table.Energy)
	}

	si, ok := table.Element("Si")
	if !ok {
		t.Fatal("element Si missing")
	}

	s, _ := si.Weight("s")
	if s == nil || *s <= 0 {
		t.Fatalf("Si s = %v, want positive", s)
	}

	p, _ := si.Weight("p")
	if p == nil || *p <= 0 {
		t.Fatal("Si p missing or non-positive")
	}
	// s states dominate p at hard-x-ray energies.
	if *s <= *p {
		t.Fatalf("Si s (%v) should exceed Si p (%v) at 8 keV", *s, *p)
	}
}

func TestScofieldEnergyRange(t *testing.T) {
	for _, energy := range []float64{0.5, 1501} {
		if _, err := Scofield(energy, nil); !errors.Is(err, ErrEnergyRange) {
			t.Fatalf("%v keV: err = %v, want ErrEnergyRange", energy, err)
		}
	}

	// Boundary values are accepted.
	for _, energy := range []float64{1, 1500} {
		if _, err := Scofield(energy, nil); err != nil {
			t.Fatalf("%v keV: %v", energy, err)
		}
	}
}

func TestScofieldSkipsUnfittedElements(t *testing.T) {
	table, err := Scofield(10, []string{"Si", "Xx"})
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := table.Element("Xx"); ok {
		t.Fatal("unfitted element Xx present in output")
	}
	if _, ok := table.Element("Si"); !ok {
		t.Fatal("fitted element Si missing from output")
	}
}

func TestGetUserJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.json")
	doc := `{
  "energy": "21.2 eV",
  "Zn": {"s": 0.3, "p": null, "d": 2.5},
  "C": {"s": 0.9, "p": 0.1}
}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := Get(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	if table.Energy != "21.2 eV" {
		t.Fatalf("energy = %q, want \"21.2 eV\"", table.Energy)
	}

	// Document order is preserved.
	got := table.Elements()
	if len(got) != 2 || got[0] != "Zn" || got[1] != "C" {
		t.Fatalf("elements = %v, want [Zn C]", got)
	}

	zn, _ := table.Element("Zn")
	d, _ := zn.Weight("d")
	if d == nil || *d != 2.5 {
		t.Fatalf("Zn d = %v, want 2.5", d)
	}
	p, present := zn.Weight("p")
	if !present || p != nil {
		t.Fatal("Zn p should be present and null")
	}
}

func TestGetMissingFile(t *testing.T) {
	if _, err := Get(filepath.Join(t.TempDir(), "nope.json"), nil); err == nil {
		t.Fatal("expected error for missing weighting file")
	}
}

func TestDecodeElementWarning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.json")
	doc := `{"La": {"s": 0.1, "warning": "f-electron values are estimates"}}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := FromJSONFile(path)
	if err != nil {
		t.Fatal(err)
	}

	la, _ := table.Element("La")
	if la.Warning == "" {
		t.Fatal("element warning not decoded")
	}
}
