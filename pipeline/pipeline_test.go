package pipeline

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"specbroad/internal/testutil"
	"specbroad/spectra"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProcess1DInterpolate(t *testing.T) {
	path := writeFile(t, t.TempDir(), "dos.txt", "1 0.5\n3 1.5\n")

	grid, got, err := Process1D(path,
		WithXMin(0), WithXMax(6), WithSampling(1))
	if err != nil {
		t.Fatal(err)
	}

	if grid.Len() != 6 {
		t.Fatalf("grid len = %d, want 6", grid.Len())
	}
	testutil.RequireSliceNearlyEqual(t, got, []float64{0, 0.5, 1.0, 1.5, 0, 0}, 1e-12)
}

func TestProcess1DSpikes(t *testing.T) {
	path := writeFile(t, t.TempDir(), "raman.txt", "2.1 0.6\n4.3 0.2\n5.1 0.3\n")

	_, got, err := Process1D(path,
		WithXMin(0), WithXMax(6), WithSampling(1), WithSpikes())
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireSliceNearlyEqual(t, got, []float64{0, 0, 0.6, 0, 0.2, 0.3}, 1e-12)
}

func TestProcess1DAutoLimits(t *testing.T) {
	path := writeFile(t, t.TempDir(), "dos.txt", "0 1\n10 2\n")

	grid, _, err := Process1D(path, WithSampling(0.5))
	if err != nil {
		t.Fatal(err)
	}

	// The data range is padded outward by 5%.
	testutil.RequireNearlyEqual(t, grid.Min, -0.5, 1e-12)
	testutil.RequireNearlyEqual(t, grid.Max, 10.5, 1e-12)
}

func TestProcess1DBroadened(t *testing.T) {
	path := writeFile(t, t.TempDir(), "dos.txt", "1 0.5\n3 1.5\n")

	grid, got, err := Process1D(path,
		WithXMin(0), WithXMax(6), WithSampling(0.1),
		WithLorentzian(0.3), WithGaussian(0.2))
	if err != nil {
		t.Fatal(err)
	}

	if len(got) != grid.Len() {
		t.Fatalf("sample len %d, grid len %d", len(got), grid.Len())
	}
	testutil.RequireFinite(t, got)

	sum := 0.0
	for _, v := range got {
		sum += v
	}
	if sum <= 0 {
		t.Fatal("broadened output sums to zero")
	}
}

func TestProcess1DReadsCSV(t *testing.T) {
	path := writeFile(t, t.TempDir(), "dos.csv", "Energy,DOS\n1,0.5\n3,1.5\n")

	_, got, err := Process1D(path, WithXMin(0), WithXMax(6), WithSampling(1))
	if err != nil {
		t.Fatal(err)
	}

	testutil.RequireSliceNearlyEqual(t, got, []float64{0, 0.5, 1.0, 1.5, 0, 0}, 1e-12)
}

func TestProcess1DFlipUnsupported(t *testing.T) {
	path := writeFile(t, t.TempDir(), "dos.txt", "1 0.5\n3 1.5\n")

	_, _, err := Process1D(path, WithFlipX())
	if !errors.Is(err, ErrFlipUnsupported) {
		t.Fatalf("err = %v, want ErrFlipUnsupported", err)
	}
}

func TestProcess1DMissingFile(t *testing.T) {
	_, _, err := Process1D(filepath.Join(t.TempDir(), "nope.txt"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("err = %v, want fs.ErrNotExist", err)
	}
}

const pdosGa = `# Energy s p
0 1 2
2 1 2
4 1 2
`

const pdosAs = `# Energy s p
0 4 0
2 4 0
4 4 0
`

func TestProcessPDOS(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "test_Ga_dos.dat", pdosGa),
		writeFile(t, dir, "test_As_dos.dat", pdosAs),
	}

	series, err := ProcessPDOS(paths, WithXMin(0), WithXMax(6), WithSampling(1))
	if err != nil {
		t.Fatal(err)
	}

	got := series.Elements()
	if len(got) != 2 || got[0] != "Ga" || got[1] != "As" {
		t.Fatalf("elements = %v, want [Ga As]", got)
	}

	ga, _ := series.Element("Ga")
	if orbs := ga.Orbitals(); len(orbs) != 2 || orbs[0] != "s" || orbs[1] != "p" {
		t.Fatalf("Ga orbitals = %v, want [s p]", ga.Orbitals())
	}

	// Constant columns interpolate to their value inside the source
	// range and fall to zero beyond it.
	s, _ := ga.Orbital("s")
	testutil.RequireSliceNearlyEqual(t, s, []float64{1, 1, 1, 1, 1, 0}, 1e-12)

	as, _ := series.Element("As")
	p, _ := as.Orbital("p")
	testutil.RequireSliceNearlyEqual(t, p, []float64{0, 0, 0, 0, 0, 0}, 1e-12)

	testutil.RequireSliceNearlyEqual(t, ga.Energy(), []float64{0, 1, 2, 3, 4, 5}, 1e-12)
}

func TestProcessPDOSUnionLimits(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "a_Ga_dos.dat", "# Energy s\n0 1\n4 1\n"),
		writeFile(t, dir, "a_As_dos.dat", "# Energy s\n2 1\n10 1\n"),
	}

	series, err := ProcessPDOS(paths, WithSampling(0.5))
	if err != nil {
		t.Fatal(err)
	}

	ga, _ := series.Element("Ga")
	energy := ga.Energy()

	// Union of the per-file 5%-padded ranges: [-0.2, 4.2] and [1.6, 10.4].
	testutil.RequireNearlyEqual(t, energy[0], -0.2, 1e-9)
	testutil.RequireNearlyEqual(t, energy[len(energy)-1], 10.4, 0.5+1e-9)
}

func TestProcessPDOSInconsistentEnergyLabels(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "a_Ga_dos.dat", "# Energy s\n0 1\n4 1\n"),
		writeFile(t, dir, "a_As_dos.dat", "# E s\n0 1\n4 1\n"),
	}

	_, err := ProcessPDOS(paths)
	if !errors.Is(err, ErrInconsistentEnergy) {
		t.Fatalf("err = %v, want ErrInconsistentEnergy", err)
	}
}

func TestProcessPDOSBadFilename(t *testing.T) {
	dir := t.TempDir()
	paths := []string{writeFile(t, dir, "dos.dat", "# Energy s\n0 1\n4 1\n")}

	_, err := ProcessPDOS(paths)
	if !errors.Is(err, ErrBadFilename) {
		t.Fatalf("err = %v, want ErrBadFilename", err)
	}
}

func TestProcessPDOSEmptyInput(t *testing.T) {
	_, err := ProcessPDOS(nil)
	if !errors.Is(err, spectra.ErrEmptyData) {
		t.Fatalf("err = %v, want ErrEmptyData", err)
	}
}

func TestProcessPDOSWeighting(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "test_Ga_dos.dat", pdosGa),
		writeFile(t, dir, "test_As_dos.dat", pdosAs),
	}
	weights := writeFile(t, dir, "weights.json",
		`{"Ga": {"s": 2.0, "p": null}, "As": {"s": 1.0, "p": 1.0}}`)

	series, err := ProcessPDOS(paths,
		WithXMin(0), WithXMax(6), WithSampling(1), WithWeighting(weights))
	if err != nil {
		t.Fatal(err)
	}

	ga, _ := series.Element("Ga")

	// Null weight suppresses the orbital entirely.
	if _, ok := ga.Orbital("p"); ok {
		t.Fatal("null-weighted orbital Ga p was kept")
	}

	s, _ := ga.Orbital("s")
	testutil.RequireSliceNearlyEqual(t, s, []float64{2, 2, 2, 2, 2, 0}, 1e-12)
}

func TestProcessPDOSWeightingMissingElement(t *testing.T) {
	dir := t.TempDir()
	paths := []string{writeFile(t, dir, "test_Ga_dos.dat", pdosGa)}
	weights := writeFile(t, dir, "weights.json", `{"As": {"s": 1.0}}`)

	_, err := ProcessPDOS(paths,
		WithXMin(0), WithXMax(6), WithSampling(1), WithWeighting(weights))
	if !errors.Is(err, spectra.ErrMissingCrossSection) {
		t.Fatalf("err = %v, want ErrMissingCrossSection", err)
	}
}

func TestProcessPDOSFlipX(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "test_Ga_dos.dat", "# Energy s\n0 0\n2 0\n4 6\n"),
	}

	series, err := ProcessPDOS(paths, WithSampling(1), WithFlipX())
	if err != nil {
		t.Fatal(err)
	}

	ga, _ := series.Element("Ga")
	energy := ga.Energy()

	// Auto limits [-0.2, 4.2] are mirrored to [-4.2, 0.2] and the data
	// x values are negated, moving the x=4 peak to x=-4.
	testutil.RequireNearlyEqual(t, energy[0], -4.2, 1e-9)

	s, _ := ga.Orbital("s")
	testutil.RequireSliceNearlyEqual(t, s, []float64{0, 3.6, 0.6, 0, 0}, 1e-9)
}

func TestElementFromFilename(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"SnO2_Sn_dos.dat", "Sn"},
		{"/tmp/run1/batio3_Ti_dos.dat", "Ti"},
		{"long_system_name_O_dos.txt", "O"},
	}

	for _, tt := range tests {
		got, err := elementFromFilename(tt.path)
		if err != nil {
			t.Fatalf("%s: %v", tt.path, err)
		}
		if got != tt.want {
			t.Fatalf("%s: got %q, want %q", tt.path, got, tt.want)
		}
	}

	if _, err := elementFromFilename("dos.dat"); !errors.Is(err, ErrBadFilename) {
		t.Fatalf("err = %v, want ErrBadFilename", err)
	}
}
