// Package formats reads and writes the plain-text tabular formats used
// around the broadening pipeline: two-column txt/csv series, named-column
// orbital-projected DOS tables, and VASP DOSCAR total-DOS output.
package formats

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"specbroad/spectra"
)

// ErrMalformed indicates a file that could not be parsed as numeric
// column data.
var ErrMalformed = errors.New("formats: malformed input")

// IsCSV reports whether the path looks like comma-separated data.
func IsCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

// IsDoscar reports whether the file is a VASP DOSCAR, identified by the
// literal "CAR" on its fourth line.
func IsDoscar(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for i := 0; i < 4; i++ {
		if !sc.Scan() {
			return false
		}
	}

	return strings.TrimSpace(sc.Text()) == "CAR"
}

// ReadTxt reads a whitespace-delimited two-column numeric file into a
// series. Blank lines and '#' comments are skipped; a leading
// non-numeric header row is tolerated.
func ReadTxt(path string) (spectra.XYSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("formats: %w", err)
	}
	defer f.Close()

	var series spectra.XYSeries

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		p, err := parsePoint(strings.Fields(line))
		if err != nil {
			if len(series) == 0 {
				continue // header row
			}

			return nil, fmt.Errorf("%w: %s: %q", ErrMalformed, path, line)
		}

		series = append(series, p)
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("formats: %s: %w", path, err)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: %s: no numeric rows", ErrMalformed, path)
	}

	return series, nil
}

// ReadCSV reads a comma-separated two-column numeric file into a
// series, tolerating a header row.
func ReadCSV(path string) (spectra.XYSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("formats: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("formats: %s: %w", path, err)
	}

	var series spectra.XYSeries
	for _, rec := range records {
		p, err := parsePoint(rec)
		if err != nil {
			if len(series) == 0 {
				continue
			}

			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, rec)
		}

		series = append(series, p)
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("%w: %s: no numeric rows", ErrMalformed, path)
	}

	return series, nil
}

func parsePoint(fields []string) (spectra.Point, error) {
	if len(fields) < 2 {
		return spectra.Point{}, fmt.Errorf("need two columns, got %d", len(fields))
	}

	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return spectra.Point{}, err
	}

	y, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return spectra.Point{}, err
	}

	return spectra.Point{X: x, Y: y}, nil
}

// ReadDoscar reads the total DOS from a VASP DOSCAR file. For
// spin-polarised output the up and down channels are summed.
func ReadDoscar(path string) (spectra.XYSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("formats: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)

	// Header: system sizes, volume line, temperature line, "CAR",
	// system name, then "emax emin nedos efermi weight".
	for i := 0; i < 5; i++ {
		if !sc.Scan() {
			return nil, fmt.Errorf("%w: %s: truncated header", ErrMalformed, path)
		}
	}

	if !sc.Scan() {
		return nil, fmt.Errorf("%w: %s: missing grid line", ErrMalformed, path)
	}

	grid := strings.Fields(sc.Text())
	if len(grid) < 3 {
		return nil, fmt.Errorf("%w: %s: bad grid line %q", ErrMalformed, path, sc.Text())
	}

	nedos, err := strconv.Atoi(grid[2])
	if err != nil || nedos <= 0 {
		return nil, fmt.Errorf("%w: %s: bad NEDOS %q", ErrMalformed, path, grid[2])
	}

	series := make(spectra.XYSeries, 0, nedos)
	for i := 0; i < nedos && sc.Scan(); i++ {
		fields := strings.Fields(sc.Text())

		vals := make([]float64, len(fields))
		for j, fv := range fields {
			if vals[j], err = strconv.ParseFloat(fv, 64); err != nil {
				return nil, fmt.Errorf("%w: %s: row %d", ErrMalformed, path, i)
			}
		}

		switch {
		case len(vals) >= 5:
			// energy, up, down, integrated up, integrated down
			series = append(series, spectra.Point{X: vals[0], Y: vals[1] + vals[2]})
		case len(vals) >= 2:
			// energy, total[, integrated]
			series = append(series, spectra.Point{X: vals[0], Y: vals[1]})
		default:
			return nil, fmt.Errorf("%w: %s: row %d has %d columns", ErrMalformed, path, i, len(vals))
		}
	}

	if len(series) != nedos {
		return nil, fmt.Errorf("%w: %s: expected %d rows, got %d", ErrMalformed, path, nedos, len(series))
	}

	return series, nil
}

// PDOSTable is one element's orbital-projected DOS as read from a
// named-column text file. Spin channels marked with "(up)"/"(down)"
// suffixes are combined per orbital while reading.
type PDOSTable struct {
	EnergyLabel string
	Energies    []float64
	Labels      []string
	Orbitals    map[string][]float64
}

// ReadPDOSTxt reads a whitespace-delimited table whose first row names
// the columns; the first column is the energy axis.
func ReadPDOSTxt(path string) (*PDOSTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("formats: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)

	var header []string
	for sc.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(sc.Text()), "#"))
		if line == "" {
			continue
		}

		header = strings.Fields(line)
		break
	}

	if len(header) < 2 {
		return nil, fmt.Errorf("%w: %s: missing column header", ErrMalformed, path)
	}

	table := &PDOSTable{
		EnergyLabel: header[0],
		Orbitals:    make(map[string][]float64),
	}

	columns := header[1:]
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		row := len(table.Energies)

		fields := strings.Fields(line)
		if len(fields) != len(header) {
			return nil, fmt.Errorf("%w: %s: row %d has %d columns, header has %d",
				ErrMalformed, path, row, len(fields), len(header))
		}

		e, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: row %d", ErrMalformed, path, row)
		}
		table.Energies = append(table.Energies, e)

		for i, label := range columns {
			v, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: row %d", ErrMalformed, path, row)
			}

			table.accumulate(spinBase(label), row, v)
		}
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("formats: %s: %w", path, err)
	}
	if len(table.Energies) == 0 {
		return nil, fmt.Errorf("%w: %s: no data rows", ErrMalformed, path)
	}

	return table, nil
}

func (t *PDOSTable) accumulate(label string, row int, v float64) {
	col, ok := t.Orbitals[label]
	if !ok {
		t.Labels = append(t.Labels, label)
	}

	if row < len(col) {
		col[row] += v
	} else {
		col = append(col, v)
	}

	t.Orbitals[label] = col
}

// spinBase strips a trailing spin-channel marker from an orbital label.
func spinBase(label string) string {
	for _, suffix := range []string{"(up)", "(down)"} {
		if strings.HasSuffix(label, suffix) {
			return strings.TrimSuffix(label, suffix)
		}
	}

	return label
}
