package formats

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"specbroad/spectra"
)

// Format selects the persisted text layout.
type Format int

const (
	// FormatTxt writes space-delimited fixed-exponent columns.
	FormatTxt Format = iota
	// FormatCSV writes comma-separated values.
	FormatCSV
)

// WriteTxt writes two space-delimited numeric columns. A non-empty
// header is written first as-is; include your own comment marker.
func WriteTxt(w io.Writer, x, y []float64, header string) error {
	if len(x) != len(y) {
		return fmt.Errorf("formats: column length mismatch: %d vs %d", len(x), len(y))
	}

	if header != "" {
		if _, err := fmt.Fprintln(w, header); err != nil {
			return err
		}
	}

	for i := range x {
		if _, err := fmt.Fprintf(w, "%10.6e %10.6e\n", x[i], y[i]); err != nil {
			return err
		}
	}

	return nil
}

// WriteCSV writes two comma-separated numeric columns with an optional
// header row.
func WriteCSV(w io.Writer, x, y []float64, header []string) error {
	if len(x) != len(y) {
		return fmt.Errorf("formats: column length mismatch: %d vs %d", len(x), len(y))
	}

	cw := csv.NewWriter(w)

	if len(header) > 0 {
		if err := cw.Write(header); err != nil {
			return err
		}
	}

	for i := range x {
		rec := []string{formatValue(x[i]), formatValue(y[i])}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

// WritePDOS persists an orbital series as a multi-column table. Column
// order follows the series' element and orbital insertion order, with
// the summed "total" column placed second after the energy axis. With
// flipX the energy column is negated for the binding-energy convention.
func WritePDOS(w io.Writer, series *spectra.OrbitalSeries, format Format, flipX bool) error {
	labels, columns, err := pdosColumns(series, flipX)
	if err != nil {
		return err
	}

	switch format {
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(labels); err != nil {
			return err
		}

		rec := make([]string, len(columns))
		for i := range columns[0] {
			for j, col := range columns {
				rec[j] = formatValue(col[i])
			}

			if err := cw.Write(rec); err != nil {
				return err
			}
		}

		cw.Flush()

		return cw.Error()
	default:
		header := "#"
		for _, l := range labels {
			header += " " + l
		}
		if _, err := fmt.Fprintln(w, header); err != nil {
			return err
		}

		for i := range columns[0] {
			for j, col := range columns {
				if j > 0 {
					if _, err := fmt.Fprint(w, " "); err != nil {
						return err
					}
				}

				if _, err := fmt.Fprintf(w, "%10.6e", col[i]); err != nil {
					return err
				}
			}

			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}

		return nil
	}
}

func pdosColumns(series *spectra.OrbitalSeries, flipX bool) (labels []string, columns [][]float64, err error) {
	elements := series.Elements()
	if len(elements) == 0 {
		return nil, nil, fmt.Errorf("formats: empty orbital series")
	}

	first, _ := series.Element(elements[0])
	energy := append([]float64(nil), first.Energy()...)
	if flipX {
		for i := range energy {
			energy[i] = -energy[i]
		}
	}

	n := len(energy)
	total := make([]float64, n)

	labels = []string{"energy", "total"}
	columns = [][]float64{energy, total}

	for _, el := range elements {
		data, _ := series.Element(el)
		if len(data.Energy()) != n {
			return nil, nil, fmt.Errorf("formats: element %s energy column has %d samples, expected %d",
				el, len(data.Energy()), n)
		}

		for _, orb := range data.Orbitals() {
			col, _ := data.Orbital(orb)
			if len(col) != n {
				return nil, nil, fmt.Errorf("formats: column %s %s has %d samples, expected %d",
					el, orb, len(col), n)
			}

			for i, v := range col {
				total[i] += v
			}

			labels = append(labels, el+": "+orb)
			columns = append(columns, col)
		}
	}

	return labels, columns, nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
