// Package commands wires the broadening pipeline to the command line.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"specbroad/formats"
	"specbroad/pipeline"
	"specbroad/plots"
)

var (
	lorentzian float64
	gaussian   float64
	weighting  string
	units      string
	sampling   float64
	spikes     bool
	pdos       bool
	flipX      bool
	xmin       float64
	xmax       float64
	xminSet    bool
	xmaxSet    bool
	txtOut     string
	csvOut     string
	plotOut    string
	verbose    bool
)

func Execute() error {
	root := &cobra.Command{
		Use:   "specbroad INPUT...",
		Short: "Broaden simulated spectra for comparison with experiment",
		Long: "specbroad resamples simulated spectroscopic data (DOS, PDOS, Raman\n" +
			"intensities) onto a uniform mesh, applies Gaussian and/or Lorentzian\n" +
			"broadening, and can weight orbital-projected contributions by\n" +
			"photoionization cross-sections.",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		PreRun: func(cmd *cobra.Command, args []string) {
			xminSet = cmd.Flags().Changed("xmin")
			xmaxSet = cmd.Flags().Changed("xmax")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if txtOut == "" && csvOut == "" && plotOut == "" {
				return fmt.Errorf("no output selected: use at least one of --txt, --csv or --plot")
			}

			opts := buildOptions()

			if pdos {
				return runPDOS(args, opts)
			}

			return run1D(args, opts)
		},
	}

	flags := root.Flags()
	flags.Float64VarP(&lorentzian, "lorentzian", "l", 0, "Lorentzian broadening FWHM in x-axis units")
	flags.Float64VarP(&gaussian, "gaussian", "g", 0, "Gaussian broadening FWHM in x-axis units")
	flags.StringVarP(&weighting, "weighting", "w", "",
		"cross-section weighting: \"alka\", \"he2\", \"yeh_haxpes\", a photon energy in keV, or a JSON file")
	flags.StringVar(&units, "units", "", "x-axis units (cm-1, THz, eV); sets the default sampling step")
	flags.Float64VarP(&sampling, "sampling", "d", 0, "grid step in x-axis units (default from --units)")
	flags.BoolVarP(&spikes, "spikes", "k", false,
		"resample as discrete spikes on a zero baseline instead of interpolating")
	flags.BoolVar(&pdos, "pdos", false, "process orbital-projected data, one input file per element")
	flags.BoolVar(&flipX, "flipx", false, "negate x values for the binding-energy convention (PDOS only)")
	flags.Float64Var(&xmin, "xmin", 0, "minimum x value (default: auto from data)")
	flags.Float64Var(&xmax, "xmax", 0, "maximum x value (default: auto from data)")
	flags.StringVar(&txtOut, "txt", "", "write space-delimited output to this path (\"-\" for stdout)")
	flags.StringVar(&csvOut, "csv", "", "write CSV output to this path (\"-\" for stdout)")
	flags.StringVarP(&plotOut, "plot", "p", "", "render a plot to this path (format by extension)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log processing details to stderr")

	return root.Execute()
}

func buildOptions() []pipeline.Option {
	opts := []pipeline.Option{
		pipeline.WithSampling(samplingForUnits()),
		pipeline.WithLorentzian(lorentzian),
		pipeline.WithGaussian(gaussian),
	}

	if xminSet {
		opts = append(opts, pipeline.WithXMin(xmin))
	}
	if xmaxSet {
		opts = append(opts, pipeline.WithXMax(xmax))
	}
	if spikes {
		opts = append(opts, pipeline.WithSpikes())
	}
	if flipX {
		opts = append(opts, pipeline.WithFlipX())
	}
	if weighting != "" {
		opts = append(opts, pipeline.WithWeighting(weighting))
	}
	if verbose {
		opts = append(opts, pipeline.WithLogger(
			slog.New(slog.NewTextHandler(os.Stderr, nil))))
	}

	return opts
}

// samplingForUnits maps the units flag to a default mesh step; an
// explicit --sampling wins.
func samplingForUnits() float64 {
	if sampling > 0 {
		return sampling
	}

	switch units {
	case "cm", "cm-1":
		return 0.1
	case "THz", "thz":
		return 1e-3
	default:
		return pipeline.DefaultSampling
	}
}

func run1D(args []string, opts []pipeline.Option) error {
	if len(args) > 1 {
		return fmt.Errorf("simple DOS uses one input file, got %d", len(args))
	}

	grid, broadened, err := pipeline.Process1D(args[0], opts...)
	if err != nil {
		return err
	}

	x := grid.Values()

	if txtOut != "" {
		err := withOutput(txtOut, func(w *os.File) error {
			return formats.WriteTxt(w, x, broadened, "")
		})
		if err != nil {
			return err
		}
	}

	if csvOut != "" {
		err := withOutput(csvOut, func(w *os.File) error {
			return formats.WriteCSV(w, x, broadened, []string{xLabel(), "intensity"})
		})
		if err != nil {
			return err
		}
	}

	if plotOut != "" {
		return plots.TDOS(grid, broadened, plotOut, plots.WithXLabel(xLabel()))
	}

	return nil
}

func runPDOS(args []string, opts []pipeline.Option) error {
	series, err := pipeline.ProcessPDOS(args, opts...)
	if err != nil {
		return err
	}

	if txtOut != "" {
		err := withOutput(txtOut, func(w *os.File) error {
			return formats.WritePDOS(w, series, formats.FormatTxt, flipX)
		})
		if err != nil {
			return err
		}
	}

	if csvOut != "" {
		err := withOutput(csvOut, func(w *os.File) error {
			return formats.WritePDOS(w, series, formats.FormatCSV, flipX)
		})
		if err != nil {
			return err
		}
	}

	if plotOut != "" {
		return plots.PDOS(series, plotOut, plots.WithXLabel(xLabel()))
	}

	return nil
}

func xLabel() string {
	label := units
	if label == "" {
		label = "energy"
	}

	if flipX {
		return "binding " + label
	}

	return label
}

// withOutput runs fn against the named file, or stdout for "-".
func withOutput(path string, fn func(*os.File) error) error {
	if path == "-" {
		return fn(os.Stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := fn(f); err != nil {
		return err
	}

	return f.Close()
}
