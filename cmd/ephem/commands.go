package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/star/orrery/internal/catalog"
	"github.com/star/orrery/internal/propagation"
	"github.com/star/orrery/internal/simtime"
	"github.com/star/orrery/internal/transform"
	"github.com/star/orrery/internal/tui"
	"github.com/star/orrery/internal/units"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ephem",
		Short:         "Keplerian ephemeris of the Sun and the eight planets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newBodiesCmd(),
		newStateCmd(),
		newOrbitCmd(),
		newTableCmd(),
		newJDCmd(),
		newDateCmd(),
		newWatchCmd(),
	)
	return root
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// instantFlags resolves --jd or --date, defaulting to now.
type instantFlags struct {
	jd   string
	date string
}

func (f *instantFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.jd, "jd", "", "Julian day (default: now)")
	cmd.Flags().StringVar(&f.date, "date", "", "RFC 3339 timestamp or YYYY-MM-DD (default: now)")
	cmd.MarkFlagsMutuallyExclusive("jd", "date")
}

func (f *instantFlags) resolve() (units.JulianDay, error) {
	switch {
	case f.jd != "":
		return simtime.ParseJD(f.jd)
	case f.date != "":
		return simtime.ParseDate(f.date)
	default:
		return simtime.DateToJulianDay(time.Now()), nil
	}
}

func newBodiesCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "bodies",
		Short: "List cataloged bodies and their orbital elements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if asJSON {
				type row struct {
					ID         catalog.BodyID `json:"id"`
					Name       string         `json:"name"`
					A          float64        `json:"semi_major_axis_au"`
					E          float64        `json:"eccentricity"`
					IDeg       float64        `json:"inclination_deg"`
					PeriodDays float64        `json:"period_days"`
				}
				var rows []row
				for _, id := range catalog.All() {
					el := catalog.ElementsOf(id)
					rows = append(rows, row{id, catalog.Get(id).Name, float64(el.SemiMajorAxis), el.Eccentricity, el.Inclination.Degrees(), float64(el.PeriodDays())})
				}
				return writeJSON(out, rows)
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "ID\tNAME\tA (AU)\tE\tI (°)\tPERIOD (d)\t")
			for _, id := range catalog.All() {
				el := catalog.ElementsOf(id)
				fmt.Fprintf(tw, "%s\t%s\t%.5f\t%.5f\t%.3f\t%.1f\t\n",
					id, catalog.Get(id).Name, float64(el.SemiMajorAxis), el.Eccentricity,
					el.Inclination.Degrees(), float64(el.PeriodDays()))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newStateCmd() *cobra.Command {
	var (
		when   instantFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "state <body>",
		Short: "Heliocentric position of a body",
		Example: `  ephem state earth --date 2024-03-20
  ephem state mars --jd 2451545 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := catalog.ParseBodyID(args[0])
			if err != nil {
				return err
			}
			jd, err := when.resolve()
			if err != nil {
				return err
			}

			pos := propagation.NewKeplerProvider().State(id, jd).Position
			spin := transform.SpinAngle(id, jd)
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, map[string]any{
					"id":          id,
					"jd":          jd,
					"date":        simtime.FormatDate(jd),
					"position_km": pos,
					"position_au": pos.AU(),
					"distance_au": float64(pos.Norm().AU()),
					"render":      transform.ToRenderFrame(pos, units.DefaultScale()),
					"spin":        spin,
				})
			}

			au := pos.AU()
			fmt.Fprintf(out, "%s at JD %.6f (%s)\n", catalog.Get(id).Name, float64(jd), simtime.JulianDayToDate(jd).Format(time.RFC3339))
			fmt.Fprintf(out, "  position  %16.2f %16.2f %16.2f km\n", float64(pos.X), float64(pos.Y), float64(pos.Z))
			fmt.Fprintf(out, "            %16.8f %16.8f %16.8f AU\n", float64(au.X), float64(au.Y), float64(au.Z))
			fmt.Fprintf(out, "  distance  %.8f AU\n", float64(pos.Norm().AU()))
			fmt.Fprintf(out, "  spin      %.4f°\n", spin.Degrees())
			return nil
		},
	}
	when.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newOrbitCmd() *cobra.Command {
	var (
		quality    string
		pixelRatio float64
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "orbit <body>",
		Short: "Sample a body's orbit as a closed path in AU",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := catalog.ParseBodyID(args[0])
			if err != nil {
				return err
			}
			q, err := propagation.ParseQuality(quality)
			if err != nil {
				return err
			}
			if !(pixelRatio > 0) || math.IsInf(pixelRatio, 0) {
				return errors.New("--pixel-ratio must be positive")
			}

			path := propagation.OrbitPathFor(id, q, pixelRatio)
			out := cmd.OutOrStdout()
			if asJSON {
				if path == nil {
					path = []units.VecAU{}
				}
				return writeJSON(out, map[string]any{"id": id, "quality": q.String(), "points": len(path), "path_au": path})
			}
			if path == nil {
				fmt.Fprintf(out, "%s does not orbit\n", catalog.Get(id).Name)
				return nil
			}
			for _, p := range path {
				fmt.Fprintf(out, "%.8f %.8f %.8f\n", float64(p.X), float64(p.Y), float64(p.Z))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&quality, "quality", "medium", "path quality: low, medium or high")
	cmd.Flags().Float64Var(&pixelRatio, "pixel-ratio", 1, "display pixel ratio")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newTableCmd() *cobra.Command {
	var (
		when    instantFlags
		days    float64
		step    float64
		workers int
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "table <body>",
		Short: "Tabulate a body's position over a span of days",
		Example: `  ephem table mars --date 2024-01-01 --days 60 --step 5
  ephem table venus --jd 2451545 --days 2 --step 0.25 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := catalog.ParseBodyID(args[0])
			if err != nil {
				return err
			}
			start, err := when.resolve()
			if err != nil {
				return err
			}
			if !(step > 0) || math.IsInf(step, 0) {
				return errors.New("--step must be positive")
			}
			if !(days >= 0) || days/step > maxTableRows {
				return fmt.Errorf("--days must be between 0 and %d steps", maxTableRows)
			}

			logger := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
			prop := propagation.NewPropagator(propagation.NewKeplerProvider(), propagation.PropConfig{
				Workers: workers,
				Step:    units.Days(step),
				Horizon: units.Days(days),
			}, logger)
			keyframes, err := prop.GenerateKeyframes(cmd.Context(), start)
			if err != nil {
				return err
			}

			type row struct {
				JD         units.JulianDay `json:"jd"`
				Date       string          `json:"date"`
				PositionAU units.VecAU     `json:"position_au"`
				DistanceAU float64         `json:"distance_au"`
			}
			rows := make([]row, 0, len(keyframes))
			for _, kf := range keyframes {
				for _, b := range kf.Bodies {
					if b.ID == id {
						rows = append(rows, row{kf.JD, simtime.FormatDate(kf.JD), b.Position.AU(), float64(b.Position.Norm().AU())})
					}
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, map[string]any{"id": id, "rows": rows})
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "JD\tDATE\tX (AU)\tY (AU)\tZ (AU)\tR (AU)\t")
			for _, r := range rows {
				fmt.Fprintf(tw, "%.4f\t%s\t%.6f\t%.6f\t%.6f\t%.6f\t\n",
					float64(r.JD), simtime.JulianDayToDate(r.JD).Format("2006-01-02 15:04"),
					float64(r.PositionAU.X), float64(r.PositionAU.Y), float64(r.PositionAU.Z), r.DistanceAU)
			}
			return tw.Flush()
		},
	}
	when.register(cmd)
	cmd.Flags().Float64Var(&days, "days", 30, "span to tabulate in days")
	cmd.Flags().Float64Var(&step, "step", 1, "row interval in days")
	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "concurrent body evaluations")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// maxTableRows bounds the output of the table command.
const maxTableRows = 100000

func newJDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "jd [date]",
		Short: "Convert a date to a Julian day (default: now)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jd := simtime.DateToJulianDay(time.Now())
			if len(args) == 1 {
				var err error
				if jd, err = simtime.ParseDate(args[0]); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.6f\n", float64(jd))
			return nil
		},
	}
}

func newDateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "date <jd>",
		Short: "Convert a Julian day to a UTC date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jd, err := simtime.ParseJD(args[0])
			if err != nil {
				return err
			}
			y, m, d := simtime.Calendar(jd)
			fmt.Fprintf(cmd.OutOrStdout(), "%s  (%04d-%02d-%09.6f)\n",
				simtime.JulianDayToDate(jd).Format("2006-01-02T15:04:05.000Z07:00"), y, m, d)
			return nil
		},
	}
}

// watchSpeed is the interactive default: ten times the base rate.
const watchSpeed = 10

func newWatchCmd() *cobra.Command {
	var (
		when   instantFlags
		speed  float64
		paused bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the terminal orrery",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jd, err := when.resolve()
			if err != nil {
				return err
			}
			cfg := simtime.DefaultConfig()
			cfg.StartJD = jd
			cfg.Speed = speed
			cfg.Playing = !paused
			return tui.Run(tui.New(propagation.NewKeplerProvider(), cfg))
		},
	}
	when.register(cmd)
	cmd.Flags().Float64Var(&speed, "speed", watchSpeed, "speed multiplier (0.1-1000)")
	cmd.Flags().BoolVar(&paused, "paused", false, "start paused")
	return cmd
}
