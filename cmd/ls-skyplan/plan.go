package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/litescript/ls-skyplan/internal/coordtext"
	"github.com/litescript/ls-skyplan/internal/mosaic"
	"github.com/litescript/ls-skyplan/internal/resolver"
	"github.com/litescript/ls-skyplan/internal/session"
)

func init() {
	rootCmd.AddCommand(resolveCmd, nightCmd, yearCmd, mosaicCmd)

	mosaicCmd.Flags().IntVar(&flagCols, "cols", 0, "panels east-west (default: grid_size)")
	mosaicCmd.Flags().IntVar(&flagRows, "rows", 0, "panels north-south (default: grid_size)")
	mosaicCmd.Flags().BoolVar(&flagFOV, "fov", false, "single camera box instead of a grid")
	mosaicCmd.Flags().StringVar(&flagList, "list", "", `coordinate list "c1, c2, marker c3" or a JSON target list; replaces the target`)
	mosaicCmd.Flags().IntVar(&flagLimit, "limit", 0, "maximum list entries (0: all)")
	mosaicCmd.Flags().StringVar(&flagOffAxis, "offaxis", "", "off-axis field as SIDE:WxH in arcminutes, e.g. T:12x8")
	mosaicCmd.Flags().Float64Var(&flagGap, "gap", 0, "off-axis gap from the camera field edge in arcminutes")
}

var (
	flagCols    int
	flagRows    int
	flagFOV     bool
	flagList    string
	flagLimit   int
	flagOffAxis string
	flagGap     float64
)

// targetArg joins args so unquoted coordinates work:
// night -- 05 35 17 -05 23 28.
func targetArg(args []string) string {
	return strings.Join(args, " ")
}

// progressToStderr prints resolver progress on a terminal's stderr.
func progressToStderr() resolver.ProgressFunc {
	if flagFormat != "text" {
		return nil
	}
	return func(e resolver.Event) {
		if e.Phase == resolver.PhaseResolving || e.Phase == resolver.PhaseFallingBack {
			fmt.Fprintf(os.Stderr, "%s\n", e.Message)
		}
	}
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <name|coordinates>",
	Short: "Resolve an object name or coordinates",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession()
		if err != nil {
			return outputError("resolve", err)
		}
		defer sess.Close()

		t, err := sess.Resolve(cmd.Context(), targetArg(args), progressToStderr())
		if err != nil {
			return outputError("resolve", err)
		}
		r := renderer()
		return outputResult(cmd.OutOrStdout(), "resolve", t, func() string { return r.Target(t) })
	},
}

var nightCmd = &cobra.Command{
	Use:     "night <name|coordinates>",
	Short:   "Visibility of a target over one night",
	Example: `  ls-skyplan night M42 --date 2025-12-21
  ls-skyplan night -- 05 35 17 -05 23 28`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession()
		if err != nil {
			return outputError("night", err)
		}
		defer sess.Close()

		target := targetArg(args)
		if _, err := sess.Resolve(cmd.Context(), target, progressToStderr()); err != nil {
			return outputError("night", err)
		}
		plan, err := sess.Night(cmd.Context(), target, time.Time{})
		if err != nil {
			return outputError("night", err)
		}
		r := renderer()
		return outputResult(cmd.OutOrStdout(), "night", plan, func() string { return r.Night(plan) })
	},
}

var yearCmd = &cobra.Command{
	Use:   "year <name|coordinates>",
	Short: "Midnight altitude of a target over a year",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession()
		if err != nil {
			return outputError("year", err)
		}
		defer sess.Close()

		target := targetArg(args)
		if _, err := sess.Resolve(cmd.Context(), target, progressToStderr()); err != nil {
			return outputError("year", err)
		}
		plan, err := sess.Year(cmd.Context(), target, time.Time{})
		if err != nil {
			return outputError("year", err)
		}
		r := renderer()
		return outputResult(cmd.OutOrStdout(), "year", plan, func() string { return r.Year(plan) })
	},
}

var mosaicCmd = &cobra.Command{
	Use:   "mosaic [name|coordinates]",
	Short: "Frame a mosaic grid, a single field, an off-axis field or a coordinate list",
	RunE:  runMosaic,
}

func runMosaic(cmd *cobra.Command, args []string) error {
	sess, err := newSession()
	if err != nil {
		return outputError("mosaic", err)
	}
	defer sess.Close()
	r := renderer()
	out := cmd.OutOrStdout()

	if flagList != "" {
		plan, err := sess.List(flagList, flagLimit)
		if err != nil {
			return outputError("mosaic", err)
		}
		return outputResult(out, "mosaic", plan, func() string { return r.List(plan) })
	}

	if len(args) == 0 {
		return outputError("mosaic", fmt.Errorf("a target or --list is required"))
	}
	target := targetArg(args)
	ctx := cmd.Context()
	if _, err := sess.Resolve(ctx, target, progressToStderr()); err != nil {
		return outputError("mosaic", err)
	}

	switch {
	case flagOffAxis != "":
		side, fov, err := parseOffAxis(flagOffAxis)
		if err != nil {
			return outputError("mosaic", err)
		}
		panels := make([]mosaic.Panel, 0, 2)
		box, err := sess.FOVBox(ctx, target)
		if err != nil {
			return outputError("mosaic", err)
		}
		off, err := sess.OffsetBox(ctx, target, fov, side, coordtext.ArcminToDeg(flagGap))
		if err != nil {
			return outputError("mosaic", err)
		}
		panels = append(panels, box, off)
		plan := session.ListPlan{Panels: panels}
		return outputResult(out, "mosaic", plan, func() string { return r.List(plan) })

	case flagFOV:
		box, err := sess.FOVBox(ctx, target)
		if err != nil {
			return outputError("mosaic", err)
		}
		return outputResult(out, "mosaic", box, func() string { return r.Panel(box) })
	}

	plan, err := sess.Mosaic(ctx, target, flagCols, flagRows)
	if err != nil {
		return outputError("mosaic", err)
	}
	return outputResult(out, "mosaic", plan, func() string { return r.Mosaic(plan) })
}

// parseOffAxis parses "SIDE:WxH" with the size in arcminutes.
func parseOffAxis(s string) (mosaic.Side, mosaic.FOV, error) {
	sideText, size, ok := strings.Cut(s, ":")
	if !ok {
		return 0, mosaic.FOV{}, fmt.Errorf("offaxis %q: want SIDE:WxH", s)
	}
	side, err := mosaic.ParseSide(sideText)
	if err != nil {
		return 0, mosaic.FOV{}, err
	}
	wText, hText, _ := strings.Cut(strings.ToLower(size), "x")
	w, errW := strconv.ParseFloat(wText, 64)
	h, errH := strconv.ParseFloat(hText, 64)
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, mosaic.FOV{}, fmt.Errorf("offaxis %q: size must be WxH arcminutes", s)
	}
	return side, mosaic.FOV{X: coordtext.ArcminToDeg(w), Y: coordtext.ArcminToDeg(h)}, nil
}
