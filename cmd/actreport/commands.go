package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vbonduro/actreport/internal/config"
	"github.com/vbonduro/actreport/internal/report"
	"github.com/vbonduro/actreport/internal/service"
	"github.com/vbonduro/actreport/internal/validate"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved activities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(config.Load())
			if err != nil {
				return err
			}
			defer a.cleanup()

			activities, err := a.service.ListActivities(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tTYPE\tVENUE")
			for _, act := range activities {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", act.ID, act.StartDate, act.ActivityType, act.Venue)
			}
			return tw.Flush()
		},
	}
}

func newValidateCmd() *cobra.Command {
	var activityID int64
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run the final report validation on a saved activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(config.Load())
			if err != nil {
				return err
			}
			defer a.cleanup()

			res, err := a.service.Validate(cmd.Context(), activityID)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			if !res.Valid() {
				return fmt.Errorf("activity %d has %d validation errors", activityID, len(res.Errors))
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&activityID, "activity", 0, "activity id")
	_ = cmd.MarkFlagRequired("activity")
	return cmd
}

// generateFlags are the PDF options of the generate command.
type generateFlags struct {
	activityID    int64
	out           string
	noPhotos      bool
	noProfiles    bool
	noSignatures  bool
	noWatermark   bool
	noPageNumbers bool
	watermarkText string
}

func (f *generateFlags) options() report.Options {
	opts := report.DefaultOptions()
	opts.IncludePhotos = !f.noPhotos
	opts.IncludeProfiles = !f.noProfiles
	opts.IncludeSignatures = !f.noSignatures
	opts.Watermark = !f.noWatermark
	opts.PageNumbers = !f.noPageNumbers
	opts.WatermarkText = f.watermarkText
	return opts
}

func newGenerateCmd() *cobra.Command {
	var f generateFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the PDF report of a saved activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(config.Load())
			if err != nil {
				return err
			}
			defer a.cleanup()

			path, warnings, err := a.service.GenerateReport(cmd.Context(), f.activityID, f.options())
			var verr *service.ValidationError
			if errors.As(err, &verr) {
				printResult(cmd.ErrOrStderr(), verr.Result)
				return errors.New("report not generated")
			}
			if err != nil {
				return err
			}
			for _, w := range warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
			}
			if f.out != "" {
				if err := copyFile(path, f.out); err != nil {
					return err
				}
				path = f.out
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().Int64Var(&f.activityID, "activity", 0, "activity id")
	cmd.Flags().StringVar(&f.out, "out", "", "also copy the PDF to this path")
	cmd.Flags().BoolVar(&f.noPhotos, "no-photos", false, "leave out activity photos")
	cmd.Flags().BoolVar(&f.noProfiles, "no-profiles", false, "leave out speaker profiles")
	cmd.Flags().BoolVar(&f.noSignatures, "no-signatures", false, "leave out preparer signatures")
	cmd.Flags().BoolVar(&f.noWatermark, "no-watermark", false, "do not print the watermark")
	cmd.Flags().BoolVar(&f.noPageNumbers, "no-page-numbers", false, "do not number pages")
	cmd.Flags().StringVar(&f.watermarkText, "watermark", "", "watermark text (defaults to WATERMARK_TEXT)")
	_ = cmd.MarkFlagRequired("activity")
	return cmd
}

func printResult(w io.Writer, res validate.Result) {
	for _, e := range res.Errors {
		fmt.Fprintf(w, "error: %s\n", e)
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	if res.Valid() {
		fmt.Fprintln(w, "ok")
	}
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open report: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", dst, cerr)
		}
	}()
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy report: %w", err)
	}
	return nil
}
