package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Veraticus/accusync/internal/cli"
	"github.com/Veraticus/accusync/internal/common"
	"github.com/Veraticus/accusync/internal/engine"
	"github.com/Veraticus/accusync/internal/model"
	"github.com/Veraticus/accusync/internal/rowsource"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const maxNameWidth = 40

func detectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect <file>",
		Short: "Detect product type, device and size for every order row",
		Long: `Read a CSV (UTF-8 or Shift_JIS) or XLSX order export and detect the
product type, device and size of every row.`,
		Args: cobra.ExactArgs(1),
		RunE: runDetect,
	}

	cmd.Flags().Bool("json", false, "Print detections as JSON")
	cmd.Flags().Bool("no-progress", false, "Hide the progress bar")
	cmd.Flags().Int("workers", 0, "Rows detected in parallel (default from config)")
	cmd.Flags().Bool("auto-learn", false, "Record confident detections as auto patterns")

	_ = viper.BindPFlag("detection.workers", cmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("detection.auto_learn", cmd.Flags().Lookup("auto-learn"))

	return cmd
}

func runDetect(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	rows, err := rowsource.Load(args[0])
	if err != nil {
		if errors.Is(err, common.ErrUnknownFormat) {
			return common.NewUserError("only .csv, .txt, .xlsx and .xlsm files can be read", err)
		}
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := handler.HandleInterrupts(cmd.Context(), "Rows detected so far were discarded; rerun to start again")

	var opts engine.BatchOptions
	if !noProgress && !asJSON {
		bar := newProgressBar(cmd.ErrOrStderr(), len(rows))
		opts.Progress = func() {
			if err := bar.Add(1); err != nil {
				slog.Warn("Failed to update progress bar", "error", err)
			}
		}
	}

	slog.Info("Detecting attributes", "file", args[0], "rows", len(rows), "workers", a.cfg.Detection.Workers)
	result, err := a.engine.DetectBatch(ctx, rows, opts)
	if err != nil {
		if handler.WasInterrupted() {
			return nil
		}
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return writeDetectionsJSON(out, result)
	}
	writeDetectionsTable(out, rows, result)
	return nil
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Detecting rows...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(w)
		}),
	)
}

type detectionOutput struct {
	JobID   string               `json:"job_id"`
	Rows    []model.RowDetection `json:"rows"`
	Summary engine.BatchSummary  `json:"summary"`
}

func writeDetectionsJSON(w io.Writer, result *engine.BatchResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(detectionOutput{JobID: result.JobID, Rows: result.Rows, Summary: result.Summary}); err != nil {
		return fmt.Errorf("failed to encode detections: %w", err)
	}
	return nil
}

func writeDetectionsTable(w io.Writer, rows []model.Row, result *engine.BatchResult) {
	_, _ = fmt.Fprintln(w, cli.FormatTitle("Detections"))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "#\tPRODUCT\tTYPE\tDEVICE\tSIZE\tSTRUCTURE")
	_, _ = fmt.Fprintln(tw, "-\t-------\t----\t------\t----\t---------")

	for i, det := range result.Rows {
		name, _ := rows[i].Lookup(engine.ProductNameColumns...)
		structure := det.Structure
		if structure == "" {
			structure = "-"
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			i+1,
			truncate(name, maxNameWidth),
			cli.FormatResult(det.ProductType),
			cli.FormatResult(det.Device),
			cli.FormatResult(det.Size),
			structure)
	}
	_ = tw.Flush()

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, cli.RenderMethodCounts("Product type", result.Summary.ProductType))
	_, _ = fmt.Fprintln(w, cli.RenderMethodCounts("Device", result.Summary.Device))
	_, _ = fmt.Fprintln(w, cli.RenderMethodCounts("Size", result.Summary.Size))
	_, _ = fmt.Fprintln(w, cli.FormatSuccess(fmt.Sprintf("Detected %d rows in %s (job %s)",
		len(result.Rows), result.Duration.Round(time.Millisecond), result.JobID)))
}

func truncate(s string, width int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= width {
		return string(r)
	}
	return string(r[:width-1]) + "…"
}
