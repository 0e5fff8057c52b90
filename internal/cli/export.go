package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nurpe/pointage/internal/model"
	"github.com/nurpe/pointage/internal/service"
)

type exportOptions struct {
	year   int
	month  int
	format string
	owner  string
	outDir string
}

func newExportCmd(open openFunc) *cobra.Command {
	now := time.Now()
	opts := exportOptions{year: now.Year(), month: int(now.Month())}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a month's timesheet to a spreadsheet or PDF file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := model.NewPeriod(opts.year, opts.month)
			if err != nil {
				return err
			}
			svc, cleanup, err := open()
			if err != nil {
				return err
			}
			defer cleanup()

			var file *model.ExportFile
			switch strings.ToLower(opts.format) {
			case "xlsx", "excel":
				file, err = svc.Export(cmd.Context(), opts.owner, period)
			case "pdf":
				file, err = svc.ExportPDF(cmd.Context(), opts.owner, period)
			default:
				return fmt.Errorf("unknown format %q, use xlsx or pdf", opts.format)
			}
			if errors.Is(err, service.ErrNoEntries) {
				return fmt.Errorf("no data to export for %s", period.Label())
			}
			if err != nil {
				return err
			}

			path := filepath.Join(opts.outDir, file.FileName)
			if err := os.WriteFile(path, file.Content, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", path, len(file.Content))
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.year, "year", opts.year, "Year of the period")
	cmd.Flags().IntVar(&opts.month, "month", opts.month, "Month of the period (1-12)")
	cmd.Flags().StringVar(&opts.format, "format", "xlsx", "Output format: xlsx, pdf")
	cmd.Flags().StringVar(&opts.owner, "owner", "", "Owner (token subject) of the timesheet")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", ".", "Output directory")
	return cmd
}
