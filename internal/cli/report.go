package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shopfloor/internal/models"
	"shopfloor/internal/report"
)

var (
	reportOut      string
	reportCategory string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the SFM PDF report",
	Long: `Render the SFM report (KPIs, open actions, unresolved problems and unread
alerts) to a PDF file. Use --out - to write the PDF to stdout.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		category, err := models.ParseCategory(reportCategory)
		if err != nil {
			return err
		}

		cfg, err := loadConfig(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		loc, err := cfg.Location()
		if err != nil {
			return err
		}

		store, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		doc, err := report.NewBuilder(store, loc).Build(cmd.Context(), category)
		if err != nil {
			return fmt.Errorf("building report: %w", err)
		}

		var buf bytes.Buffer
		if err := report.Render(&buf, doc); err != nil {
			return fmt.Errorf("rendering report: %w", err)
		}

		if reportOut == "-" {
			_, err = cmd.OutOrStdout().Write(buf.Bytes())
			return err
		}
		if err := os.WriteFile(reportOut, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		cmd.Printf("wrote %s (%d bytes)\n", reportOut, buf.Len())
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "sfm-report.pdf", "output file, - for stdout")
	reportCmd.Flags().StringVar(&reportCategory, "category", "", "limit the report to one category")
	rootCmd.AddCommand(reportCmd)
}
