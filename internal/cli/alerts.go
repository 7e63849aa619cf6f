package cli

import (
	"context"
	"encoding/json"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"shopfloor/internal/kafka"
	"shopfloor/internal/models"
)

var errKafkaDisabled = errors.New("kafka.brokers is not configured")

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Work with published alert events",
}

var alertsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print alert events from Kafka as JSON lines until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		if !cfg.Kafka.Enabled() {
			return errKafkaDisabled
		}

		consumer, err := kafka.NewConsumer(cfg.Kafka)
		if err != nil {
			return err
		}
		defer consumer.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		enc := json.NewEncoder(cmd.OutOrStdout())
		return consumer.Run(ctx, func(ctx context.Context, event *models.AlertEvent) error {
			return enc.Encode(event)
		})
	},
}

func init() {
	alertsCmd.AddCommand(alertsTailCmd)
	rootCmd.AddCommand(alertsCmd)
}
