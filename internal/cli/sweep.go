package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shopfloor/internal/alerts"
	"shopfloor/internal/kafka"
	"shopfloor/internal/logger"
	"shopfloor/internal/models"
)

// eventPublisher sends sweep results straight to Kafka. The one-shot sweep
// has no worker pool to hand events to.
type eventPublisher struct {
	producer *kafka.Producer
	node     string
}

func (p *eventPublisher) NotifyAlerts(ctx context.Context, sweepID string, created []models.SmartAlert) {
	events := make([]*models.AlertEvent, 0, len(created))
	for i := range created {
		events = append(events, models.NewAlertEvent(&created[i], p.node).WithSweep(sweepID))
	}
	if err := p.producer.PublishBatch(ctx, events); err != nil {
		log := logger.WithComponent("cli")
		log.Error().Err(err).Int("events", len(events)).Msg("publishing sweep alerts failed")
	}
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one alert sweep and print its summary as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		loc, err := cfg.Location()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		store, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		opts := []alerts.Option{
			alerts.WithRetention(cfg.Sweep.Retention),
			alerts.WithLocation(loc),
		}
		if cfg.Kafka.Enabled() {
			producer, err := kafka.NewProducer(cfg.Kafka)
			if err != nil {
				return fmt.Errorf("initializing kafka producer: %w", err)
			}
			defer producer.Close()

			node := cfg.NodeID
			if node == "" {
				node, _ = os.Hostname()
			}
			opts = append(opts, alerts.WithNotifiers(&eventPublisher{producer: producer, node: node}))
		}

		summary, err := alerts.NewSweeper(store, opts...).Run(ctx)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
