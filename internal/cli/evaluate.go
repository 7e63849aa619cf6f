package cli

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"shopfloor/internal/kpi"
	"shopfloor/internal/models"
)

var evalFlags struct {
	value     float64
	target    float64
	warning   float64
	critical  float64
	previous  float64
	direction string
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Compute status and trend of a value without touching the database",
	Example: `  sfm evaluate --value 78 --target 85 --warning 5 --critical 15
  sfm evaluate --value 4 --target 2 --direction lower_is_better --previous 3`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if !flags.Changed("value") {
			return errors.New("--value is required")
		}

		def := &models.KpiDefinition{
			Name:                 "adhoc",
			Category:             models.CategoryPerformance,
			PerformanceDirection: models.Direction(evalFlags.direction),
		}
		if flags.Changed("target") {
			def.TargetValue = &evalFlags.target
		}
		if flags.Changed("warning") {
			def.WarningThreshold = &evalFlags.warning
		}
		if flags.Changed("critical") {
			def.CriticalThreshold = &evalFlags.critical
		}
		if err := def.Validate(); err != nil {
			return err
		}

		var previous *float64
		if flags.Changed("previous") {
			previous = &evalFlags.previous
		}

		return json.NewEncoder(cmd.OutOrStdout()).Encode(kpi.Evaluate(def, evalFlags.value, previous))
	},
}

func init() {
	f := evaluateCmd.Flags()
	f.Float64Var(&evalFlags.value, "value", 0, "measured value")
	f.Float64Var(&evalFlags.target, "target", 0, "KPI target")
	f.Float64Var(&evalFlags.warning, "warning", 0, "warning threshold in percent")
	f.Float64Var(&evalFlags.critical, "critical", 0, "critical threshold in percent")
	f.Float64Var(&evalFlags.previous, "previous", 0, "previous measurement, for the trend")
	f.StringVar(&evalFlags.direction, "direction", string(models.HigherIsBetter), "higher_is_better or lower_is_better")
	rootCmd.AddCommand(evaluateCmd)
}
