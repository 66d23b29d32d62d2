package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/misterclayt0n/mesocoach/internal/engine"
	"github.com/misterclayt0n/mesocoach/internal/progression"
	"github.com/misterclayt0n/mesocoach/internal/storage"
	"github.com/misterclayt0n/mesocoach/internal/utils"
)

var swapExerciseCmd = &cobra.Command{
	Use:   "swap-ex [exercise-index] [new-exercise]",
	Short: "Swap an exercise in the pending plan for another one from the library",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		exerciseIndex, err := strconv.Atoi(args[0])
		if err != nil || exerciseIndex < 1 {
			return fmt.Errorf("Invalid exercise index")
		}

		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.close()
		state, err := loadPlanState(e.dir)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		ex, err := resolveExercise(ctx, e.st, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		settings, err := engine.SettingsFromConfig(e.cfg)
		if err != nil {
			return fmt.Errorf("invalid [engine] config: %w", err)
		}

		now := clock()
		hist, err := e.st.History(ctx, state.Plan.UserID, now.Add(-storage.HistoryWindow))
		if err != nil {
			return fmt.Errorf("Failed to load history: %w", err)
		}
		if exerciseIndex > len(state.Performed) {
			return fmt.Errorf("Exercise index out of range")
		}
		r := progression.Decide(progression.Input{
			Exercise: *ex,
			MainLift: state.Performed[exerciseIndex-1].IsMainLift,
			History:  hist,
			Now:      now,
			Window:   settings.RecencyWindow,
		})

		old := state.Performed[exerciseIndex-1].Name
		if err := state.ReplaceExercise(exerciseIndex-1, *ex, r.TargetLoad, r.TargetReps); err != nil {
			return err
		}
		if err := utils.SavePlanState(e.dir, state); err != nil {
			return fmt.Errorf("Failed to save plan: %w", err)
		}
		e.log.Info("exercise swapped", "plan", state.Plan.ID, "from", old, "to", ex.ID, "trigger", r.Trigger)

		fmt.Printf("✅ Swapped %s for %s\n", old, ex.Name)
		fmt.Printf("   %s\n", faint(receiptLine(r)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(swapExerciseCmd)
}
