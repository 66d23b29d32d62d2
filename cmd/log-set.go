package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/misterclayt0n/mesocoach/internal/config"
	"github.com/misterclayt0n/mesocoach/internal/models"
	"github.com/misterclayt0n/mesocoach/internal/utils"
)

var (
	setLoad  float64
	setReps  int
	setRPE   float64
	setSkip  bool
	setExtra bool
)

var logSetCmd = &cobra.Command{
	Use:   "log-set [exercise-index] [set-number]",
	Short: "Record what you actually did for one set of the pending plan",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := config.GetConfigDir()
		if err != nil {
			return err
		}
		state, err := loadPlanState(dir)
		if err != nil {
			return err
		}

		exIdx, err := strconv.Atoi(args[0])
		if err != nil || exIdx < 1 || exIdx > len(state.Performed) {
			return fmt.Errorf("Invalid exercise index. Must be 1-%d", len(state.Performed))
		}
		done := &state.Performed[exIdx-1]

		var set *models.PerformedSet
		switch {
		case setExtra:
			done.Sets = append(done.Sets, models.PerformedSet{Index: len(done.Sets) + 1})
			set = &done.Sets[len(done.Sets)-1]
		case len(args) == 2:
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 || n > len(done.Sets) {
				return fmt.Errorf("Invalid set number. Must be 1-%d (or pass --extra)", len(done.Sets))
			}
			set = &done.Sets[n-1]
		default:
			// First set without an RPE is the next one to log.
			for i := range done.Sets {
				if done.Sets[i].RPE == nil && !done.Sets[i].Skipped {
					set = &done.Sets[i]
					break
				}
			}
			if set == nil {
				return fmt.Errorf("Every set of %s is logged; pass a set number or --extra", done.Name)
			}
		}

		if setSkip {
			set.Skipped = true
			set.RPE = nil
		} else {
			if cmd.Flags().Changed("load") {
				set.Load = setLoad
			}
			if cmd.Flags().Changed("reps") {
				set.Reps = setReps
			}
			if setRPE < 1 || setRPE > 10 {
				return fmt.Errorf("RPE must be 1-10, got %.1f", setRPE)
			}
			rpe := setRPE
			set.RPE = &rpe
			set.Skipped = false
		}

		if err := utils.SavePlanState(dir, state); err != nil {
			return fmt.Errorf("Failed to save plan state: %w", err)
		}
		fmt.Printf("✅ %s set %d: %s\n", done.Name, set.Index, loggedLabel(*set))
		return nil
	},
}

func init() {
	logSetCmd.Flags().Float64VarP(&setLoad, "load", "l", 0, "Load used (defaults to the prescribed load)")
	logSetCmd.Flags().IntVarP(&setReps, "reps", "r", 0, "Reps performed (defaults to the prescribed reps)")
	logSetCmd.Flags().Float64Var(&setRPE, "rpe", 8, "Rate of perceived exertion")
	logSetCmd.Flags().BoolVar(&setSkip, "skip", false, "Mark the set as skipped")
	logSetCmd.Flags().BoolVar(&setExtra, "extra", false, "Add a set beyond the prescription")
	rootCmd.AddCommand(logSetCmd)
}
