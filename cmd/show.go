package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/misterclayt0n/mesocoach/internal/config"
	"github.com/misterclayt0n/mesocoach/internal/models"
	"github.com/misterclayt0n/mesocoach/internal/utils"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the pending plan with the sets logged so far",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := config.GetConfigDir()
		if err != nil {
			return err
		}
		state, err := loadPlanState(dir)
		if err != nil {
			return err
		}

		plan := state.Plan
		printBoxedHeader(strings.ToUpper(string(plan.Intent)) + " SESSION")
		printMetric("Plan", plan.ID)
		printMetric("Generated", fmt.Sprintf("%s (%s)", utils.FormatLocal(plan.GeneratedAt), utils.Ago(plan.GeneratedAt, clock())))
		printMetric("Block week", plan.BlockWeek)
		fmt.Println()

		for i, done := range state.Performed {
			planned, _ := plannedByID(plan, done.ExerciseID)
			fmt.Printf("%s %s\n", cyan(fmt.Sprintf("%d.", i+1)), cyan(done.Name))
			fmt.Printf("   %-6s %-22s %s\n", "Set", "Target", "Logged")
			for j, s := range done.Sets {
				target := "-"
				if ps, ok := workingSet(planned, s.Index); ok {
					target = fmt.Sprintf("%.1f x %s @%.1f", ps.TargetLoad, repsLabel(ps), ps.TargetRPE)
				}
				fmt.Printf("   %-6d %-22s %s\n", j+1, target, loggedLabel(s))
			}
		}
		return nil
	},
}

func loadPlanState(dir string) (*models.PlanState, error) {
	if !utils.PlanStateExists(dir) {
		return nil, errors.New("No pending plan (run `mesocoach generate` first)")
	}
	state, err := utils.LoadPlanState(dir)
	if err != nil {
		return nil, fmt.Errorf("Failed to load plan state: %w", err)
	}
	return state, nil
}

func plannedByID(plan models.WorkoutPlan, id string) (models.PlannedExercise, bool) {
	for _, list := range [][]models.PlannedExercise{plan.MainLifts, plan.Accessories} {
		for _, pe := range list {
			if pe.ExerciseID == id {
				return pe, true
			}
		}
	}
	return models.PlannedExercise{}, false
}

func workingSet(pe models.PlannedExercise, index int) (models.PlannedSet, bool) {
	for _, s := range pe.Sets {
		if !s.Warmup && s.Index == index {
			return s, true
		}
	}
	return models.PlannedSet{}, false
}

func repsLabel(s models.PlannedSet) string {
	if s.RepRange != nil {
		return fmt.Sprintf("%d-%d", s.RepRange.Min, s.RepRange.Max)
	}
	return fmt.Sprintf("%d", s.TargetReps)
}

func loggedLabel(s models.PerformedSet) string {
	if s.Skipped {
		return red("skipped")
	}
	label := fmt.Sprintf("%.1f x %d", s.Load, s.Reps)
	if s.RPE == nil {
		return yellow(label + " (no RPE)")
	}
	return green(fmt.Sprintf("%s @%.1f", label, *s.RPE))
}

func init() {
	rootCmd.AddCommand(showCmd)
}
