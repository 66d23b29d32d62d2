package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/misterclayt0n/mesocoach/internal/storage"
	"github.com/misterclayt0n/mesocoach/internal/utils"
)

var explainCmd = &cobra.Command{
	Use:   "explain [plan-id]",
	Short: "Show why a plan looks the way it does (defaults to the pending plan)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.close()

		var planID string
		if len(args) == 1 {
			planID = args[0]
		} else {
			state, err := loadPlanState(e.dir)
			if err != nil {
				return err
			}
			planID = state.Plan.ID
		}

		logs, err := e.st.DecisionLogs(cmd.Context(), planID)
		if err != nil {
			return fmt.Errorf("Failed to load decision logs: %w", err)
		}
		if len(logs) == 0 {
			return errors.New("No decisions recorded for plan " + planID)
		}

		printBoxedHeader("PLAN " + shortID(planID))
		printMetric("Generated", utils.FormatLocal(logs[0].CreatedAt))
		fmt.Println()
		for _, l := range logs {
			switch d := l.Decision.(type) {
			case storage.SelectionRecord:
				printSelectionRecord(d)
			case storage.AutoregRecord:
				printAutoregRecord(d)
			case storage.ProgressionRecord:
				fmt.Println(green("Progression:"))
				for _, r := range d.Receipts {
					fmt.Printf("   %s  %s\n", cyan(r.ExerciseID), receiptLine(r))
				}
			}
			fmt.Println()
		}
		return nil
	},
}

func printSelectionRecord(d storage.SelectionRecord) {
	fmt.Println(green("Selection:"))
	for _, id := range d.Selected {
		r := d.Rationale[id]
		fmt.Printf("   %-24s %-10s %d sets  score %.3f  %s\n", cyan(id), r.Role, d.SetTargets[id], r.Score, faint(r.Step))
	}
	if len(d.Rejected) == 0 {
		return
	}
	rejected := append(d.Rejected[:0:0], d.Rejected...)
	sort.Slice(rejected, func(i, j int) bool { return rejected[i].ExerciseID < rejected[j].ExerciseID })
	fmt.Println(faint("   rejected:"))
	for _, rj := range rejected {
		fmt.Printf("   %s\n", faint(fmt.Sprintf("%s: %s", rj.ExerciseID, strings.Join(rj.Reasons, ", "))))
	}
}

func printAutoregRecord(d storage.AutoregRecord) {
	fmt.Println(green("Autoregulation:"))
	fmt.Printf("   %s\n", d.Rationale)
	if !d.Applied {
		return
	}
	if d.Fatigue != nil {
		fmt.Printf("   fatigue %.2f, load factor %.2f\n", *d.Fatigue, d.LoadFactor)
	}
	for _, m := range d.Modifications {
		fmt.Printf("   %s\n", faint(fmt.Sprintf("%s %s: %.1f -> %.1f", m.ExerciseID, m.Kind, m.From, m.To)))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	rootCmd.AddCommand(explainCmd)
}
