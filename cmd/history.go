package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/misterclayt0n/mesocoach/internal/models"
	"github.com/misterclayt0n/mesocoach/internal/utils"
)

var (
	historyDays   int
	historyIntent string
	historySets   bool
)

// historyCmd lists recorded sessions, newest first.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Display recorded sessions, optionally filtered by intent",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.close()
		user, err := e.userID()
		if err != nil {
			return err
		}

		now := clock()
		sessions, err := e.st.History(cmd.Context(), user, now.AddDate(0, 0, -historyDays))
		if err != nil {
			return fmt.Errorf("failed to retrieve sessions: %w", err)
		}

		if historyIntent != "" {
			var filtered []models.WorkoutHistoryEntry
			for _, s := range sessions {
				if strings.EqualFold(string(s.Intent), historyIntent) {
					filtered = append(filtered, s)
				}
			}
			sessions = filtered
		}

		if len(sessions) == 0 {
			fmt.Printf("No sessions in the last %d days.\n", historyDays)
			return nil
		}

		boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
		for _, s := range sessions {
			status := string(s.Status)
			switch s.Status {
			case models.StatusCompleted:
				status = green(status)
			case models.StatusPartial:
				status = yellow(status)
			default:
				status = red(status)
			}
			block := ""
			if s.BlockID != "" {
				block = fmt.Sprintf(" | week %d", s.BlockWeek)
			}
			fmt.Printf("%s %s | %s | %s%s %s\n",
				boldGreen(utils.FormatLocal(s.Date)),
				faint("("+utils.Ago(s.Date, now)+")"),
				cyan(s.Intent), status, block, faint(string(s.Provenance)))

			if !historySets {
				names := make([]string, 0, len(s.Exercises))
				for _, pe := range s.Exercises {
					names = append(names, fmt.Sprintf("%s ×%d", exerciseLabel(pe), len(pe.WorkingSets())))
				}
				if len(names) > 0 {
					fmt.Printf("   %s\n", strings.Join(names, ", "))
				}
				continue
			}
			for _, pe := range s.Exercises {
				fmt.Printf("   %s\n", cyan(exerciseLabel(pe)))
				for _, set := range pe.Sets {
					fmt.Printf("      %s\n", performedSetLine(set))
				}
			}
		}
		return nil
	},
}

func exerciseLabel(pe models.PerformedExercise) string {
	if pe.Name != "" {
		return pe.Name
	}
	return pe.ExerciseID
}

// computeWeekStreak counts consecutive ISO weeks, ending with the one that
// contains now, with at least one performed session.
func computeWeekStreak(sessions []models.WorkoutHistoryEntry, now time.Time) int {
	weekSet := make(map[string]bool)
	for _, s := range sessions {
		if !s.Status.Performed() {
			continue
		}
		year, week := s.Date.ISOWeek()
		weekSet[fmt.Sprintf("%d-%02d", year, week)] = true
	}

	streak := 0
	year, week := now.ISOWeek()
	for weekSet[fmt.Sprintf("%d-%02d", year, week)] {
		streak++
		now = now.AddDate(0, 0, -7)
		year, week = now.ISOWeek()
	}
	return streak
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyDays, "days", "d", 28, "How many days back to list")
	historyCmd.Flags().StringVarP(&historyIntent, "intent", "i", "", "Filter by intent (case insensitive)")
	historyCmd.Flags().BoolVarP(&historySets, "sets", "s", false, "Print every set")
}
