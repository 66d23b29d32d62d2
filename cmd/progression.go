package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/misterclayt0n/mesocoach/internal/engine"
	"github.com/misterclayt0n/mesocoach/internal/models"
	"github.com/misterclayt0n/mesocoach/internal/progression"
	"github.com/misterclayt0n/mesocoach/internal/storage"
	"github.com/misterclayt0n/mesocoach/internal/utils"
	"github.com/misterclayt0n/mesocoach/internal/volume"
)

var (
	progLimit    int
	progMainLift bool
)

var progressionCmd = &cobra.Command{
	Use:   "progression [exercise]",
	Short: "Show recent history for an exercise and the load it would get next",
	Long: `Show recent history for an exercise and the progression decision the
engine would make for it next. The exercise can be an id, the exact name, or
a fuzzy match ("bb row" finds "Barbell Row"). Readiness is not applied.`,
	Args: cobra.MinimumNArgs(1),
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

		ctx := cmd.Context()
		ex, err := resolveExercise(ctx, e.st, strings.Join(args, " "))
		if err != nil {
			return err
		}
		settings, err := engine.SettingsFromConfig(e.cfg)
		if err != nil {
			return fmt.Errorf("invalid [engine] config: %w", err)
		}

		now := clock()
		hist, err := e.st.History(ctx, user, now.Add(-storage.HistoryWindow))
		if err != nil {
			return fmt.Errorf("Failed to load history: %w", err)
		}

		printBoxedHeader(strings.ToUpper(ex.Name))
		printMetric("Id", ex.ID)
		printMetric("Rep range", fmt.Sprintf("%d-%d", ex.RepRange.Min, ex.RepRange.Max))
		printMetric("Muscles", muscleList(*ex))
		printMetric("Increment", fmt.Sprintf("%.1f", progression.Increment(*ex)))
		fmt.Println()

		shown := 0
		for _, h := range hist {
			if shown == progLimit {
				break
			}
			for _, pe := range h.Exercises {
				if pe.ExerciseID != ex.ID {
					continue
				}
				fmt.Printf("%s  %s  %s\n", cyan(utils.FormatLocal(h.Date)), faint(utils.Ago(h.Date, now)), faint(fmt.Sprintf("%s, %s", h.Status, h.Provenance)))
				for _, s := range pe.Sets {
					fmt.Printf("   %s\n", performedSetLine(s))
				}
				if best := bestEstimate(pe); best > 0 {
					fmt.Printf("   %s\n", faint(fmt.Sprintf("e1RM %.1f", best)))
				}
				shown++
				break
			}
		}
		if shown == 0 {
			fmt.Println(faint(fmt.Sprintf("No sessions in the last %d weeks", int(storage.HistoryWindow.Hours())/(24*7))))
		}
		fmt.Println()

		in := progression.Input{
			Exercise: *ex,
			MainLift: progMainLift,
			History:  hist,
			Now:      now,
			Window:   settings.RecencyWindow,
		}
		if block, err := e.st.ActiveBlock(ctx, user); err == nil && block != nil {
			in.Deload = volume.DecideDeload(*block, volume.DeloadReadiness{}, nil)
		}
		r := progression.Decide(in)
		fmt.Println(green("Next:"))
		fmt.Printf("   %s\n", receiptLine(r))
		for _, t := range r.Trace {
			fmt.Printf("   %s\n", faint("· "+t))
		}
		return nil
	},
}

// resolveExercise looks a query up by id, then exact name, then fuzzy name.
func resolveExercise(ctx context.Context, st *storage.Storage, query string) (*models.Exercise, error) {
	if ex, err := st.GetExerciseByID(ctx, utils.Slug(query)); err == nil {
		return ex, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if ex, err := st.GetExerciseByName(ctx, query); err == nil {
		return ex, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	lib, err := st.ListExercises(ctx)
	if err != nil {
		return nil, fmt.Errorf("Failed to list exercises: %w", err)
	}
	names := make([]string, len(lib))
	for i, ex := range lib {
		names[i] = ex.Name
	}
	matches := fuzzy.Find(query, names)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no exercise matches %q", query)
	}
	if len(matches) > 1 && matches[0].Score == matches[1].Score {
		var alts []string
		for _, m := range matches[:min(len(matches), 5)] {
			alts = append(alts, m.Str)
		}
		return nil, fmt.Errorf("%q is ambiguous: %s", query, strings.Join(alts, ", "))
	}
	return &lib[matches[0].Index], nil
}

func performedSetLine(s models.PerformedSet) string {
	if s.Skipped {
		return faint(fmt.Sprintf("set %d skipped", s.Index))
	}
	line := fmt.Sprintf("set %d  %.1f x %d", s.Index, s.Load, s.Reps)
	if s.RPE != nil {
		line += fmt.Sprintf("  @RPE %.1f", *s.RPE)
	}
	return line
}

func bestEstimate(pe models.PerformedExercise) float64 {
	var best float64
	for _, s := range pe.WorkingSets() {
		best = max(best, utils.CalculateEpley1RM(s.Load, s.Reps))
	}
	return best
}

func init() {
	progressionCmd.Flags().IntVarP(&progLimit, "limit", "l", 5, "Number of sessions to display")
	progressionCmd.Flags().BoolVar(&progMainLift, "main", false, "Decide as a main lift (heaviest set anchors)")
	rootCmd.AddCommand(progressionCmd)
}
