package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/misterclayt0n/mesocoach/internal/config"
	"github.com/misterclayt0n/mesocoach/internal/engine"
	"github.com/misterclayt0n/mesocoach/internal/lifecycle"
	"github.com/misterclayt0n/mesocoach/internal/models"
	"github.com/misterclayt0n/mesocoach/internal/storage"
	"github.com/misterclayt0n/mesocoach/internal/utils"
	"github.com/misterclayt0n/mesocoach/internal/volume"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the block, session count, week streak, and sets per muscle for the current block week",
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
		now := clock()
		settings, err := engine.SettingsFromConfig(e.cfg)
		if err != nil {
			return fmt.Errorf("invalid [engine] config: %w", err)
		}
		sessions, err := e.st.History(ctx, user, now.Add(-storage.HistoryWindow))
		if err != nil {
			return fmt.Errorf("failed to retrieve sessions: %w", err)
		}
		block, err := e.st.ActiveBlock(ctx, user)
		if err != nil {
			return fmt.Errorf("failed to load block: %w", err)
		}
		lib, err := e.st.ListExercises(ctx)
		if err != nil {
			return fmt.Errorf("failed to list exercises: %w", err)
		}
		library := make(map[string]models.Exercise, len(lib))
		for _, ex := range lib {
			library[ex.ID] = ex
		}

		var performed int
		var tonnage float64
		for _, s := range sessions {
			if !s.Status.Performed() {
				continue
			}
			performed++
			for _, pe := range s.Exercises {
				for _, set := range pe.WorkingSets() {
					tonnage += set.Load * float64(set.Reps)
				}
			}
		}

		printBoxedHeader("STATUS")
		printBlock(block)
		if block != nil {
			bands := config.ResolveRIRBands(block.RIRBands, settings.RIRBands)
			band := lifecycle.RIRTarget(block.State, lifecycle.CurrentWeek(*block), bands)
			printMetric("RIR target", fmt.Sprintf("%d-%d (RPE %.1f)", band.Min, band.Max, lifecycle.TargetRPE(band)))
		}
		printMetric("Sessions (16 weeks)", performed)
		printMetric("Volume load (16 weeks)", fmt.Sprintf("%.0f kg", tonnage))
		printMetric("Week streak", fmt.Sprintf("%d weeks", computeWeekStreak(sessions, now)))
		if len(sessions) > 0 {
			printMetric("Last session", utils.Ago(sessions[0].Date, now))
		}
		fmt.Println()

		lms := volume.NewLandmarks(settings.Landmarks, e.log)
		window := volume.Window{Start: now.Add(-7 * 24 * time.Hour), End: now}
		ref := lifecycle.NewBlock(user, 0, 1, now)
		if block != nil {
			window = volume.BlockWeekWindow(*block, sessions, now, settings.Lookback)
			ref = *block
		}
		if window.Empty() {
			fmt.Println(faint("No sessions logged in the current block week yet."))
			fmt.Println()
			return nil
		}
		weekly := volume.Aggregate(sessions, library, window)
		printWeekly(weekly, volume.Targets(lms, lms.Muscles(), ref))
		if block != nil {
			r := volume.CheckDeloadReadiness(weekly.Effective, lms, lifecycle.IsFinalAccumulationWeek(*block))
			switch {
			case r.Urgent:
				printMetric("Deload", red(fmt.Sprintf("due now (%s near MRV)", muscleNames(r.Saturated))))
			case r.Recommended:
				printMetric("Deload", yellow(fmt.Sprintf("recommended at block end (%s near MRV)", muscleNames(r.Saturated))))
			}
		}
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
