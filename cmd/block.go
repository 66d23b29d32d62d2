package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/misterclayt0n/mesocoach/internal/config"
	"github.com/misterclayt0n/mesocoach/internal/lifecycle"
	"github.com/misterclayt0n/mesocoach/internal/models"
	"github.com/misterclayt0n/mesocoach/internal/storage"
)

var (
	blockSessionsPerWeek int
	rirWeek              int
	rirMin               int
	rirMax               int
	coreIntent           string
	coreRemove           bool
)

var blockCmd = &cobra.Command{
	Use:   "block",
	Short: "Inspect and manage the current training block",
}

var blockStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active block, its week, and its RIR targets",
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

		b, err := e.st.ActiveBlock(cmd.Context(), user)
		if err != nil {
			return err
		}
		printBoxedHeader("BLOCK")
		printBlock(b)
		if b == nil {
			return nil
		}

		fileBands, err := e.cfg.RIRBands()
		if err != nil {
			return err
		}
		bands := config.ResolveRIRBands(b.RIRBands, fileBands)
		band := lifecycle.RIRTarget(b.State, lifecycle.CurrentWeek(*b), bands)
		printMetric("Target RIR", fmt.Sprintf("%d-%d (RPE %.1f)", band.Min, band.Max, lifecycle.TargetRPE(band)))
		printMetric("Volume ramp", fmt.Sprintf("+%d sets/week, deload x%.2f", lifecycle.RampStepSets, lifecycle.DeloadVolumeFactor))
		for _, r := range b.CoreRoles {
			printMetric("Core", fmt.Sprintf("%s (%s, %s)", r.ExerciseID, r.Intent, r.Role))
		}
		return nil
	},
}

var blockStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the next training block",
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

		perWeek := blockSessionsPerWeek
		if perWeek == 0 {
			pf, err := e.st.GetProfile(cmd.Context(), user)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return err
			}
			if pf != nil {
				perWeek = pf.Constraints.DaysPerWeek
			}
		}

		b, err := e.st.StartBlock(cmd.Context(), user, perWeek, clock())
		if errors.Is(err, storage.ErrActiveBlock) {
			return fmt.Errorf("%w (use `mesocoach block reset` to restart it)", err)
		}
		if err != nil {
			return err
		}
		fmt.Printf("✅ Started block #%d at %d sessions per week\n", b.Number, b.SessionsPerWeek)
		return nil
	},
}

var blockResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restart the active block from week 1",
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

		b, err := e.st.ResetBlock(cmd.Context(), user)
		if err != nil {
			return fmt.Errorf("Failed to reset block: %w", err)
		}
		fmt.Printf("✅ Block #%d reset to week 1\n", b.Number)
		return nil
	},
}

var blockListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all blocks",
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

		blocks, err := e.st.Blocks(cmd.Context(), user)
		if err != nil {
			return err
		}
		for _, b := range blocks {
			fmt.Printf("#%d  %-12s  started %s  %d+%d sessions\n", b.Number, b.State,
				b.StartedAt.Format("2006-01-02"), b.AccumulationSessionsCompleted, b.DeloadSessionsCompleted)
		}
		return nil
	},
}

var blockRIRCmd = &cobra.Command{
	Use:   "set-rir",
	Short: "Override the RIR band of one accumulation week for the active block",
	RunE: func(cmd *cobra.Command, args []string) error {
		if rirWeek < 1 || rirWeek > lifecycle.MaxAccumulationWeek {
			return fmt.Errorf("week must be 1-%d", lifecycle.MaxAccumulationWeek)
		}
		if rirMin < 0 || rirMax < rirMin {
			return fmt.Errorf("invalid RIR band %d-%d", rirMin, rirMax)
		}
		return updateActiveBlock(cmd, func(b *models.TrainingBlock) {
			if b.RIRBands == nil {
				b.RIRBands = map[int]models.RIRBand{}
			}
			b.RIRBands[rirWeek] = models.RIRBand{Min: rirMin, Max: rirMax}
			fmt.Printf("✅ Week %d RIR set to %d-%d\n", rirWeek, rirMin, rirMax)
		})
	},
}

var blockCoreCmd = &cobra.Command{
	Use:   "core [exercise-id]",
	Short: "Pin an exercise as a core compound for an intent in the active block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		intent := models.SessionIntent(strings.ToLower(coreIntent))
		id := args[0]
		return updateActiveBlock(cmd, func(b *models.TrainingBlock) {
			kept := b.CoreRoles[:0]
			for _, r := range b.CoreRoles {
				if r.ExerciseID != id || r.Intent != intent {
					kept = append(kept, r)
				}
			}
			b.CoreRoles = kept
			if coreRemove {
				fmt.Printf("✅ %s is no longer core for %s\n", id, intent)
				return
			}
			b.CoreRoles = append(b.CoreRoles, models.RoleAssignment{ExerciseID: id, Intent: intent, Role: models.RoleCoreCompound})
			fmt.Printf("✅ %s is core for %s\n", id, intent)
		})
	},
}

func updateActiveBlock(cmd *cobra.Command, edit func(*models.TrainingBlock)) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.close()
	user, err := e.userID()
	if err != nil {
		return err
	}

	b, err := e.st.ActiveBlock(cmd.Context(), user)
	if err != nil {
		return err
	}
	if b == nil {
		return errors.New("No active block")
	}
	edit(b)
	return e.st.SaveBlock(cmd.Context(), *b)
}

func init() {
	blockStartCmd.Flags().IntVarP(&blockSessionsPerWeek, "sessions-per-week", "s", 0, "Sessions per week (defaults to the profile's days_per_week)")

	blockRIRCmd.Flags().IntVarP(&rirWeek, "week", "w", 0, "Accumulation week (1-4)")
	blockRIRCmd.Flags().IntVar(&rirMin, "min", 0, "Minimum reps in reserve")
	blockRIRCmd.Flags().IntVar(&rirMax, "max", 0, "Maximum reps in reserve")
	blockRIRCmd.MarkFlagRequired("week")
	blockRIRCmd.MarkFlagRequired("max")

	blockCoreCmd.Flags().StringVarP(&coreIntent, "intent", "i", "", "Session intent the exercise anchors")
	blockCoreCmd.Flags().BoolVar(&coreRemove, "remove", false, "Unpin instead of pinning")
	blockCoreCmd.MarkFlagRequired("intent")

	blockCmd.AddCommand(blockStatusCmd, blockStartCmd, blockResetCmd, blockListCmd, blockRIRCmd, blockCoreCmd)
	rootCmd.AddCommand(blockCmd)
}
