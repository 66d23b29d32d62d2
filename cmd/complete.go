package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/misterclayt0n/mesocoach/internal/models"
	"github.com/misterclayt0n/mesocoach/internal/storage"
	"github.com/misterclayt0n/mesocoach/internal/utils"
)

var (
	completePartial bool
	completeSkip    bool
)

var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Record the pending plan as performed and advance the training block",
	RunE: func(cmd *cobra.Command, args []string) error {
		if completePartial && completeSkip {
			return errors.New("--partial and --skip are mutually exclusive")
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

		entry := sessionFromPlan(state)
		switch {
		case completeSkip:
			entry.Status = models.StatusSkipped
			entry.Exercises = nil
		case completePartial:
			entry.Status = models.StatusPartial
		}

		ctx := cmd.Context()
		tr, err := e.st.RecordSessionAndAdvance(ctx, entry, clock())
		if errors.Is(err, storage.ErrNoActiveBlock) {
			e.log.Warn("no active block; session stored without one", "user", entry.UserID)
			if _, err := e.st.RecordSession(ctx, entry); err != nil {
				return fmt.Errorf("Failed to save session: %w", err)
			}
		} else if err != nil {
			return fmt.Errorf("Failed to save session: %w", err)
		}

		if err := utils.ClearPlanState(e.dir); err != nil {
			return fmt.Errorf("Failed to clear plan state: %w", err)
		}

		fmt.Printf("✅ Session saved as %s\n", entry.Status)
		switch {
		case tr.Successor != nil:
			fmt.Printf("🏁 Block #%d completed; block #%d starts next session\n", tr.Block.Number, tr.Successor.Number)
		case tr.From != tr.To:
			fmt.Printf("➡️  Block #%d is now %s\n", tr.Block.Number, tr.To)
		case tr.Block.ID != "" && !tr.NoOp:
			printBlock(&tr.Block)
		}
		return nil
	},
}

// sessionFromPlan turns the pending plan's logged sets into a history entry.
// The plan id doubles as the session id so decision logs stay linked.
func sessionFromPlan(state *models.PlanState) models.WorkoutHistoryEntry {
	status := models.StatusCompleted
	for _, pe := range state.Performed {
		for _, s := range pe.Sets {
			if s.Skipped {
				status = models.StatusPartial
			}
		}
	}
	return models.WorkoutHistoryEntry{
		ID:         state.Plan.ID,
		UserID:     state.Plan.UserID,
		Date:       clock(),
		Status:     status,
		Intent:     state.Plan.Intent,
		Provenance: models.ProvenanceIntent,
		Exercises:  state.Performed,
	}
}

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Discard the pending plan without saving anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.close()
		if !utils.PlanStateExists(e.dir) {
			return errors.New("No pending plan to cancel")
		}
		if err := utils.ClearPlanState(e.dir); err != nil {
			return fmt.Errorf("Failed to cancel plan: %w", err)
		}
		fmt.Println("✅ Plan discarded")
		return nil
	},
}

func init() {
	completeCmd.Flags().BoolVar(&completePartial, "partial", false, "Mark the session as partially completed")
	completeCmd.Flags().BoolVar(&completeSkip, "skip", false, "Record the session as skipped (the block does not advance)")
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(cancelCmd)
}
