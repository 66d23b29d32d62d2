package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/misterclayt0n/mesocoach/internal/storage"
	"github.com/misterclayt0n/mesocoach/internal/utils"
)

var logSessionAdvance bool

var logSessionCmd = &cobra.Command{
	Use:   "log-session [file]",
	Short: "Record a session you trained outside a generated plan, from a TOML file",
	Long: `Record a manually planned session. The file looks like:

  date = "2025-03-08"
  intent = "pull"
  status = "completed"

  [[exercise]]
  name = "Barbell Row"
  is_main_lift = true
    [[exercise.sets]]
    reps = 8
    load = 100.0
    rpe = 8.0

Manual sessions feed progression with lower confidence than generated ones.`,
	Args: cobra.ExactArgs(1),
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

		entry, err := utils.ParseSessionLogTOML(args[0], user, clock())
		if err != nil {
			return fmt.Errorf("invalid session file: %w", err)
		}
		for _, pe := range entry.Exercises {
			if _, err := e.st.GetExerciseByID(cmd.Context(), pe.ExerciseID); errors.Is(err, storage.ErrNotFound) {
				fmt.Printf("%s %s is not in the library; it will not count toward muscle volume\n", yellow("warning:"), pe.ExerciseID)
			}
		}

		if logSessionAdvance {
			tr, err := e.st.RecordSessionAndAdvance(cmd.Context(), entry, clock())
			if err != nil {
				return fmt.Errorf("Failed to save session: %w", err)
			}
			fmt.Printf("✅ Session saved; block #%d is %s\n", tr.Block.Number, tr.To)
			return nil
		}
		id, err := e.st.RecordSession(cmd.Context(), entry)
		if err != nil {
			return fmt.Errorf("Failed to save session: %w", err)
		}
		fmt.Printf("✅ Session %s saved\n", id)
		return nil
	},
}

func init() {
	logSessionCmd.Flags().BoolVar(&logSessionAdvance, "advance", false, "Count the session toward the active block")
	rootCmd.AddCommand(logSessionCmd)
}
