package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/misterclayt0n/mesocoach/internal/storage"
)

var deleteSessionCmd = &cobra.Command{
	Use:   "delete-session [session-id]",
	Short: "Delete a recorded session and its sets",
	Long: `Delete a recorded session and its sets. The block counters are left as
they are; use ` + "`mesocoach block reset`" + ` if the block should start over.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.close()

		err = e.st.DeleteSession(cmd.Context(), args[0])
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("No session with id %s", args[0])
		}
		if err != nil {
			return fmt.Errorf("Failed to delete session: %w", err)
		}

		fmt.Printf("✅ Session '%s' deleted successfully\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteSessionCmd)
}
