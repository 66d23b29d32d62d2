package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/misterclayt0n/mesocoach/internal/utils"
)

var initNoBlock bool

var initSetupCmd = &cobra.Command{
	Use:   "init [profile-file]",
	Short: "Store your profile, goals, constraints, and preferences from a TOML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.close()
		ctx := cmd.Context()

		pf, err := utils.ParseProfileTOML(args[0])
		if err != nil {
			return fmt.Errorf("Failed to read profile: %w", err)
		}
		if err := e.st.SaveProfile(ctx, *pf); err != nil {
			return err
		}
		fmt.Printf("✅ Profile saved for %s\n", pf.Profile.UserID)

		if initNoBlock {
			return nil
		}
		active, err := e.st.ActiveBlock(ctx, pf.Profile.UserID)
		if err != nil {
			return err
		}
		if active != nil {
			fmt.Printf("Block #%d is already running (%s)\n", active.Number, active.State)
			return nil
		}
		b, err := e.st.StartBlock(ctx, pf.Profile.UserID, pf.Constraints.DaysPerWeek, clock())
		if err != nil {
			return fmt.Errorf("Failed to start block: %w", err)
		}
		fmt.Printf("✅ Started block #%d at %d sessions per week\n", b.Number, b.SessionsPerWeek)
		return nil
	},
}

func init() {
	initSetupCmd.Flags().BoolVar(&initNoBlock, "no-block", false, "Do not start a training block")
	rootCmd.AddCommand(initSetupCmd)
}
