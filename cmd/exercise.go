package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/misterclayt0n/mesocoach/internal/models"
	"github.com/misterclayt0n/mesocoach/internal/utils"
)

var importLibraryCmd = &cobra.Command{
	Use:   "import-library [file]",
	Short: "Import or update exercises from a TOML library file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.close()

		lib, err := utils.ParseLibraryTOML(args[0])
		if err != nil {
			return fmt.Errorf("invalid library file: %w", err)
		}
		if err := e.st.ImportLibrary(cmd.Context(), lib); err != nil {
			return fmt.Errorf("Failed to import library: %w", err)
		}

		fmt.Printf("✅ Imported %d exercises\n", len(lib))
		return nil
	},
}

var listIntent string

var exercisesCmd = &cobra.Command{
	Use:   "exercises",
	Short: "List the exercise library",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.close()

		lib, err := e.st.ListExercises(cmd.Context())
		if err != nil {
			return err
		}
		for _, ex := range lib {
			if listIntent != "" && !hasTag(ex, models.SessionIntent(strings.ToLower(listIntent))) {
				continue
			}
			main := ""
			if ex.MainLiftEligible {
				main = yellow(" [main]")
			}
			fmt.Printf("%s%s %s\n", cyan(ex.Name), main, faint(ex.ID))
			fmt.Printf("   %s  reps %d-%d  sfr %.1f\n", muscleList(ex), ex.RepRange.Min, ex.RepRange.Max, ex.SFRScore)
		}
		return nil
	},
}

func hasTag(ex models.Exercise, intent models.SessionIntent) bool {
	for _, t := range ex.SplitTags {
		if t == intent {
			return true
		}
	}
	return false
}

func muscleList(ex models.Exercise) string {
	parts := make([]string, 0, len(ex.Muscles))
	for _, m := range ex.Muscles {
		if m.Role == models.RolePrimary {
			parts = append(parts, string(m.Muscle))
		} else {
			parts = append(parts, faint(string(m.Muscle)))
		}
	}
	return strings.Join(parts, ", ")
}

func init() {
	exercisesCmd.Flags().StringVarP(&listIntent, "intent", "i", "", "Only list exercises tagged with this intent")
	rootCmd.AddCommand(importLibraryCmd)
	rootCmd.AddCommand(exercisesCmd)
}
