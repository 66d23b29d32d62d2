package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/misterclayt0n/mesocoach/internal/autoreg"
	"github.com/misterclayt0n/mesocoach/internal/models"
	"github.com/misterclayt0n/mesocoach/internal/utils"
)

var (
	rdSleep      int
	rdSoreness   int
	rdStress     int
	rdMotivation int
	rdHRV        float64
	rdRHR        float64
	rdPain       []string
	rdAt         string
)

var readinessCmd = &cobra.Command{
	Use:   "readiness",
	Short: "Log or inspect readiness signals used to autoregulate the next session",
}

var readinessLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Log how you feel today (scores 1-5, 5 is best; soreness and stress 5 means none)",
	Example: `  mesocoach readiness log --sleep 4 --soreness 3 --stress 4 --motivation 5
  mesocoach readiness log --hrv -8 --pain knee:2`,
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

		at, err := utils.ParseWhen(rdAt, clock())
		if err != nil {
			return err
		}
		sig := models.ReadinessSignal{UserID: user, At: at}

		scores := []int{rdSleep, rdSoreness, rdStress, rdMotivation}
		given := 0
		for _, s := range scores {
			if s != 0 {
				given++
			}
		}
		switch given {
		case 0:
		case len(scores):
			sig.Subjective = &models.Subjective{Sleep: rdSleep, Soreness: rdSoreness, Stress: rdStress, Motivation: rdMotivation}
		default:
			return errors.New("--sleep, --soreness, --stress and --motivation go together")
		}

		flags := cmd.Flags()
		if flags.Changed("hrv") || flags.Changed("rhr") {
			sig.Physiological = &models.Physiological{}
			if flags.Changed("hrv") {
				sig.Physiological.HRVDeltaPct = &rdHRV
			}
			if flags.Changed("rhr") {
				sig.Physiological.RestingHRDelta = &rdRHR
			}
		}

		for _, p := range rdPain {
			flag, err := parsePainFlag(p)
			if err != nil {
				return err
			}
			flag.At = at
			sig.PainFlags = append(sig.PainFlags, flag)
		}

		if sig.Subjective == nil && sig.Physiological == nil && len(sig.PainFlags) == 0 {
			return errors.New("Nothing to log: pass subjective scores, --hrv/--rhr, or --pain")
		}

		id, err := e.st.SaveReadiness(cmd.Context(), sig)
		if err != nil {
			return fmt.Errorf("Failed to save readiness: %w", err)
		}
		fatigue := autoreg.Score(sig)
		fmt.Printf("✅ Readiness %s saved (fatigue %.2f)\n", id, fatigue.Overall)
		return nil
	},
}

// parsePainFlag reads "zone:severity", e.g. "knee:2".
func parsePainFlag(s string) (models.PainFlag, error) {
	zone, sev, ok := strings.Cut(s, ":")
	zone = strings.ToLower(strings.TrimSpace(zone))
	if !ok || zone == "" {
		return models.PainFlag{}, fmt.Errorf("invalid pain flag %q (want zone:severity)", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(sev))
	if err != nil || n < 0 || n > 3 {
		return models.PainFlag{}, fmt.Errorf("invalid pain severity in %q (want 0-3)", s)
	}
	return models.PainFlag{Zone: zone, Severity: n}, nil
}

var readinessShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the latest readiness signal and whether it still applies",
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

		sig, err := e.st.LatestReadiness(cmd.Context(), user)
		if err != nil {
			return fmt.Errorf("Failed to load readiness: %w", err)
		}
		if sig == nil {
			fmt.Println("No readiness logged yet.")
			return nil
		}

		now := clock()
		printBoxedHeader("READINESS")
		when := fmt.Sprintf("%s (%s)", utils.FormatLocal(sig.At), utils.Ago(sig.At, now))
		if age, fresh := autoreg.Fresh(sig, now); age < 0 {
			when += " " + red("dated in the future, ignored by generate")
		} else if !fresh {
			when += " " + red("stale, ignored by generate")
		}
		printMetric("Logged", when)
		if s := sig.Subjective; s != nil {
			printMetric("Subjective", fmt.Sprintf("sleep %d, soreness %d, stress %d, motivation %d", s.Sleep, s.Soreness, s.Stress, s.Motivation))
		}
		if p := sig.Physiological; p != nil {
			if p.HRVDeltaPct != nil {
				printMetric("HRV", fmt.Sprintf("%+.1f%%", *p.HRVDeltaPct))
			}
			if p.RestingHRDelta != nil {
				printMetric("Resting HR", fmt.Sprintf("%+.1f bpm", *p.RestingHRDelta))
			}
		}
		for _, pf := range sig.PainFlags {
			printMetric("Pain", fmt.Sprintf("%s (%d/3)", pf.Zone, pf.Severity))
		}

		score := autoreg.Score(*sig)
		fatigue := fmt.Sprintf("%.2f", score.Overall)
		switch {
		case score.Overall >= autoreg.TrimThreshold:
			fatigue = red(fatigue)
		case score.Overall >= autoreg.ScaleThreshold:
			fatigue = yellow(fatigue)
		default:
			fatigue = green(fatigue)
		}
		printMetric("Fatigue", fatigue)
		return nil
	},
}

func init() {
	f := readinessLogCmd.Flags()
	f.IntVar(&rdSleep, "sleep", 0, "Sleep quality 1-5")
	f.IntVar(&rdSoreness, "soreness", 0, "Soreness 1-5 (5 = none)")
	f.IntVar(&rdStress, "stress", 0, "Stress 1-5 (5 = none)")
	f.IntVar(&rdMotivation, "motivation", 0, "Motivation 1-5")
	f.Float64Var(&rdHRV, "hrv", 0, "HRV change vs. baseline in percent")
	f.Float64Var(&rdRHR, "rhr", 0, "Resting heart rate change vs. baseline in bpm")
	f.StringSliceVar(&rdPain, "pain", nil, "Pain flag as zone:severity (0-3), repeatable")
	f.StringVar(&rdAt, "at", "", "When it was measured (today, yesterday, YYYY-MM-DD or RFC3339)")

	readinessCmd.AddCommand(readinessLogCmd)
	readinessCmd.AddCommand(readinessShowCmd)
	rootCmd.AddCommand(readinessCmd)
}
