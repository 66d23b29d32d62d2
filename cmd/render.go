package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/misterclayt0n/mesocoach/internal/engine"
	"github.com/misterclayt0n/mesocoach/internal/lifecycle"
	"github.com/misterclayt0n/mesocoach/internal/models"
	"github.com/misterclayt0n/mesocoach/internal/progression"
	"github.com/misterclayt0n/mesocoach/internal/volume"
)

var (
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

func printBoxedHeader(title string) {
	width := 40
	cyanBold := color.New(color.FgCyan, color.Bold).SprintFunc()
	border := strings.Repeat("═", width)
	fmt.Println(cyanBold("╔" + border + "╗"))
	fmt.Println(cyanBold("║" + centerText(title, width) + "║"))
	fmt.Println(cyanBold("╚" + border + "╝"))
}

func centerText(s string, width int) string {
	if len(s) >= width {
		return s
	}
	padding := (width - len(s)) / 2
	return strings.Repeat(" ", padding) + s + strings.Repeat(" ", width-len(s)-padding)
}

// printMetric prints a label and value using bold yellow for the label.
func printMetric(label string, value any) {
	yellowBold := color.New(color.FgYellow, color.Bold).SprintFunc()
	fmt.Printf("  %s: %v\n", yellowBold(label), value)
}

func printBlock(b *models.TrainingBlock) {
	if b == nil {
		printMetric("Block", "none (run `mesocoach block start`)")
		return
	}
	printMetric("Block", fmt.Sprintf("#%d (%s)", b.Number, b.State))
	printMetric("Week", fmt.Sprintf("%d of %d", lifecycle.CurrentWeek(*b), b.DurationWeeks))
	printMetric("Accumulation sessions", fmt.Sprintf("%d/%d", b.AccumulationSessionsCompleted, lifecycle.AccumulationSessions))
	printMetric("Deload sessions", fmt.Sprintf("%d/%d", b.DeloadSessionsCompleted, lifecycle.DeloadSessions))
}

func printResult(res *engine.Result) {
	plan := res.Plan
	printBoxedHeader(strings.ToUpper(string(plan.Intent)) + " SESSION")
	printMetric("Plan", plan.ID)
	printMetric("Cycle", fmt.Sprintf("week %d, %s, %s (%s)", res.Cycle.WeekInBlock, res.Cycle.Phase, res.Cycle.BlockType, res.Cycle.Source))
	if res.Deload.Active() {
		printMetric("Deload", red(fmt.Sprintf("%s, -%.0f%% %s", res.Deload.Mode, res.Deload.ReductionPercent, res.Deload.Scope)))
		for _, r := range res.Deload.Reasons {
			fmt.Printf("    %s\n", faint(r))
		}
	}
	if r := res.DeloadReadiness; r.Recommended && !res.Deload.Active() {
		printMetric("Deload", yellow(fmt.Sprintf("recommended at block end (%s near MRV)", muscleNames(r.Saturated))))
	}
	printMetric("Readiness", res.Autoreg.Rationale)
	if res.Autoreg.Applied {
		printMetric("Adjustments", res.Autoreg.Summary())
	}
	fmt.Println()

	n := 1
	for _, group := range []struct {
		title string
		list  []models.PlannedExercise
	}{
		{"Main lifts", plan.MainLifts},
		{"Accessories", plan.Accessories},
	} {
		if len(group.list) == 0 {
			continue
		}
		fmt.Println(color.New(color.FgGreen, color.Bold).Sprint(group.title + ":"))
		for _, pe := range group.list {
			printPlannedExercise(n, pe, receiptFor(res.Receipts, pe.ExerciseID))
			n++
		}
		fmt.Println()
	}

	if len(res.Compliance) > 0 {
		printCompliance(res.Compliance)
	}
}

func printPlannedExercise(n int, pe models.PlannedExercise, r *progression.Receipt) {
	fmt.Printf("%s %s\n", cyan(fmt.Sprintf("%d.", n)), cyan(pe.Name))
	for _, s := range pe.Sets {
		reps := fmt.Sprintf("%d", s.TargetReps)
		if s.RepRange != nil {
			reps = fmt.Sprintf("%d-%d", s.RepRange.Min, s.RepRange.Max)
		}
		if s.Warmup {
			fmt.Printf("   %s %s x %s\n", faint("warm-up"), faint(fmt.Sprintf("%.1f", s.TargetLoad)), faint(reps))
			continue
		}
		fmt.Printf("   set %d  %s x %s  @RPE %s  rest %ds\n",
			s.Index, yellow(fmt.Sprintf("%.1f", s.TargetLoad)), reps, fmt.Sprintf("%.1f", s.TargetRPE), s.RestSeconds)
	}
	if r != nil {
		fmt.Printf("   %s\n", faint(receiptLine(*r)))
	}
}

func receiptFor(rs []progression.Receipt, id string) *progression.Receipt {
	for i := range rs {
		if rs[i].ExerciseID == id {
			return &rs[i]
		}
	}
	return nil
}

func receiptLine(r progression.Receipt) string {
	line := fmt.Sprintf("%s: %.1f -> %.1f (%+.1f), reps %d -> %d, confidence %.2f",
		r.Trigger, r.AnchorLoad, r.TargetLoad, r.LoadDelta, r.PriorReps, r.TargetReps, r.Confidence)
	if len(r.Anomalies) > 0 {
		line += ", " + strings.Join(r.Anomalies, "; ")
	}
	return line
}

func muscleNames(ms []models.Muscle) string {
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

func printCompliance(cs []volume.Compliance) {
	fmt.Println(color.New(color.FgGreen, color.Bold).Sprint("Weekly volume:"))
	for _, c := range cs {
		status := string(c.Status)
		switch c.Status {
		case volume.OverMAV, volume.AtMAV, volume.UnderMEV:
			status = red(status)
		case volume.ApproachingMAV, volume.OverTarget, volume.ApproachingTarget:
			status = yellow(status)
		default:
			status = green(status)
		}
		fmt.Printf("   %-12s %4.1f + %4.1f = %4.1f / %4.1f  %s\n",
			c.Muscle, c.Prior, c.Prescribed, c.ProjectedTotal, c.Target, status)
	}
}

func printWeekly(weekly volume.Weekly, targets map[models.Muscle]float64) {
	muscles := make([]models.Muscle, 0, len(targets))
	for m := range targets {
		muscles = append(muscles, m)
	}
	sort.Slice(muscles, func(i, j int) bool { return muscles[i] < muscles[j] })

	fmt.Println(color.New(color.FgGreen, color.Bold).Sprint("Sets per muscle (current block week):"))
	for _, m := range muscles {
		done, target := weekly.Direct[m], targets[m]
		val := fmt.Sprintf("%4.1f / %2.0f", done, target)
		switch {
		case done >= target:
			val = green(val)
		case done > 0:
			val = yellow(val)
		}
		fmt.Printf("  • %-12s %s  %s\n", color.New(color.FgMagenta, color.Bold).Sprint(m), val,
			faint(fmt.Sprintf("(+%.1f indirect)", weekly.Indirect[m])))
	}
}
