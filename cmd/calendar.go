package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/misterclayt0n/mesocoach/internal/models"
)

var calendarDetails bool

// intentColors gives every intent a fixed color so the legend is stable
// between months.
var intentColors = map[models.SessionIntent]color.Attribute{
	models.IntentPush:     color.FgRed,
	models.IntentPull:     color.FgBlue,
	models.IntentLegs:     color.FgGreen,
	models.IntentUpper:    color.FgMagenta,
	models.IntentLower:    color.FgYellow,
	models.IntentFullBody: color.FgCyan,
}

// calendarCmd prints a month grid. Training days are colored by the intent
// of the first session that day; skipped sessions are not marked.
var calendarCmd = &cobra.Command{
	Use:   "calendar [month] [year]",
	Short: "Display a calendar of training days colored by session intent",
	Args:  cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		now := clock()
		month := now.Month()
		year := now.Year()
		if len(args) >= 1 {
			m, err := strconv.Atoi(args[0])
			if err != nil || m < 1 || m > 12 {
				return fmt.Errorf("invalid month: %s", args[0])
			}
			month = time.Month(m)
		}
		if len(args) == 2 {
			y, err := strconv.Atoi(args[1])
			if err != nil || y < 1 {
				return fmt.Errorf("invalid year: %s", args[1])
			}
			year = y
		}

		firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
		nextMonth := firstOfMonth.AddDate(0, 1, 0)
		lastOfMonth := nextMonth.AddDate(0, 0, -1)

		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.close()
		user, err := e.userID()
		if err != nil {
			return err
		}
		sessions, err := e.st.History(cmd.Context(), user, firstOfMonth)
		if err != nil {
			return fmt.Errorf("failed to get sessions: %w", err)
		}

		// History is newest first; walk it backwards so each day keeps its
		// sessions in order.
		sessionsByDay := make(map[int][]models.WorkoutHistoryEntry)
		used := make(map[models.SessionIntent]bool)
		for i := len(sessions) - 1; i >= 0; i-- {
			s := sessions[i]
			local := s.Date.In(time.Local)
			if !local.Before(nextMonth) || !s.Status.Performed() {
				continue
			}
			sessionsByDay[local.Day()] = append(sessionsByDay[local.Day()], s)
			used[s.Intent] = true
		}

		paint := func(intent models.SessionIntent, s string) string {
			attr, ok := intentColors[intent]
			if !ok {
				attr = color.FgWhite
			}
			return color.New(attr).Sprint(s)
		}

		header := fmt.Sprintf("%s %d", month.String(), year)
		fmt.Println(centerText(header, 20))
		fmt.Println("Su Mo Tu We Th Fr Sa")

		weekday := int(firstOfMonth.Weekday())
		fmt.Print(strings.Repeat("   ", weekday))
		for day := 1; day <= lastOfMonth.Day(); day++ {
			dayStr := fmt.Sprintf("%2d", day)
			if list, ok := sessionsByDay[day]; ok {
				dayStr = paint(list[0].Intent, dayStr)
			}
			fmt.Printf("%s ", dayStr)
			weekday++
			if weekday%7 == 0 {
				fmt.Println()
			}
		}
		fmt.Print("\n\n")

		if len(used) > 0 {
			intents := make([]string, 0, len(used))
			for i := range used {
				intents = append(intents, string(i))
			}
			sort.Strings(intents)
			fmt.Println("Legend:")
			for _, i := range intents {
				fmt.Printf("  %s: %s\n", paint(models.SessionIntent(i), "██"), i)
			}
		}

		if calendarDetails {
			var days []int
			for d := range sessionsByDay {
				days = append(days, d)
			}
			sort.Ints(days)
			fmt.Println("\nSession Details:")
			for _, day := range days {
				dayDate := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
				fmt.Printf("\n%s:\n", dayDate.Format("Mon, 02 Jan 2006"))
				for _, s := range sessionsByDay[day] {
					fmt.Printf("  %s %s at %s, %d exercises\n", s.Intent, s.Status,
						s.Date.In(time.Local).Format("15:04"), len(s.Exercises))
				}
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(calendarCmd)
	calendarCmd.Flags().BoolVarP(&calendarDetails, "details", "d", false, "Print additional session details")
}
