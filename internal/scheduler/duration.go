package scheduler

import "fmt"

// formatWallTime renders a wall-time in seconds the way Python's
// str(timedelta(seconds=...)) does, which is what the original scheduler
// commands embed: "H:MM:SS", or "<n> day(s), H:MM:SS" once a full day has
// elapsed. Hours are not zero-padded; minutes and seconds are.
func formatWallTime(totalSeconds int) string {
	days := totalSeconds / 86400
	rem := totalSeconds % 86400
	hours := rem / 3600
	rem %= 3600
	minutes := rem / 60
	seconds := rem % 60

	hms := fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	if days == 0 {
		return hms
	}
	unit := "days"
	if days == 1 {
		unit = "day"
	}
	return fmt.Sprintf("%d %s, %s", days, unit, hms)
}
