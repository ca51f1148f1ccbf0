package core

import "time"

// NextDueDate returns the next calendar date, on or after now's date, on
// which an EMI due on dueDay is paid. In months shorter than dueDay the
// payment falls on the last day of the month.
func NextDueDate(dueDay int, now time.Time) time.Time {
	y, m, d := now.Date()
	loc := now.Location()

	this := time.Date(y, m, clampDay(dueDay, y, m, loc), 0, 0, 0, 0, loc)
	if d <= this.Day() {
		return this
	}

	next := time.Date(y, m+1, 1, 0, 0, 0, 0, loc)
	ny, nm, _ := next.Date()
	return time.Date(ny, nm, clampDay(dueDay, ny, nm, loc), 0, 0, 0, 0, loc)
}

func clampDay(day, year int, month time.Month, loc *time.Location) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
	if day > last {
		return last
	}
	if day < MinDueDate {
		return MinDueDate
	}
	return day
}
