package service

import (
	"strconv"
	"time"
)

// Month abbreviations in Spanish, uppercase, accents stripped.
var spanishMonths = [12]string{
	"ENE", "FEB", "MAR", "ABR", "MAY", "JUN",
	"JUL", "AGO", "SEP", "OCT", "NOV", "DIC",
}

const (
	weekAxisLen        = 14
	monthLookbackWeeks = 52
	monthAxisLen       = 4
)

// WeekLabel is the ISO-8601 week number of t as a decimal string. The
// label carries no year, so week 1 of different years collapses to the
// same "1"; monthly aggregation accepts that collision.
func WeekLabel(t time.Time) string {
	_, week := t.ISOWeek()
	return strconv.Itoa(week)
}

// isoThursday returns the Thursday of the ISO week containing t. Per
// the ISO rule a week belongs to the year (and here, the month) that
// contains its Thursday.
func isoThursday(t time.Time) time.Time {
	day := int(t.Weekday())
	if day == 0 {
		day = 7
	}
	return t.AddDate(0, 0, 4-day)
}

// MonthLabel is the Spanish month abbreviation of the ISO Thursday of
// the week containing t.
func MonthLabel(t time.Time) string {
	return spanishMonths[isoThursday(t).Month()-1]
}

// WeekAxis generates the labels of the 14 consecutive weeks ending at
// the anchor's week, oldest first.
func WeekAxis(anchor time.Time) []string {
	labels := make([]string, weekAxisLen)
	cur := anchor
	for i := weekAxisLen - 1; i >= 0; i-- {
		labels[i] = WeekLabel(cur)
		cur = cur.AddDate(0, 0, -7)
	}
	return labels
}

// WeekToMonth walks backward week by week from the anchor for 52
// iterations, building the week label to month label map used to
// bucket weekly logs into months. It also returns the 4 most recent
// distinct month labels in chronological order, the monthly axis.
func WeekToMonth(anchor time.Time) (map[string]string, []string) {
	weekToMonth := make(map[string]string, monthLookbackWeeks)
	months := make([]string, 0, 12)
	seen := make(map[string]struct{}, 12)
	cur := anchor
	for i := 0; i < monthLookbackWeeks; i++ {
		weekToMonth[WeekLabel(cur)] = MonthLabel(cur)
		ml := MonthLabel(cur)
		if _, ok := seen[ml]; !ok {
			seen[ml] = struct{}{}
			months = append([]string{ml}, months...)
		}
		cur = cur.AddDate(0, 0, -7)
	}
	if len(months) > monthAxisLen {
		months = months[len(months)-monthAxisLen:]
	}
	return weekToMonth, months
}
