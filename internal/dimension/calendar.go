package dimension

import (
	"time"

	"github.com/umairkarel/Amazon-Sales-Data-Engineering/internal/domain"
)

// CalendarMembers synthesizes the date dimension's candidates: every calendar
// date between the minimum and maximum order date of the curated stream,
// inclusive, at daily granularity with no gaps. An empty stream yields no
// candidates, which makes the date build a no-op.
//
// The day counter is (day-of-year − day-of-year(min) + 1), matching the
// warehouse's established definition.
func CalendarMembers(orders []domain.CuratedSalesOrder) []domain.DateMember {
	if len(orders) == 0 {
		return nil
	}

	minDate := midnightUTC(orders[0].OrderDate)
	maxDate := minDate
	for _, o := range orders[1:] {
		d := midnightUTC(o.OrderDate)
		if d.Before(minDate) {
			minDate = d
		}
		if d.After(maxDate) {
			maxDate = d
		}
	}

	var members []domain.DateMember
	for d := minDate; !d.After(maxDate); d = d.AddDate(0, 0, 1) {
		weekday := isoWeekday(d)
		dayType := "Weekday"
		if weekday > 5 {
			dayType = "Weekend"
		}
		members = append(members, domain.DateMember{
			Date:       d,
			Year:       int32(d.Year()),
			Month:      int32(d.Month()),
			Quarter:    int32((int(d.Month())-1)/3 + 1),
			Day:        int32(d.Day()),
			DayOfWeek:  int32(weekday),
			DayName:    d.Weekday().String(),
			DayCounter: int32(d.YearDay() - minDate.YearDay() + 1),
			DayType:    dayType,
			IsActive:   true,
		})
	}
	return members
}

func midnightUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// isoWeekday maps Go's Sunday-based weekday to the ISO ordinal, Monday=1
// through Sunday=7.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
