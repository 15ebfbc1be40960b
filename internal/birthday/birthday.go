// Package birthday computes upcoming-birthday windows. Only the month and day of
// a stored birthday are significant; the year merely records when the person was
// born. February 29 birthdays are observed on February 28 in non-leap years.
package birthday

import (
	"sort"
	"time"

	"github.com/contactsapp/contacts-api/internal/model"
)

// Upcoming is a contact together with the computed date of its next birthday
// occurrence relative to the reference date.
type Upcoming struct {
	model.Contact
	NextBirthday model.Date `json:"next_birthday"`
}

// NextOccurrence returns the next calendar date, on or after today, on which the
// birthday recurs. Comparison is by calendar date, so a birthday falling on today
// counts as today, not next year.
func NextOccurrence(birthday, today time.Time) time.Time {
	today = truncate(today)
	candidate := observed(today.Year(), birthday.Month(), birthday.Day())
	if candidate.Before(today) {
		candidate = observed(today.Year()+1, birthday.Month(), birthday.Day())
	}
	return candidate
}

// UpcomingWithin selects the contacts whose next birthday falls inside the
// inclusive window [today, today+days]. The result is sorted by next occurrence
// ascending, ties broken by contact id ascending.
func UpcomingWithin(contacts []model.Contact, today time.Time, days int) []Upcoming {
	today = truncate(today)
	end := today.AddDate(0, 0, days)

	result := []Upcoming{}
	for _, contact := range contacts {
		next := NextOccurrence(contact.Birthday.Time, today)
		if !next.Before(today) && !next.After(end) {
			result = append(result, Upcoming{
				Contact:      contact,
				NextBirthday: model.Date{Time: next},
			})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].NextBirthday.Equal(result[j].NextBirthday.Time) {
			return result[i].NextBirthday.Before(result[j].NextBirthday.Time)
		}
		return result[i].Id < result[j].Id
	})
	return result
}

// observed places a birthday's month and day into the given year. A February 29
// birthday maps to February 28 when the year is not a leap year.
func observed(year int, month time.Month, day int) time.Time {
	if month == time.February && day == 29 && !isLeapYear(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// truncate drops the time-of-day component so that window comparisons are pure
// calendar-date comparisons.
func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
