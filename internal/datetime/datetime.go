// Package datetime normalizes the loose date and time strings that arrive from
// chat-style booking input into canonical YYYY-MM-DD and 24-hour HH:MM forms.
package datetime

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical date format used for tours, bookings and availability keys.
const DateLayout = "2006-01-02"

var (
	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	time24Pattern  = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	time12Pattern  = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})\s*(am|pm)$`)
	loose12Pattern = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s*(am|pm)$`)
)

// FormatDate renders t as YYYY-MM-DD in t's own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// IsISODate reports whether value has the YYYY-MM-DD shape. The calendar is not
// checked, so 2024-02-31 passes.
func IsISODate(value string) bool {
	return isoDatePattern.MatchString(value)
}

// ParseDate accepts "today", "tomorrow" (resolved against now) or a YYYY-MM-DD string.
func ParseDate(input string, now time.Time) (string, bool) {
	value := strings.TrimSpace(input)
	if value == "" {
		return "", false
	}

	switch strings.ToLower(value) {
	case "today":
		return FormatDate(now), true
	case "tomorrow":
		return FormatDate(now.AddDate(0, 0, 1)), true
	}

	if IsISODate(value) {
		return value, true
	}
	return "", false
}

// NormalizeTime accepts 24-hour H:MM / HH:MM or 12-hour H:MM am/pm and returns HH:MM.
func NormalizeTime(input string) (string, bool) {
	value := strings.TrimSpace(input)

	if m := time24Pattern.FindStringSubmatch(value); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return "", false
		}
		return clock(hour, minute), true
	}

	if m := time12Pattern.FindStringSubmatch(value); m != nil {
		return from12h(m[1], m[2], m[3])
	}

	return "", false
}

// Parse12h accepts H[:MM] am/pm with optional minutes and returns HH:MM.
func Parse12h(input string) (string, bool) {
	m := loose12Pattern.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return "", false
	}
	minutes := m[2]
	if minutes == "" {
		minutes = "00"
	}
	return from12h(m[1], minutes, m[3])
}

// ParseTime is the booking parser: 12-hour first, then NormalizeTime.
func ParseTime(input string) (string, bool) {
	if value, ok := Parse12h(input); ok {
		return value, true
	}
	return NormalizeTime(input)
}

// Format12h renders HH:MM as "1pm" or "1:05pm". Anything it cannot read is returned as is.
func Format12h(value string) string {
	m := time24Pattern.FindStringSubmatch(value)
	if m == nil {
		return value
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return value
	}

	suffix := "am"
	if hour >= 12 {
		suffix = "pm"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	if minute == 0 {
		return fmt.Sprintf("%d%s", display, suffix)
	}
	return fmt.Sprintf("%d:%02d%s", display, minute, suffix)
}

// PrettyDate turns 2025-12-14 into "December 14, 2025". Unparsable dates come back unchanged.
func PrettyDate(value string) string {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return value
	}
	return t.Format("January 2, 2006")
}

func from12h(hourText, minuteText, meridiem string) (string, bool) {
	hour, _ := strconv.Atoi(hourText)
	minute, _ := strconv.Atoi(minuteText)
	if hour < 1 || hour > 12 || minute > 59 {
		return "", false
	}

	pm := strings.EqualFold(meridiem, "pm")
	switch {
	case hour == 12 && !pm:
		hour = 0
	case hour != 12 && pm:
		hour += 12
	}
	return clock(hour, minute), true
}

func clock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}
