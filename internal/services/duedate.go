package services

import (
	"fmt"
	"strings"
	"time"
)

// DueDateMode selects how step SLAs are added to a start date.
type DueDateMode string

const (
	// DueDateCalendar counts every day toward the SLA.
	DueDateCalendar DueDateMode = "calendar"
	// DueDateBusiness skips the configured weekend days.
	DueDateBusiness DueDateMode = "business"
)

// DueDatePolicy is the single policy point for SLA arithmetic. The default is
// calendar days; agencies that exclude weekends switch the mode and name their
// weekend, which differs between locales (Fri/Sat vs Sat/Sun).
type DueDatePolicy struct {
	Mode    DueDateMode
	Weekend []time.Weekday
}

// DefaultDueDatePolicy returns the calendar-day policy.
func DefaultDueDatePolicy() DueDatePolicy {
	return DueDatePolicy{Mode: DueDateCalendar}
}

// AddDays returns the calendar date of from plus days under the policy,
// truncated to midnight local time.
func (p DueDatePolicy) AddDays(from time.Time, days int) time.Time {
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	if p.Mode != DueDateBusiness || days <= 0 {
		return day.AddDate(0, 0, days)
	}
	for remaining := days; remaining > 0; {
		day = day.AddDate(0, 0, 1)
		if !p.isWeekend(day.Weekday()) {
			remaining--
		}
	}
	return day
}

// ParseDueDatePolicy builds a policy from configuration values. Weekend day
// names are matched case-insensitively ("friday", "Saturday", ...).
func ParseDueDatePolicy(mode string, weekendDays []string) (DueDatePolicy, error) {
	switch DueDateMode(mode) {
	case DueDateCalendar, "":
		return DefaultDueDatePolicy(), nil
	case DueDateBusiness:
	default:
		return DueDatePolicy{}, fmt.Errorf("unknown due date mode %q", mode)
	}

	p := DueDatePolicy{Mode: DueDateBusiness}
	for _, name := range weekendDays {
		day, err := parseWeekday(name)
		if err != nil {
			return DueDatePolicy{}, err
		}
		p.Weekend = append(p.Weekend, day)
	}
	if len(p.Weekend) == 0 {
		p.Weekend = []time.Weekday{time.Saturday, time.Sunday}
	}
	return p, nil
}

func parseWeekday(name string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), name) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}

func (p DueDatePolicy) isWeekend(d time.Weekday) bool {
	for _, w := range p.Weekend {
		if w == d {
			return true
		}
	}
	return false
}
