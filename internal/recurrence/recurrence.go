// Package recurrence evaluates chore schedule rules. A rule is stored as a
// JSON tagged union ("type" discriminator) and parsed into a Config whose
// per-variant fields are validated up front, so downstream code never has to
// re-check which fields go with which variant.
package recurrence

import (
	"encoding/json"
	"fmt"
	"time"
)

// Rule variants.
const (
	TypeDaily    = "daily"
	TypeWeekly   = "weekly"
	TypeBiweekly = "biweekly"
	TypeInterval = "interval"
	TypeDays     = "days"
)

// Config is a parsed schedule rule. Only the fields belonging to Type are
// meaningful; Parse rejects configs whose fields don't match their variant.
type Config struct {
	Type       string `json:"type"`
	DayOfWeek  int    `json:"dayOfWeek,omitempty"`  // weekly, biweekly
	StartDate  string `json:"startDate,omitempty"`  // biweekly anchor, YYYY-MM-DD
	Days       int    `json:"days,omitempty"`       // interval
	DaysOfWeek []int  `json:"daysOfWeek,omitempty"` // days
}

const dateLayout = "2006-01-02"

// Parse decodes and validates a raw schedule rule. A nil or empty raw value
// returns (nil, nil): the chore simply has no schedule.
func Parse(raw json.RawMessage) (*Config, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var c Config
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode recurring config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	switch c.Type {
	case TypeDaily:
		return nil
	case TypeWeekly:
		return validDayOfWeek(c.DayOfWeek)
	case TypeBiweekly:
		if err := validDayOfWeek(c.DayOfWeek); err != nil {
			return err
		}
		if _, err := time.Parse(dateLayout, c.StartDate); err != nil {
			return fmt.Errorf("biweekly config: invalid startDate %q", c.StartDate)
		}
		return nil
	case TypeInterval:
		if c.Days <= 0 {
			return fmt.Errorf("interval config: days must be positive, got %d", c.Days)
		}
		return nil
	case TypeDays:
		if len(c.DaysOfWeek) == 0 {
			return fmt.Errorf("days config: daysOfWeek is empty")
		}
		for _, d := range c.DaysOfWeek {
			if err := validDayOfWeek(d); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown recurring config type %q", c.Type)
	}
}

func validDayOfWeek(d int) error {
	if d < 0 || d > 6 {
		return fmt.Errorf("dayOfWeek must be 0-6, got %d", d)
	}
	return nil
}

// OccursOn reports whether the rule has an occurrence on the given date.
// The anchor is the chore's creation time; it anchors interval counting.
// Day-of-week values use time.Weekday numbering (Sunday = 0).
func (c *Config) OccursOn(anchor, date time.Time) bool {
	day := startOfDay(date)

	switch c.Type {
	case TypeDaily:
		return true
	case TypeWeekly:
		return int(day.Weekday()) == c.DayOfWeek
	case TypeBiweekly:
		if int(day.Weekday()) != c.DayOfWeek {
			return false
		}
		start, err := time.ParseInLocation(dateLayout, c.StartDate, date.Location())
		if err != nil {
			return false
		}
		weeks := int(day.Sub(weekStart(start)).Hours() / (24 * 7))
		return weeks%2 == 0
	case TypeInterval:
		days := int(day.Sub(startOfDay(anchor)).Hours() / 24)
		return days >= 0 && days%c.Days == 0
	case TypeDays:
		for _, d := range c.DaysOfWeek {
			if int(day.Weekday()) == d {
				return true
			}
		}
		return false
	}
	return false
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// weekStart returns the Sunday starting the week containing t.
func weekStart(t time.Time) time.Time {
	d := startOfDay(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}
