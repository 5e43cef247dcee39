package recurrence

import (
	"encoding/json"
	"testing"
	"time"
)

func mustParse(t *testing.T, raw string) *Config {
	t.Helper()
	cfg, err := Parse(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("parse %s: %v", raw, err)
	}
	return cfg
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestParseEmpty(t *testing.T) {
	for _, raw := range []string{"", "null"} {
		cfg, err := Parse(json.RawMessage(raw))
		if err != nil {
			t.Errorf("Parse(%q) err = %v", raw, err)
		}
		if cfg != nil {
			t.Errorf("Parse(%q) = %+v, want nil", raw, cfg)
		}
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := []string{
		`{"type":"hourly"}`,
		`{"type":"weekly","dayOfWeek":7}`,
		`{"type":"weekly","dayOfWeek":-1}`,
		`{"type":"biweekly","dayOfWeek":2}`,
		`{"type":"biweekly","dayOfWeek":2,"startDate":"not-a-date"}`,
		`{"type":"interval","days":0}`,
		`{"type":"interval","days":-3}`,
		`{"type":"days","daysOfWeek":[]}`,
		`{"type":"days","daysOfWeek":[1,9]}`,
		`{not json}`,
	}
	for _, raw := range cases {
		if _, err := Parse(json.RawMessage(raw)); err == nil {
			t.Errorf("Parse(%s) should fail", raw)
		}
	}
}

func TestDailyOccursEveryDay(t *testing.T) {
	cfg := mustParse(t, `{"type":"daily"}`)
	anchor := date(2026, time.January, 1)
	for d := 0; d < 7; d++ {
		if !cfg.OccursOn(anchor, anchor.AddDate(0, 0, d)) {
			t.Errorf("daily should occur on day %d", d)
		}
	}
}

func TestWeeklyOccursOnConfiguredDay(t *testing.T) {
	// dayOfWeek 3 = Wednesday
	cfg := mustParse(t, `{"type":"weekly","dayOfWeek":3}`)
	anchor := date(2026, time.January, 1)

	wednesday := date(2026, time.January, 7)
	if wednesday.Weekday() != time.Wednesday {
		t.Fatal("fixture is not a Wednesday")
	}
	if !cfg.OccursOn(anchor, wednesday) {
		t.Error("weekly should occur on its configured weekday")
	}
	if cfg.OccursOn(anchor, wednesday.AddDate(0, 0, 1)) {
		t.Error("weekly should not occur on other weekdays")
	}
}

func TestBiweeklyAlternatesWeeks(t *testing.T) {
	// Anchored to the week of Monday 2026-01-05; dayOfWeek 1 = Monday
	cfg := mustParse(t, `{"type":"biweekly","dayOfWeek":1,"startDate":"2026-01-05"}`)
	anchor := date(2026, time.January, 1)

	onWeek := date(2026, time.January, 5)
	offWeek := date(2026, time.January, 12)
	nextOnWeek := date(2026, time.January, 19)

	if !cfg.OccursOn(anchor, onWeek) {
		t.Error("biweekly should occur in its start week")
	}
	if cfg.OccursOn(anchor, offWeek) {
		t.Error("biweekly should skip the following week")
	}
	if !cfg.OccursOn(anchor, nextOnWeek) {
		t.Error("biweekly should occur two weeks after the start")
	}
	if cfg.OccursOn(anchor, onWeek.AddDate(0, 0, 1)) {
		t.Error("biweekly should not occur on other weekdays")
	}
}

func TestIntervalCountsFromAnchor(t *testing.T) {
	cfg := mustParse(t, `{"type":"interval","days":3}`)
	anchor := date(2026, time.February, 1)

	cases := []struct {
		offset int
		want   bool
	}{
		{0, true},
		{1, false},
		{2, false},
		{3, true},
		{6, true},
		{7, false},
		{-1, false}, // before the anchor
	}
	for _, tt := range cases {
		got := cfg.OccursOn(anchor, anchor.AddDate(0, 0, tt.offset))
		if got != tt.want {
			t.Errorf("interval day %+d: got %v, want %v", tt.offset, got, tt.want)
		}
	}
}

func TestDaysOccursOnListedWeekdays(t *testing.T) {
	// Saturday and Sunday
	cfg := mustParse(t, `{"type":"days","daysOfWeek":[0,6]}`)
	anchor := date(2026, time.January, 1)

	saturday := date(2026, time.January, 3)
	sunday := date(2026, time.January, 4)
	monday := date(2026, time.January, 5)

	if !cfg.OccursOn(anchor, saturday) || !cfg.OccursOn(anchor, sunday) {
		t.Error("days should occur on its listed weekdays")
	}
	if cfg.OccursOn(anchor, monday) {
		t.Error("days should not occur on unlisted weekdays")
	}
}
