package chore

import (
	"time"

	"github.com/familyhub/familyhub/internal/model"
)

// cooldownEnd returns when a chore's cooldown ends, given the member's last
// completion. The second return value is false when no cooldown applies:
// non-permanent chores, unset or "unlimited" cooldown types, and malformed
// configurations (an "hours" cooldown without cooldown_hours) all pass freely.
func cooldownEnd(c *model.Chore, lastCompletedAt time.Time) (time.Time, bool) {
	if !c.IsPermanent || c.CooldownType == nil {
		return time.Time{}, false
	}

	switch *c.CooldownType {
	case model.CooldownDaily:
		// Resets at local midnight after the completion's calendar day.
		local := lastCompletedAt.Local()
		end := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, time.Local)
		return end, true
	case model.CooldownHours:
		if c.CooldownHours == nil {
			return time.Time{}, false
		}
		return lastCompletedAt.Add(time.Duration(*c.CooldownHours) * time.Hour), true
	}
	return time.Time{}, false
}
