package supabase

import "time"

// SetClock replaces the time source used for expiry checks.
func (c *Connector) SetClock(now func() time.Time) {
	c.now = now
}
