package service

// ScheduledRefreshes exposes the number of cards with a refresh schedule to tests.
func (d *Dashboard) ScheduledRefreshes() int { return d.refresh.Scheduled() }
