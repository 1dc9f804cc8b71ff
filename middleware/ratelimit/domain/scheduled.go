package domain

import "time"

// ScheduledEvent é um disparo periódico (cron) repassado direto ao backend,
// sem passar pelo rate limit.
type ScheduledEvent struct {
	Cron          string
	ScheduledTime time.Time
}
