package dto

import "time"

// ScheduleResponse describes one configured schedule.
type ScheduleResponse struct {
	Name       string     `json:"name"`
	Cron       string     `json:"cron"`
	Pairs      []string   `json:"pairs"`
	Strategies []string   `json:"strategies"`
	NextRun    *time.Time `json:"next_run,omitempty"`
	PrevRun    *time.Time `json:"prev_run,omitempty"`
}

// TriggerResponse reports the jobs put on the stream by a manual trigger.
type TriggerResponse struct {
	Name       string   `json:"name"`
	Enqueued   int      `json:"enqueued"`
	MessageIDs []string `json:"message_ids"`
	Errors     []string `json:"errors,omitempty"`
}
