package domain

import "time"

// EventSessionFinished is published once a session reaches the finished state.
const EventSessionFinished = "session.finished"

// Event is the payload handed to the event publisher.
type Event struct {
	Type       string     `json:"type"`
	Game       int64      `json:"game"`
	User       int64      `json:"mdl_user"`
	Session    int64      `json:"gamesession"`
	Score      int        `json:"score"`
	Completion Completion `json:"completion"`
	OccurredAt time.Time  `json:"occurred_at"`
}
