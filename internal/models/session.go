package models

import "time"

// ClassSession is a scheduled class occurrence with a fixed seat capacity.
// The engine only reads sessions; creation, deactivation and capacity changes
// belong to the class-metadata collaborator.
type ClassSession struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Capacity   int       `db:"capacity" json:"capacity"`
	Weekday    int       `db:"weekday" json:"weekday"`
	StartTime  string    `db:"start_time" json:"start_time"`
	StartsAt   time.Time `db:"starts_at" json:"starts_at"`
	WindowOpen bool      `db:"window_open" json:"window_open"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
