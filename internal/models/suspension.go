package models

import "time"

// SuspensionRecord is a time-boxed enrollment ban for a student.
//
// Active is stored explicitly rather than derived from EndAt because staff can
// revoke a suspension early. "Suspended now" means active AND end_at > now;
// expiry is evaluated lazily at read time, never swept.
type SuspensionRecord struct {
	ID        string       `db:"id" json:"id"`
	StudentID string       `db:"student_id" json:"student_id"`
	Reason    CancelReason `db:"reason" json:"reason"`
	StartAt   time.Time    `db:"start_at" json:"start_at"`
	EndAt     time.Time    `db:"end_at" json:"end_at"`
	Active    bool         `db:"active" json:"active"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

// InForce reports whether the record bans enrollment at the given instant.
func (s *SuspensionRecord) InForce(now time.Time) bool {
	return s.Active && s.EndAt.After(now)
}
