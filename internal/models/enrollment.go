package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses. Cancelled is terminal for the record; the
// student may enroll again with a fresh record.
const (
	EnrollmentStatusConfirmed  EnrollmentStatus = "CONFIRMED"
	EnrollmentStatusWaitlisted EnrollmentStatus = "WAITLISTED"
	EnrollmentStatusCancelled  EnrollmentStatus = "CANCELLED"
)

// Attendance marks whether a confirmed student showed up.
type Attendance string

const (
	AttendanceUnset   Attendance = "UNSET"
	AttendancePresent Attendance = "PRESENT"
	AttendanceAbsent  Attendance = "ABSENT"
)

// CancelReason classifies why an enrollment was cancelled. It doubles as the
// suspension reason kind for penalty-triggering cancellations.
type CancelReason string

const (
	// CancelReasonLateCancel covers cancellations with at least the
	// configured notice before class start.
	CancelReasonLateCancel CancelReason = "LATE_CANCEL"
	// CancelReasonShortNotice covers cancellations with less than the
	// configured notice.
	CancelReasonShortNotice CancelReason = "SHORT_NOTICE_CANCEL"
	// CancelReasonNoShow is set by staff when a confirmed student never
	// appeared.
	CancelReasonNoShow CancelReason = "NO_SHOW"
	// CancelReasonNone marks an administrative cancellation without penalty.
	CancelReasonNone CancelReason = "NONE"
)

// Valid reports whether the reason is one of the known kinds.
func (r CancelReason) Valid() bool {
	switch r {
	case CancelReasonLateCancel, CancelReasonShortNotice, CancelReasonNoShow, CancelReasonNone:
		return true
	}
	return false
}

// Enrollment captures one student's relationship to one class session.
//
// Seq is a monotonic insertion counter assigned by the store. Waitlist order
// is (CreatedAt, Seq) ascending so two entries never compare equal even when
// timestamps collide.
type Enrollment struct {
	ID           string           `db:"id" json:"id"`
	ClassID      string           `db:"class_id" json:"class_id"`
	StudentID    string           `db:"student_id" json:"student_id"`
	Status       EnrollmentStatus `db:"status" json:"status"`
	Attendance   Attendance       `db:"attendance" json:"attendance"`
	CancelReason *CancelReason    `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	Seq          int64            `db:"seq" json:"-"`
	CancelledAt  *time.Time       `db:"cancelled_at" json:"cancelled_at,omitempty"`
}

// Active reports whether the enrollment still occupies a roster slot.
func (e *Enrollment) Active() bool {
	return e.Status != EnrollmentStatusCancelled
}

// EnrollmentOutcome is returned from the enroll operation so callers can tell
// a guaranteed seat from a queue position. Position is 1-based and only set
// for waitlisted outcomes.
type EnrollmentOutcome struct {
	Enrollment Enrollment `json:"enrollment"`
	Position   int        `json:"waitlist_position,omitempty"`
}

// Roster is the staff view of a class: confirmed seats plus the ordered
// waitlist.
type Roster struct {
	Session   ClassSession `json:"session"`
	Confirmed []Enrollment `json:"confirmed"`
	Waitlist  []Enrollment `json:"waitlist"`
}
