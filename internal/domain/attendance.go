package domain

import (
	"fmt"
	"time"
)

// AttendanceStatus tracks a gym visit through check-in and check-out.
type AttendanceStatus string

const (
	AttendanceCheckedIn  AttendanceStatus = "CHECKED_IN"
	AttendanceCheckedOut AttendanceStatus = "CHECKED_OUT"
	AttendanceMissed     AttendanceStatus = "MISSED"
	AttendanceLate       AttendanceStatus = "LATE"
)

// LateGracePeriod is how long after a scheduled time a check-in still counts as on time.
const LateGracePeriod = 15 * time.Minute

// ParseAttendanceStatus converts a stored status name.
func ParseAttendanceStatus(s string) (AttendanceStatus, error) {
	switch st := AttendanceStatus(s); st {
	case AttendanceCheckedIn, AttendanceCheckedOut, AttendanceMissed, AttendanceLate:
		return st, nil
	}
	return "", fmt.Errorf("unknown attendance status %q", s)
}

// Attended reports whether the status counts as a visit.
func (s AttendanceStatus) Attended() bool {
	return s == AttendanceCheckedIn || s == AttendanceCheckedOut || s == AttendanceLate
}

// Attendance is one member visit (or recorded no-show) on a given date.
type Attendance struct {
	AttendanceID      string           `bson:"attendanceId" json:"attendanceId"`
	MemberID          string           `bson:"memberId" json:"memberId"`
	MemberName        string           `bson:"memberName" json:"memberName"` // snapshot at creation
	Date              time.Time        `bson:"date" json:"date"`
	CheckInTime       *time.Time       `bson:"checkInTime,omitempty" json:"checkInTime,omitempty"`
	CheckOutTime      *time.Time       `bson:"checkOutTime,omitempty" json:"checkOutTime,omitempty"`
	WorkoutScheduleID *string          `bson:"workoutScheduleId,omitempty" json:"workoutScheduleId,omitempty"`
	Status            AttendanceStatus `bson:"status" json:"status"`
	Notes             *string          `bson:"notes,omitempty" json:"notes,omitempty"`
}

// CheckIn opens the visit at now.
func (a *Attendance) CheckIn(now time.Time) {
	a.CheckInTime = &now
	a.Status = AttendanceCheckedIn
}

// CheckOut closes the visit at now.
func (a *Attendance) CheckOut(now time.Time) {
	a.CheckOutTime = &now
	a.Status = AttendanceCheckedOut
}

// IsOpen reports whether the member is checked in and has not checked out.
func (a *Attendance) IsOpen() bool {
	return a.CheckInTime != nil && a.CheckOutTime == nil &&
		(a.Status == AttendanceCheckedIn || a.Status == AttendanceLate)
}

// WorkoutDurationMinutes is checkOut - checkIn in whole minutes, 0 if either is missing.
func (a *Attendance) WorkoutDurationMinutes() int64 {
	if a.CheckInTime == nil || a.CheckOutTime == nil {
		return 0
	}
	return int64(a.CheckOutTime.Sub(*a.CheckInTime) / time.Minute)
}

// HasDuration reports whether both check-in and check-out are recorded.
func (a *Attendance) HasDuration() bool {
	return a.CheckInTime != nil && a.CheckOutTime != nil
}

// IsLate reports whether the check-in happened after scheduled plus the grace period.
func (a *Attendance) IsLate(scheduled time.Time) bool {
	if a.CheckInTime == nil {
		return false
	}
	return a.CheckInTime.After(scheduled.Add(LateGracePeriod))
}
