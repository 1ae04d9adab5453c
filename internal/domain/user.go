package domain

import (
	"time"
)

// Role type to distinguish between user kinds
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleTrainer Role = "TRAINER"
	RoleMember  Role = "MEMBER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTrainer, RoleMember:
		return true
	}
	return false
}

// Account holds the fields shared by every kind of user.
type Account struct {
	UserID       string    `bson:"userId" json:"userId"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	Phone        string    `bson:"phone" json:"phone"`
	PasswordHash string    `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role      `bson:"role" json:"role"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	IsActive     bool      `bson:"isActive" json:"isActive"`
}

// User is the closed set {*Member, *Trainer, *Admin}. Call sites switch on the
// concrete type when they need kind-specific data.
type User interface {
	Base() *Account
	isUser()
}

// Member is a gym customer with a time-boxed membership.
type Member struct {
	Account             `bson:",inline"`
	MembershipType      MembershipType `bson:"membershipType" json:"membershipType"`
	MembershipStartDate time.Time      `bson:"membershipStartDate" json:"membershipStartDate"`
	MembershipEndDate   time.Time      `bson:"membershipEndDate" json:"membershipEndDate"`
	AssignedTrainerID   *string        `bson:"assignedTrainerId,omitempty" json:"assignedTrainerId,omitempty"`
	WorkoutScheduleIDs  []string       `bson:"workoutScheduleIds" json:"workoutScheduleIds"`
	ProgressScore       float64        `bson:"progressScore" json:"progressScore"` // 0-100
	TotalWorkouts       int            `bson:"totalWorkouts" json:"totalWorkouts"`
	AttendedWorkouts    int            `bson:"attendedWorkouts" json:"attendedWorkouts"`
}

// Trainer coaches a set of members.
type Trainer struct {
	Account           `bson:",inline"`
	Specialization    string   `bson:"specialization" json:"specialization"`
	ExperienceYears   int      `bson:"experienceYears" json:"experienceYears"`
	AssignedMemberIDs []string `bson:"assignedMemberIds" json:"assignedMemberIds"` // set semantics
}

// Admin operates the gym.
type Admin struct {
	Account    `bson:",inline"`
	AdminLevel string `bson:"adminLevel" json:"adminLevel"`
}

func (m *Member) Base() *Account  { return &m.Account }
func (t *Trainer) Base() *Account { return &t.Account }
func (a *Admin) Base() *Account   { return &a.Account }

func (*Member) isUser()  {}
func (*Trainer) isUser() {}
func (*Admin) isUser()   {}

// NewMember builds a member whose membership starts on the day of now.
func NewMember(account Account, membershipType MembershipType, now time.Time) Member {
	account.Role = RoleMember
	account.IsActive = true
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	start := DateOf(now)
	return Member{
		Account:             account,
		MembershipType:      membershipType,
		MembershipStartDate: start,
		MembershipEndDate:   membershipType.EndDate(start),
		WorkoutScheduleIDs:  []string{},
	}
}

// IsMembershipExpired reports whether the membership ended before the day of now.
func (m *Member) IsMembershipExpired(now time.Time) bool {
	return DateOf(now).After(m.MembershipEndDate)
}

// RenewMembership restarts the membership on the day of now.
func (m *Member) RenewMembership(membershipType MembershipType, now time.Time) {
	start := DateOf(now)
	m.MembershipType = membershipType
	m.MembershipStartDate = start
	m.MembershipEndDate = membershipType.EndDate(start)
	m.IsActive = true
}

// AttendancePercentage is the workout completion ratio attended/total as a percentage.
func (m *Member) AttendancePercentage() float64 {
	if m.TotalWorkouts == 0 {
		return 0
	}
	return float64(m.AttendedWorkouts) / float64(m.TotalWorkouts) * 100
}

// AddWorkout counts a newly scheduled workout.
func (m *Member) AddWorkout(scheduleID string) {
	m.WorkoutScheduleIDs = append(m.WorkoutScheduleIDs, scheduleID)
	m.TotalWorkouts++
}

// MarkAttendance counts a completed workout. attended never exceeds total.
func (m *Member) MarkAttendance() bool {
	if m.AttendedWorkouts >= m.TotalWorkouts {
		return false
	}
	m.AttendedWorkouts++
	return true
}

// SetProgressScore stores score clamped to [0,100].
func (m *Member) SetProgressScore(score float64) {
	m.ProgressScore = ClampPercentage(score)
}

// AssignMember adds memberID to the trainer's set if not already present.
func (t *Trainer) AssignMember(memberID string) {
	for _, id := range t.AssignedMemberIDs {
		if id == memberID {
			return
		}
	}
	t.AssignedMemberIDs = append(t.AssignedMemberIDs, memberID)
}

// UnassignMember removes memberID from the trainer's set.
func (t *Trainer) UnassignMember(memberID string) {
	kept := make([]string, 0, len(t.AssignedMemberIDs))
	for _, id := range t.AssignedMemberIDs {
		if id != memberID {
			kept = append(kept, id)
		}
	}
	t.AssignedMemberIDs = kept
}

// HasMember reports whether memberID is assigned to the trainer.
func (t *Trainer) HasMember(memberID string) bool {
	for _, id := range t.AssignedMemberIDs {
		if id == memberID {
			return true
		}
	}
	return false
}
