package domain

import (
	"fmt"
	"time"
)

// WorkoutType classifies a scheduled session.
type WorkoutType string

const (
	WorkoutCardio         WorkoutType = "CARDIO"
	WorkoutStrength       WorkoutType = "STRENGTH"
	WorkoutFlexibility    WorkoutType = "FLEXIBILITY"
	WorkoutMixed          WorkoutType = "MIXED"
	WorkoutRehabilitation WorkoutType = "REHABILITATION"
)

// ScheduleStatus type for workout schedule lifecycle
type ScheduleStatus string

const (
	ScheduleScheduled  ScheduleStatus = "SCHEDULED"
	ScheduleInProgress ScheduleStatus = "IN_PROGRESS"
	ScheduleCompleted  ScheduleStatus = "COMPLETED"
	ScheduleCancelled  ScheduleStatus = "CANCELLED"
	ScheduleMissed     ScheduleStatus = "MISSED"
)

const DefaultWorkoutDurationMinutes = 60

// ParseWorkoutType converts a stored workout type name.
func ParseWorkoutType(s string) (WorkoutType, error) {
	switch t := WorkoutType(s); t {
	case WorkoutCardio, WorkoutStrength, WorkoutFlexibility, WorkoutMixed, WorkoutRehabilitation:
		return t, nil
	}
	return "", fmt.Errorf("unknown workout type %q", s)
}

// ParseScheduleStatus converts a stored schedule status name.
func ParseScheduleStatus(s string) (ScheduleStatus, error) {
	switch st := ScheduleStatus(s); st {
	case ScheduleScheduled, ScheduleInProgress, ScheduleCompleted, ScheduleCancelled, ScheduleMissed:
		return st, nil
	}
	return "", fmt.Errorf("unknown schedule status %q", s)
}

// WorkoutSchedule represents a single planned session between a member and a trainer.
type WorkoutSchedule struct {
	ScheduleID           string         `bson:"scheduleId" json:"scheduleId"`
	MemberID             string         `bson:"memberId" json:"memberId"`
	TrainerID            string         `bson:"trainerId" json:"trainerId"`
	WorkoutName          string         `bson:"workoutName" json:"workoutName"`
	Description          *string        `bson:"description,omitempty" json:"description,omitempty"`
	ScheduledTime        *time.Time     `bson:"scheduledTime,omitempty" json:"scheduledTime,omitempty"`
	DurationMinutes      int            `bson:"durationMinutes" json:"durationMinutes"`
	WorkoutType          WorkoutType    `bson:"workoutType" json:"workoutType"`
	Exercises            []Exercise     `bson:"exercises" json:"exercises"`
	Status               ScheduleStatus `bson:"status" json:"status"`
	CompletionPercentage float64        `bson:"completionPercentage" json:"completionPercentage"`
	ProgressNotes        *string        `bson:"progressNotes,omitempty" json:"progressNotes,omitempty"`
}

// NewWorkoutSchedule returns a SCHEDULED, 60 minute, MIXED session with no exercises.
func NewWorkoutSchedule(scheduleID, memberID, trainerID, workoutName string) WorkoutSchedule {
	return WorkoutSchedule{
		ScheduleID:      scheduleID,
		MemberID:        memberID,
		TrainerID:       trainerID,
		WorkoutName:     workoutName,
		DurationMinutes: DefaultWorkoutDurationMinutes,
		WorkoutType:     WorkoutMixed,
		Exercises:       []Exercise{},
		Status:          ScheduleScheduled,
	}
}

// UpdateProgress clamps completion to [0,100] and advances the status.
// At 100 the session is COMPLETED, above 0 IN_PROGRESS, otherwise unchanged.
func (w *WorkoutSchedule) UpdateProgress(completion float64, notes string) {
	w.CompletionPercentage = ClampPercentage(completion)
	w.ProgressNotes = &notes
	switch {
	case w.CompletionPercentage >= 100:
		w.Status = ScheduleCompleted
	case w.CompletionPercentage > 0:
		w.Status = ScheduleInProgress
	}
}

// Cancel marks the session CANCELLED and keeps reason as its progress notes.
func (w *WorkoutSchedule) Cancel(reason string) {
	w.Status = ScheduleCancelled
	w.ProgressNotes = &reason
}

// AddExercise appends e to the session.
func (w *WorkoutSchedule) AddExercise(e Exercise) {
	w.Exercises = append(w.Exercises, e)
}
