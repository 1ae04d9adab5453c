// internal/domain/exercise.go
package domain

import "fmt"

// Exercise is one entry in a workout schedule. Strength work uses sets, reps and
// weight; timed work uses DurationSeconds.
type Exercise struct {
	Name            string  `bson:"name" json:"name"`
	Sets            int     `bson:"sets" json:"sets"`
	Reps            int     `bson:"reps" json:"reps"`
	WeightKg        float64 `bson:"weightKg" json:"weightKg"`
	DurationSeconds int     `bson:"durationSeconds" json:"durationSeconds"`
	Instructions    string  `bson:"instructions,omitempty" json:"instructions,omitempty"`
}

// NewStrengthExercise builds a sets x reps exercise.
func NewStrengthExercise(name string, sets, reps int, weightKg float64) Exercise {
	return Exercise{Name: name, Sets: sets, Reps: reps, WeightKg: weightKg}
}

// NewTimedExercise builds a duration based exercise, counted as a single set.
func NewTimedExercise(name string, durationSeconds int) Exercise {
	return Exercise{Name: name, Sets: 1, Reps: 1, DurationSeconds: durationSeconds}
}

// IsTimed reports whether the exercise is measured by duration.
func (e Exercise) IsTimed() bool {
	return e.DurationSeconds > 0
}

func (e Exercise) String() string {
	if e.IsTimed() {
		return fmt.Sprintf("%s - %ds", e.Name, e.DurationSeconds)
	}
	s := fmt.Sprintf("%s - %d sets x %d reps", e.Name, e.Sets, e.Reps)
	if e.WeightKg > 0 {
		s += fmt.Sprintf(" @ %gkg", e.WeightKg)
	}
	return s
}
