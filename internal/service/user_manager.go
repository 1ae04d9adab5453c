package service

import (
	"alcyxob/gym-manager/internal/domain"
	"alcyxob/gym-manager/internal/metrics"
	"alcyxob/gym-manager/internal/repository"
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// NewMemberInput carries the fields for creating a member.
type NewMemberInput struct {
	UserID         string
	Name           string
	Email          string
	Phone          string
	Password       string
	MembershipType string
}

// NewTrainerInput carries the fields for creating a trainer.
type NewTrainerInput struct {
	UserID          string
	Name            string
	Email           string
	Phone           string
	Password        string
	Specialization  string
	ExperienceYears int
}

// NewAdminInput carries the fields for creating an admin.
type NewAdminInput struct {
	UserID     string
	Name       string
	Email      string
	Phone      string
	Password   string
	AdminLevel string
}

// MemberUpdate holds optional member changes. Empty fields keep the current value.
type MemberUpdate struct {
	Name  string
	Email string
	Phone string
}

// TrainerUpdate holds optional trainer changes. Empty fields (nil for
// ExperienceYears) keep the current value.
type TrainerUpdate struct {
	Name            string
	Email           string
	Phone           string
	Specialization  string
	ExperienceYears *int
}

// UserManager owns members, trainers and admins.
type UserManager interface {
	Login(ctx context.Context, userID, password string) (domain.User, error)
	RegisterMember(ctx context.Context, in NewMemberInput) (*domain.Member, error)
	AddMember(ctx context.Context, in NewMemberInput) (*domain.Member, error)
	AddTrainer(ctx context.Context, in NewTrainerInput) (*domain.Trainer, error)
	AddAdmin(ctx context.Context, in NewAdminInput) (*domain.Admin, error)
	EnsureDefaultAdmin(ctx context.Context, in NewAdminInput) (*domain.Admin, error)
	UpdateMember(ctx context.Context, userID string, upd MemberUpdate) (*domain.Member, error)
	UpdateTrainer(ctx context.Context, userID string, upd TrainerUpdate) (*domain.Trainer, error)
	DeleteMember(ctx context.Context, userID string) error
	DeleteTrainer(ctx context.Context, userID string) error
	RenewMembership(ctx context.Context, userID, membershipType string) (*domain.Member, error)
	AssignTrainerToMember(ctx context.Context, trainerID, memberID string) error
	UnassignTrainerFromMember(ctx context.Context, trainerID, memberID string) error

	FindMemberByID(ctx context.Context, userID string) (*domain.Member, error)
	FindTrainerByID(ctx context.Context, userID string) (*domain.Trainer, error)
	FindAdminByID(ctx context.Context, userID string) (*domain.Admin, error)
	GetAllMembers(ctx context.Context) ([]domain.Member, error)
	GetAllTrainers(ctx context.Context) ([]domain.Trainer, error)
	GetAllActiveMembers(ctx context.Context) ([]domain.Member, error)
	GetAllActiveTrainers(ctx context.Context) ([]domain.Trainer, error)
	GetAllExpiredMembers(ctx context.Context) ([]domain.Member, error)
	GetMembersByTrainer(ctx context.Context, trainerID string) ([]domain.Member, error)

	// Workout bookkeeping, called by the workout manager only.
	RecordScheduleCreated(ctx context.Context, memberID, scheduleID string) error
	RecordWorkoutProgress(ctx context.Context, memberID string, progressScore float64, completed bool) error
}

// userManager implements the UserManager interface.
type userManager struct {
	mu       sync.Mutex
	members  repository.Collection[domain.Member]
	trainers repository.Collection[domain.Trainer]
	admins   repository.Collection[domain.Admin]
	now      func() time.Time
}

// NewUserManager creates a new instance of userManager. A nil now uses time.Now.
func NewUserManager(repos repository.Repositories, now func() time.Time) UserManager {
	now = wholeSeconds(now)
	return &userManager{
		members:  repos.Members,
		trainers: repos.Trainers,
		admins:   repos.Admins,
		now:      now,
	}
}

// --- Authentication ---

// Login checks admins, then trainers, then members for userID and verifies the password.
func (s *userManager) Login(ctx context.Context, userID, password string) (user domain.User, err error) {
	defer func() { metrics.ObserveUser("login", resultLabel(err)) }()

	if userID == "" || password == "" {
		return nil, ErrAuthenticationFailed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, err = s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrAuthenticationFailed
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Base().PasswordHash), []byte(password)) != nil {
		return nil, ErrAuthenticationFailed
	}
	if !user.Base().IsActive {
		return nil, ErrAccountInactive
	}
	return user, nil
}

// findUser scans every kind in login order. It returns nil, nil when no user matches.
func (s *userManager) findUser(ctx context.Context, userID string) (domain.User, error) {
	admins, err := s.admins.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range admins {
		if admins[i].UserID == userID {
			return &admins[i], nil
		}
	}
	trainers, err := s.trainers.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range trainers {
		if trainers[i].UserID == userID {
			return &trainers[i], nil
		}
	}
	members, err := s.members.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range members {
		if members[i].UserID == userID {
			return &members[i], nil
		}
	}
	return nil, nil
}

// --- Creation ---

func (s *userManager) RegisterMember(ctx context.Context, in NewMemberInput) (*domain.Member, error) {
	return s.AddMember(ctx, in)
}

func (s *userManager) AddMember(ctx context.Context, in NewMemberInput) (member *domain.Member, err error) {
	defer func() { metrics.ObserveUser("add_member", resultLabel(err)) }()

	v := &ValidationError{}
	validateAccount(v, in.UserID, in.Name, in.Email, in.Phone, in.Password)
	membershipType := parseMembershipType(v, in.MembershipType)
	if err = v.orNil(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.newAccount(ctx, in.UserID, in.Name, in.Email, in.Phone, in.Password)
	if err != nil {
		return nil, err
	}
	members, err := s.members.Load(ctx)
	if err != nil {
		return nil, err
	}
	m := domain.NewMember(account, membershipType, s.now())
	if err = s.members.Save(ctx, append(members, m)); err != nil {
		return nil, err
	}
	log.Printf("INFO: Member added: %s (%s)", m.UserID, m.Name)
	return &m, nil
}

func (s *userManager) AddTrainer(ctx context.Context, in NewTrainerInput) (trainer *domain.Trainer, err error) {
	defer func() { metrics.ObserveUser("add_trainer", resultLabel(err)) }()

	v := &ValidationError{}
	validateAccount(v, in.UserID, in.Name, in.Email, in.Phone, in.Password)
	if !isNotEmpty(in.Specialization) {
		v.add("specialization", "Specialization cannot be empty")
	}
	if in.ExperienceYears < 0 {
		v.add("experienceYears", "Experience must be a positive number")
	}
	if err = v.orNil(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.newAccount(ctx, in.UserID, in.Name, in.Email, in.Phone, in.Password)
	if err != nil {
		return nil, err
	}
	trainers, err := s.trainers.Load(ctx)
	if err != nil {
		return nil, err
	}
	account.Role = domain.RoleTrainer
	t := domain.Trainer{
		Account:           account,
		Specialization:    in.Specialization,
		ExperienceYears:   in.ExperienceYears,
		AssignedMemberIDs: []string{},
	}
	if err = s.trainers.Save(ctx, append(trainers, t)); err != nil {
		return nil, err
	}
	log.Printf("INFO: Trainer added: %s (%s)", t.UserID, t.Name)
	return &t, nil
}

func (s *userManager) AddAdmin(ctx context.Context, in NewAdminInput) (admin *domain.Admin, err error) {
	defer func() { metrics.ObserveUser("add_admin", resultLabel(err)) }()

	v := &ValidationError{}
	validateAccount(v, in.UserID, in.Name, in.Email, in.Phone, in.Password)
	if !isNotEmpty(in.AdminLevel) {
		v.add("adminLevel", "Admin level cannot be empty")
	}
	if err = v.orNil(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.newAccount(ctx, in.UserID, in.Name, in.Email, in.Phone, in.Password)
	if err != nil {
		return nil, err
	}
	admins, err := s.admins.Load(ctx)
	if err != nil {
		return nil, err
	}
	account.Role = domain.RoleAdmin
	a := domain.Admin{Account: account, AdminLevel: in.AdminLevel}
	if err = s.admins.Save(ctx, append(admins, a)); err != nil {
		return nil, err
	}
	log.Printf("INFO: Admin added: %s (%s)", a.UserID, a.Name)
	return &a, nil
}

// EnsureDefaultAdmin adds in when no admin exists yet. It returns nil and no
// error when an admin is already present.
func (s *userManager) EnsureDefaultAdmin(ctx context.Context, in NewAdminInput) (*domain.Admin, error) {
	admins, err := s.admins.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(admins) > 0 {
		return nil, nil
	}
	log.Printf("INFO: No admin account found, creating default admin %s", in.UserID)
	return s.AddAdmin(ctx, in)
}

// newAccount checks id uniqueness across all kinds and hashes the password.
// Callers hold s.mu.
func (s *userManager) newAccount(ctx context.Context, userID, name, email, phone, password string) (domain.Account, error) {
	userID = strings.TrimSpace(userID)
	existing, err := s.findUser(ctx, userID)
	if err != nil {
		return domain.Account{}, err
	}
	if existing != nil {
		return domain.Account{}, ErrUserIDTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("ERROR: Failed to hash password for %s: %v", userID, err)
		return domain.Account{}, ErrHashingFailed
	}
	return domain.Account{
		UserID:       userID,
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: string(hashedPassword),
		CreatedAt:    s.now(),
		IsActive:     true,
	}, nil
}

// --- Updates ---

func (s *userManager) UpdateMember(ctx context.Context, userID string, upd MemberUpdate) (member *domain.Member, err error) {
	defer func() { metrics.ObserveUser("update_member", resultLabel(err)) }()

	v := &ValidationError{}
	validateOptionalContact(v, upd.Name, upd.Email, upd.Phone)
	if err = v.orNil(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	members, idx, err := s.loadMember(ctx, userID)
	if err != nil {
		return nil, err
	}
	m := &members[idx]
	applyContact(&m.Account, upd.Name, upd.Email, upd.Phone)
	if err = s.members.Save(ctx, members); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *userManager) UpdateTrainer(ctx context.Context, userID string, upd TrainerUpdate) (trainer *domain.Trainer, err error) {
	defer func() { metrics.ObserveUser("update_trainer", resultLabel(err)) }()

	v := &ValidationError{}
	validateOptionalContact(v, upd.Name, upd.Email, upd.Phone)
	if upd.ExperienceYears != nil && *upd.ExperienceYears < 0 {
		v.add("experienceYears", "Experience must be a positive number")
	}
	if err = v.orNil(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	trainers, idx, err := s.loadTrainer(ctx, userID)
	if err != nil {
		return nil, err
	}
	t := &trainers[idx]
	applyContact(&t.Account, upd.Name, upd.Email, upd.Phone)
	if isNotEmpty(upd.Specialization) {
		t.Specialization = upd.Specialization
	}
	if upd.ExperienceYears != nil {
		t.ExperienceYears = *upd.ExperienceYears
	}
	if err = s.trainers.Save(ctx, trainers); err != nil {
		return nil, err
	}
	return t, nil
}

func validateOptionalContact(v *ValidationError, name, email, phone string) {
	if name != "" && !isValidName(name) {
		v.add("name", msgInvalidName)
	}
	if email != "" && !isValidEmail(email) {
		v.add("email", msgInvalidEmail)
	}
	if phone != "" && !isValidPhone(phone) {
		v.add("phone", msgInvalidPhone)
	}
}

func applyContact(a *domain.Account, name, email, phone string) {
	if name != "" {
		a.Name = name
	}
	if email != "" {
		a.Email = email
	}
	if phone != "" {
		a.Phone = phone
	}
}

// DeleteMember deactivates the member; the record is kept.
func (s *userManager) DeleteMember(ctx context.Context, userID string) (err error) {
	defer func() { metrics.ObserveUser("delete_member", resultLabel(err)) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	members, idx, err := s.loadMember(ctx, userID)
	if err != nil {
		return err
	}
	members[idx].IsActive = false
	if err = s.members.Save(ctx, members); err != nil {
		return err
	}
	log.Printf("INFO: Member deactivated: %s", userID)
	return nil
}

// DeleteTrainer deactivates the trainer; the record and assignments are kept.
func (s *userManager) DeleteTrainer(ctx context.Context, userID string) (err error) {
	defer func() { metrics.ObserveUser("delete_trainer", resultLabel(err)) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	trainers, idx, err := s.loadTrainer(ctx, userID)
	if err != nil {
		return err
	}
	trainers[idx].IsActive = false
	if err = s.trainers.Save(ctx, trainers); err != nil {
		return err
	}
	log.Printf("INFO: Trainer deactivated: %s", userID)
	return nil
}

// RenewMembership restarts the membership today and reactivates the member.
func (s *userManager) RenewMembership(ctx context.Context, userID, membershipType string) (member *domain.Member, err error) {
	defer func() { metrics.ObserveUser("renew_membership", resultLabel(err)) }()

	v := &ValidationError{}
	mt := parseMembershipType(v, membershipType)
	if err = v.orNil(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	members, idx, err := s.loadMember(ctx, userID)
	if err != nil {
		return nil, err
	}
	m := &members[idx]
	m.RenewMembership(mt, s.now())
	if err = s.members.Save(ctx, members); err != nil {
		return nil, err
	}
	return m, nil
}

// --- Assignment ---

// AssignTrainerToMember links both sides. A member already assigned elsewhere
// is moved. Members are saved first; if saving trainers fails the member file
// is written back to its previous contents.
func (s *userManager) AssignTrainerToMember(ctx context.Context, trainerID, memberID string) (err error) {
	defer func() { metrics.ObserveUser("assign_trainer", resultLabel(err)) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	trainers, tIdx, err := s.loadTrainer(ctx, trainerID)
	if err != nil {
		return err
	}
	members, mIdx, err := s.loadMember(ctx, memberID)
	if err != nil {
		return err
	}
	if !trainers[tIdx].IsActive {
		return ErrTrainerInactive
	}
	if !members[mIdx].IsActive {
		return ErrMemberInactive
	}

	previous := members[mIdx]
	if previous.AssignedTrainerID != nil && *previous.AssignedTrainerID != trainerID {
		for i := range trainers {
			if trainers[i].UserID == *previous.AssignedTrainerID {
				trainers[i].UnassignMember(memberID)
			}
		}
	}
	trainers[tIdx].AssignMember(memberID)
	id := trainerID
	members[mIdx].AssignedTrainerID = &id

	return s.saveAssignment(ctx, members, trainers, mIdx, previous)
}

// UnassignTrainerFromMember removes the link on both sides.
func (s *userManager) UnassignTrainerFromMember(ctx context.Context, trainerID, memberID string) (err error) {
	defer func() { metrics.ObserveUser("unassign_trainer", resultLabel(err)) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	trainers, tIdx, err := s.loadTrainer(ctx, trainerID)
	if err != nil {
		return err
	}
	members, mIdx, err := s.loadMember(ctx, memberID)
	if err != nil {
		return err
	}
	assigned := members[mIdx].AssignedTrainerID != nil && *members[mIdx].AssignedTrainerID == trainerID
	if !assigned && !trainers[tIdx].HasMember(memberID) {
		return ErrNotAssigned
	}

	previous := members[mIdx]
	trainers[tIdx].UnassignMember(memberID)
	if assigned {
		members[mIdx].AssignedTrainerID = nil
	}
	return s.saveAssignment(ctx, members, trainers, mIdx, previous)
}

func (s *userManager) saveAssignment(ctx context.Context, members []domain.Member, trainers []domain.Trainer, mIdx int, previous domain.Member) error {
	if err := s.members.Save(ctx, members); err != nil {
		return err
	}
	if err := s.trainers.Save(ctx, trainers); err != nil {
		members[mIdx] = previous
		if rerr := s.members.Save(ctx, members); rerr != nil {
			log.Printf("ERROR: Failed to restore members after trainer save failure: %v", rerr)
		}
		return err
	}
	return nil
}

// --- Queries ---

func (s *userManager) FindMemberByID(ctx context.Context, userID string) (*domain.Member, error) {
	members, idx, err := s.loadMember(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &members[idx], nil
}

func (s *userManager) FindTrainerByID(ctx context.Context, userID string) (*domain.Trainer, error) {
	trainers, idx, err := s.loadTrainer(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &trainers[idx], nil
}

func (s *userManager) FindAdminByID(ctx context.Context, userID string) (*domain.Admin, error) {
	admins, err := s.admins.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range admins {
		if admins[i].UserID == userID {
			return &admins[i], nil
		}
	}
	return nil, ErrAdminNotFound
}

func (s *userManager) GetAllMembers(ctx context.Context) ([]domain.Member, error) {
	return s.members.Load(ctx)
}

func (s *userManager) GetAllTrainers(ctx context.Context) ([]domain.Trainer, error) {
	return s.trainers.Load(ctx)
}

func (s *userManager) GetAllActiveMembers(ctx context.Context) ([]domain.Member, error) {
	return s.filterMembers(ctx, func(m *domain.Member) bool { return m.IsActive })
}

func (s *userManager) GetAllActiveTrainers(ctx context.Context) ([]domain.Trainer, error) {
	trainers, err := s.trainers.Load(ctx)
	if err != nil {
		return nil, err
	}
	active := []domain.Trainer{}
	for _, t := range trainers {
		if t.IsActive {
			active = append(active, t)
		}
	}
	return active, nil
}

// GetAllExpiredMembers returns every member whose membership ended before today.
func (s *userManager) GetAllExpiredMembers(ctx context.Context) ([]domain.Member, error) {
	now := s.now()
	return s.filterMembers(ctx, func(m *domain.Member) bool { return m.IsMembershipExpired(now) })
}

func (s *userManager) GetMembersByTrainer(ctx context.Context, trainerID string) ([]domain.Member, error) {
	return s.filterMembers(ctx, func(m *domain.Member) bool {
		return m.AssignedTrainerID != nil && *m.AssignedTrainerID == trainerID
	})
}

func (s *userManager) filterMembers(ctx context.Context, keep func(*domain.Member) bool) ([]domain.Member, error) {
	members, err := s.members.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := []domain.Member{}
	for i := range members {
		if keep(&members[i]) {
			out = append(out, members[i])
		}
	}
	return out, nil
}

// --- Workout bookkeeping ---

func (s *userManager) RecordScheduleCreated(ctx context.Context, memberID, scheduleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	members, idx, err := s.loadMember(ctx, memberID)
	if err != nil {
		return err
	}
	members[idx].AddWorkout(scheduleID)
	return s.members.Save(ctx, members)
}

func (s *userManager) RecordWorkoutProgress(ctx context.Context, memberID string, progressScore float64, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	members, idx, err := s.loadMember(ctx, memberID)
	if err != nil {
		return err
	}
	m := &members[idx]
	m.SetProgressScore(progressScore)
	if completed && !m.MarkAttendance() {
		log.Printf("WARN: Member %s already has attended workouts equal to total (%d)", memberID, m.TotalWorkouts)
	}
	return s.members.Save(ctx, members)
}

// --- Helpers ---

func (s *userManager) loadMember(ctx context.Context, userID string) ([]domain.Member, int, error) {
	members, err := s.members.Load(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("load members: %w", err)
	}
	for i := range members {
		if members[i].UserID == userID {
			return members, i, nil
		}
	}
	return nil, 0, ErrMemberNotFound
}

func (s *userManager) loadTrainer(ctx context.Context, userID string) ([]domain.Trainer, int, error) {
	trainers, err := s.trainers.Load(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("load trainers: %w", err)
	}
	for i := range trainers {
		if trainers[i].UserID == userID {
			return trainers, i, nil
		}
	}
	return nil, 0, ErrTrainerNotFound
}

// resultLabel is the metrics label for an operation outcome.
func resultLabel(err error) string {
	if err == nil {
		return "success"
	}
	return ErrorKind(err)
}
