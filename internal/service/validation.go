package service

import (
	"alcyxob/gym-manager/internal/domain"
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@([A-Za-z0-9.-]+\.[A-Za-z]{2,})$`)
	phonePattern = regexp.MustCompile(`^\+?[1-9]?[0-9]{7,15}$`)
	namePattern  = regexp.MustCompile(`^[a-zA-Z\s]{2,50}$`)
)

const (
	msgInvalidUserID         = "User ID must be 3-20 characters long"
	msgInvalidName           = "Name must be 2-50 characters and contain only letters and spaces"
	msgInvalidEmail          = "Please enter a valid email address"
	msgInvalidPhone          = "Please enter a valid phone number (7-15 digits)"
	msgInvalidMembershipType = "Membership type must be 'monthly', 'quarterly', or 'yearly'"
	msgEmptyField            = "This field cannot be empty"
)

func isValidUserID(id string) bool {
	n := len(strings.TrimSpace(id))
	return n >= 3 && n <= 20
}

func isValidName(name string) bool   { return namePattern.MatchString(name) }
func isValidEmail(email string) bool { return emailPattern.MatchString(email) }
func isValidPhone(phone string) bool { return phonePattern.MatchString(phone) }

func isNotEmpty(s string) bool { return strings.TrimSpace(s) != "" }

// validateAccount checks the fields every user kind shares.
func validateAccount(v *ValidationError, userID, name, email, phone, password string) {
	if !isValidUserID(userID) {
		v.add("userId", msgInvalidUserID)
	}
	if !isValidName(name) {
		v.add("name", msgInvalidName)
	}
	if !isValidEmail(email) {
		v.add("email", msgInvalidEmail)
	}
	if !isValidPhone(phone) {
		v.add("phone", msgInvalidPhone)
	}
	if !isNotEmpty(password) {
		v.add("password", msgEmptyField)
	}
}

// parseMembershipType records a field error for unknown types.
func parseMembershipType(v *ValidationError, s string) domain.MembershipType {
	t, err := domain.ParseMembershipType(s)
	if err != nil {
		v.add("membershipType", msgInvalidMembershipType)
	}
	return t
}
