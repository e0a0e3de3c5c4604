package careerpilot

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// UserRole is the account's role
type UserRole = string

const (
	// RoleStudent is the default role for new accounts
	RoleStudent UserRole = "student"
	// RoleMentor marks accounts that offer guidance to students
	RoleMentor UserRole = "mentor"
)

// IsValidRole checks if the role is one of the predefined valid roles
func IsValidRole(r UserRole) bool {
	switch r {
	case RoleStudent, RoleMentor:
		return true
	default:
		return false
	}
}

// ParseRole normalizes and parses a string into a UserRole. An empty string
// resolves to RoleStudent; anything outside the enumeration is rejected.
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(strings.ToLower(strings.TrimSpace(roleStr)))
	if role == "" {
		return RoleStudent, true
	}
	return role, IsValidRole(role)
}

// Account is the stored account record. PasswordHash never leaves the
// store/service boundary; handlers only ever see PublicAccount.
type Account struct {
	ID             string     `bson:"_id" json:"id"`
	Name           string     `bson:"name" json:"name"`
	Email          string     `bson:"email" json:"email"`
	PasswordHash   string     `bson:"password_hash" json:"-"`
	Role           UserRole   `bson:"role" json:"role"`
	EducationLevel string     `bson:"education_level,omitempty" json:"educationLevel,omitempty"`
	Skills         []string   `bson:"skills,omitempty" json:"skills,omitempty"`
	CareerGoal     string     `bson:"career_goal,omitempty" json:"careerGoal,omitempty"`
	Onboarded      bool       `bson:"onboarded" json:"onboarded"`
	OnboardedAt    *time.Time `bson:"onboarded_at,omitempty" json:"onboardedAt,omitempty"`
	CreatedAt      time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `bson:"updated_at" json:"updatedAt"`
}

// PublicAccount is the caller-facing view of an Account. It is the only
// account shape that crosses the HTTP boundary.
type PublicAccount struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Role           UserRole `json:"role"`
	EducationLevel string   `json:"educationLevel,omitempty"`
	Skills         []string `json:"skills,omitempty"`
	CareerGoal     string   `json:"careerGoal,omitempty"`
	Onboarded      bool     `json:"onboarded"`
}

// Public strips credentials from the record.
func (a *Account) Public() PublicAccount {
	return PublicAccount{
		ID:             a.ID,
		Name:           a.Name,
		Email:          a.Email,
		Role:           a.Role,
		EducationLevel: a.EducationLevel,
		Skills:         a.Skills,
		CareerGoal:     a.CareerGoal,
		Onboarded:      a.Onboarded,
	}
}

// ProfileUpdate is the mutable slice of an account's profile.
type ProfileUpdate struct {
	FullName       string   `bson:"name,omitempty"`
	EducationLevel string   `bson:"education_level"`
	Skills         []string `bson:"skills"`
	CareerGoal     string   `bson:"career_goal"`
	Onboarded      bool     `bson:"onboarded,omitempty"`
}

// ChatTurn is one stored exchange between an account and the assistant.
type ChatTurn struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string        `bson:"user_id" json:"userId"`
	Message   string        `bson:"message" json:"message"`
	Response  string        `bson:"response" json:"response"`
	Timestamp time.Time     `bson:"timestamp" json:"timestamp"`
}

// NormalizeEmail lowercases and trims an email so the unique index sees one
// canonical spelling.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
