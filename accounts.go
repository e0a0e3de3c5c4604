package careerpilot

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// AccountService composes the credential store, the password verifier, and
// the token codec into the register / authenticate / identity operations.
// It holds no mutable state; concurrent calls are independent.
type AccountService struct {
	users  Users
	tokens TokenService
	logger Logger
}

// NewAccountService returns a new AccountService
func NewAccountService(users Users, tokens TokenService) *AccountService {
	return &AccountService{
		users:  users,
		tokens: tokens,
		logger: defLogger{},
	}
}

func (s *AccountService) WithLogger(logger Logger) *AccountService {
	s.logger = logger
	return s
}

// AuthResult bundles a freshly issued token with the public account view.
type AuthResult struct {
	Token   string        `json:"token"`
	Account PublicAccount `json:"user"`
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Validate will run validation rules
func (r RegisterInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
	)
}

// dummyDigest keeps the credential check roughly constant-cost when the email
// is unknown, so response timing does not reveal account existence.
const dummyDigest = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Register validates the input, stores the account with a fresh digest, and
// issues a session token for the new account. The store's unique index is the
// final authority on email uniqueness: a concurrent duplicate that slips past
// the pre-check still surfaces as ErrEmailTaken.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	role, ok := ParseRole(input.Role)
	if !ok {
		return nil, ErrInvalidRole
	}

	if err := input.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid registration payload").
			WithCode(errors.CodeBadRequest)
	}

	email := NormalizeEmail(input.Email)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrAccountNotFound) {
		return nil, WrapStoreError(err, "registration lookup failed")
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}

	now := time.Now()
	account := &Account{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.users.Create(ctx, account)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, WrapStoreError(err, "could not create account")
	}

	token, err := s.tokens.Generate(created.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Token: token, Account: created.Public()}, nil
}

// Authenticate verifies the credentials and issues a fresh session token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)

	account, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			_ = ComparePasswordAndHash(password, dummyDigest)
			return nil, ErrInvalidCredentials
		}
		return nil, WrapStoreError(err, "authentication lookup failed")
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(account.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Token: token, Account: account.Public()}, nil
}

// CurrentIdentity resolves a verified subject back to its account. Fails with
// ErrAccountNotFound if the account no longer exists.
func (s *AccountService) CurrentIdentity(ctx context.Context, subject string) (PublicAccount, error) {
	account, err := s.users.GetByID(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return PublicAccount{}, ErrAccountNotFound
		}
		return PublicAccount{}, WrapStoreError(err, "identity lookup failed")
	}
	return account.Public(), nil
}

// ProfileInput is the profile mutation payload: all three fields required.
type ProfileInput struct {
	EducationLevel string   `json:"educationLevel"`
	Skills         []string `json:"skills"`
	CareerGoal     string   `json:"careerGoal"`
}

// Validate will run validation rules
func (p ProfileInput) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.EducationLevel, validation.Required),
		validation.Field(&p.Skills, validation.Required),
		validation.Field(&p.CareerGoal, validation.Required),
	)
}

// UpdateProfile mutates the account's profile attributes and returns the
// updated public view.
func (s *AccountService) UpdateProfile(ctx context.Context, subject string, input ProfileInput) (PublicAccount, error) {
	if err := input.Validate(); err != nil {
		return PublicAccount{}, errors.Wrap(err, errors.CategoryValidation, "invalid profile payload").
			WithCode(errors.CodeBadRequest)
	}

	account, err := s.users.UpdateProfile(ctx, subject, ProfileUpdate{
		EducationLevel: input.EducationLevel,
		Skills:         input.Skills,
		CareerGoal:     input.CareerGoal,
	})
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return PublicAccount{}, ErrAccountNotFound
		}
		return PublicAccount{}, WrapStoreError(err, "profile update failed")
	}

	return account.Public(), nil
}

// OnboardingInput is the first-login onboarding payload. It is the profile
// mutation plus the account's display name, and it stamps the account as
// onboarded.
type OnboardingInput struct {
	FullName       string   `json:"fullName"`
	EducationLevel string   `json:"educationLevel"`
	Skills         []string `json:"skills"`
	CareerGoal     string   `json:"careerGoal"`
}

// Validate will run validation rules
func (o OnboardingInput) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&o.EducationLevel, validation.Required),
		validation.Field(&o.Skills, validation.Required),
		validation.Field(&o.CareerGoal, validation.Required),
	)
}

// CompleteOnboarding applies the onboarding form to the account.
func (s *AccountService) CompleteOnboarding(ctx context.Context, subject string, input OnboardingInput) (PublicAccount, error) {
	if err := input.Validate(); err != nil {
		return PublicAccount{}, errors.Wrap(err, errors.CategoryValidation, "invalid onboarding payload").
			WithCode(errors.CodeBadRequest)
	}

	account, err := s.users.UpdateProfile(ctx, subject, ProfileUpdate{
		FullName:       input.FullName,
		EducationLevel: input.EducationLevel,
		Skills:         input.Skills,
		CareerGoal:     input.CareerGoal,
		Onboarded:      true,
	})
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return PublicAccount{}, ErrAccountNotFound
		}
		return PublicAccount{}, WrapStoreError(err, "onboarding update failed")
	}

	return account.Public(), nil
}
