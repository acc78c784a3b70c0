package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hostelcare/complaint-api/auth"
	"github.com/hostelcare/complaint-api/internal/observability"
	"github.com/hostelcare/complaint-api/models"
	"github.com/hostelcare/complaint-api/repositories"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// SessionIssuer signs session tokens for authenticated users
type SessionIssuer interface {
	Issue(user *models.User) (string, error)
}

// RegisterInput carries a self-registration request
type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	Mobile       string
	Role         string
	StudentID    string
	Room         string
	Block        string
	ParentID     *uuid.UUID
	Relationship string
	IDToken      string
}

// AuthResult is returned by every successful login or registration
type AuthResult struct {
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
	Message string       `json:"message"`
}

// AuthService handles registration and login
type AuthService struct {
	users    repositories.UserRepository
	verifier auth.TokenVerifier
	sessions SessionIssuer
	identity IdentityProvider
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewAuthService creates a new AuthService. identity may be nil, in which case
// password accounts get a locally generated subject.
func NewAuthService(
	users repositories.UserRepository,
	verifier auth.TokenVerifier,
	sessions SessionIssuer,
	identity IdentityProvider,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		verifier: verifier,
		sessions: sessions,
		identity: identity,
		metrics:  metrics,
		logger:   logger,
	}
}

// Register creates a STUDENT or PARENT account and returns a session token
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	role := models.RoleStudent
	if in.Role != "" {
		parsed, err := models.ParseRole(in.Role)
		if err != nil {
			return nil, ErrInvalidRole.WithDetail("role", in.Role)
		}
		role = parsed
	}
	if role == models.RoleAdmin {
		return nil, ErrSelfRegistrationAdmin
	}

	email := models.NormalizeEmail(in.Email)

	var claims *auth.Claims
	if in.IDToken != "" {
		var err error
		claims, err = s.verifyProviderToken(ctx, in.IDToken)
		if err != nil {
			return nil, err
		}
		// The account is bound to the address the provider asserts for the subject.
		tokenEmail := models.NormalizeEmail(claims.Email)
		if tokenEmail == "" || (email != "" && email != tokenEmail) {
			s.logger.Warn("registration email does not match identity token",
				zap.String("subject", claims.Subject))
			return nil, ErrIdentityEmailMismatch
		}
		email = tokenEmail
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, mapRepositoryError(err, ErrUserNotFound)
	}

	user := models.NewUser("", email, in.Name, role)
	user.Mobile = in.Mobile

	switch role {
	case models.RoleStudent:
		user.StudentID = in.StudentID
		user.Room = in.Room
		user.Block = in.Block
		if in.ParentID != nil {
			if err := checkParentLink(ctx, s.users, *in.ParentID); err != nil {
				return nil, err
			}
			user.ParentID = in.ParentID
		}
	case models.RoleParent:
		if in.Relationship != "" {
			rel, err := models.ParseRelationship(in.Relationship)
			if err != nil {
				return nil, NewValidationError("invalid relationship", map[string]string{"relationship": err.Error()})
			}
			user.Relationship = rel
		}
	}

	method := "password"
	if claims != nil {
		if _, err := s.users.GetBySubject(ctx, claims.Subject); err == nil {
			return nil, ErrDuplicateSubject
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return nil, mapRepositoryError(err, ErrUserNotFound)
		}
		user.Subject = claims.Subject
		method = "provider_token"
	}

	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, WrapInternal("failed to hash password", err)
		}
		user.PasswordHash = string(hash)
	}

	if user.Subject == "" {
		if s.identity != nil {
			uid, err := s.identity.SignUp(ctx, email, in.Password, in.Name)
			if err != nil {
				return nil, err
			}
			user.Subject = uid
			method = "provider_signup"
		} else {
			user.Subject = models.LocalSubjectPrefix + uuid.NewString()
		}
	}

	if err := s.users.Create(ctx, user); err != nil {
		s.logger.Error("failed to create user",
			zap.String("email", email),
			zap.Error(err))
		return nil, mapRepositoryError(err, ErrUserNotFound)
	}

	s.metrics.Registered(string(role), method)
	s.logger.Info("user registered",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(role)),
		zap.String("method", method))

	return s.issue(user, "Registration successful")
}

// Login authenticates with email and password
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, mapRepositoryError(err, ErrUserNotFound)
	}

	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, ErrAccountDeactivated
	}

	return s.issue(user, "Login successful")
}

// LoginWithToken exchanges a provider ID token for a session token.
// An unknown subject falls back to a verified-email match against an
// unlinked local account, which is then linked to the subject.
func (s *AuthService) LoginWithToken(ctx context.Context, idToken string) (*AuthResult, error) {
	claims, err := s.verifyProviderToken(ctx, idToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetBySubject(ctx, claims.Subject)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, mapRepositoryError(err, ErrUserNotFound)
		}
		user, err = s.linkByEmail(ctx, claims)
		if err != nil {
			return nil, err
		}
	}

	if !user.Active {
		return nil, ErrAccountDeactivated
	}

	return s.issue(user, "Login successful")
}

func (s *AuthService) linkByEmail(ctx context.Context, claims *auth.Claims) (*models.User, error) {
	if !claims.EmailVerified || claims.Email == "" {
		return nil, ErrNotRegistered
	}
	user, err := s.users.GetByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotRegistered
		}
		return nil, mapRepositoryError(err, ErrUserNotFound)
	}
	if !user.IsLocal() {
		return nil, ErrNotRegistered
	}

	// Password registrations never prove ownership of the address, so the
	// link is trusted on the provider's verification alone.
	previous := user.Subject
	user.Subject = claims.Subject
	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapRepositoryError(err, ErrUserNotFound)
	}
	s.logger.Warn("linked local account to identity provider by email",
		zap.String("user_id", user.ID.String()),
		zap.String("previous_subject", previous),
		zap.String("subject", claims.Subject))
	return user, nil
}

func (s *AuthService) verifyProviderToken(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.verifier.ValidateToken(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrVerifierUnavailable) {
			return nil, ErrProviderUnavailable.Wrap(err)
		}
		return nil, ErrInvalidIdentityToken.Wrap(err)
	}
	return claims, nil
}

// checkParentLink requires parentID to name an existing PARENT account
func checkParentLink(ctx context.Context, users repositories.UserRepository, parentID uuid.UUID) error {
	parent, err := users.GetByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrInvalidParentLink
		}
		return mapRepositoryError(err, ErrUserNotFound)
	}
	if parent.Role != models.RoleParent {
		return ErrInvalidParentLink
	}
	return nil
}

func (s *AuthService) issue(user *models.User, message string) (*AuthResult, error) {
	token, err := s.sessions.Issue(user)
	if err != nil {
		return nil, WrapInternal("failed to issue session token", err)
	}
	return &AuthResult{Token: token, User: user, Message: message}, nil
}
