package users

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jdmccork/auctionhouse/internal/domain/images"
	"github.com/jdmccork/auctionhouse/pkg/apperrors"
	"github.com/jdmccork/auctionhouse/pkg/auth"
)

var (
	ErrUserNotFound       = fmt.Errorf("user %w", apperrors.ErrNotFound)
	ErrEmailInUse         = apperrors.Conflictf("email already in use")
	ErrInvalidCredentials = apperrors.Forbiddenf("invalid email or password")
	ErrNotProfileOwner    = apperrors.Forbiddenf("cannot act on another user's profile")
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// RegisterCommand creates a new account.
type RegisterCommand struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// UpdateCommand is a partial profile update. The caller must present their
// current password regardless of which fields change.
type UpdateCommand struct {
	UserID          int64
	CallerID        int64
	CurrentPassword string
	FirstName       *string
	LastName        *string
	Email           *string
	Password        *string
}

// Service implements account registration, session management, and profile
// access.
type Service struct {
	repo         Repository
	signer       *auth.Signer
	sessions     auth.SessionStore
	imageManager *images.Manager
}

func NewService(repo Repository, signer *auth.Signer, sessions auth.SessionStore, imageManager *images.Manager) *Service {
	return &Service{
		repo:         repo,
		signer:       signer,
		sessions:     sessions,
		imageManager: imageManager,
	}
}

// Register creates an account with a hashed password.
func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (int64, error) {
	if cmd.FirstName == "" {
		return 0, apperrors.Validationf("first name must not be empty")
	}
	if cmd.LastName == "" {
		return 0, apperrors.Validationf("last name must not be empty")
	}
	if !emailPattern.MatchString(cmd.Email) {
		return 0, apperrors.Validationf("invalid email address")
	}
	if cmd.Password == "" {
		return 0, apperrors.Validationf("password must not be empty")
	}

	hash, err := auth.HashPassword(cmd.Password)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := s.repo.CreateUser(ctx, &User{
		FirstName:    cmd.FirstName,
		LastName:     cmd.LastName,
		Email:        cmd.Email,
		PasswordHash: hash,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// Login verifies credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (int64, string, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return 0, "", fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return 0, "", ErrInvalidCredentials
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return 0, "", fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return 0, "", ErrInvalidCredentials
	}

	token, sess, err := s.signer.Generate(user.ID)
	if err != nil {
		return 0, "", fmt.Errorf("failed to issue token: %w", err)
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return 0, "", fmt.Errorf("failed to save session: %w", err)
	}

	return user.ID, token, nil
}

// Logout revokes the presented session.
func (s *Service) Logout(ctx context.Context, sess *auth.Session) error {
	if err := s.sessions.Revoke(ctx, sess.TokenID); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// Get returns a user's profile. The email is included only when the viewer
// is the profile owner; viewerID 0 means unauthenticated.
func (s *Service) Get(ctx context.Context, id, viewerID int64) (*Profile, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	profile := &Profile{FirstName: user.FirstName, LastName: user.LastName}
	if viewerID == user.ID {
		profile.Email = user.Email
	}
	return profile, nil
}

// Update changes profile fields. Only the owner may update, and must present
// the current password.
func (s *Service) Update(ctx context.Context, cmd UpdateCommand) error {
	if cmd.UserID != cmd.CallerID {
		return ErrNotProfileOwner
	}

	user, err := s.repo.GetUserByID(ctx, cmd.UserID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, cmd.CurrentPassword)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return apperrors.Forbiddenf("incorrect password")
	}

	if cmd.FirstName != nil {
		if *cmd.FirstName == "" {
			return apperrors.Validationf("first name must not be empty")
		}
		user.FirstName = *cmd.FirstName
	}
	if cmd.LastName != nil {
		if *cmd.LastName == "" {
			return apperrors.Validationf("last name must not be empty")
		}
		user.LastName = *cmd.LastName
	}
	if cmd.Email != nil {
		if !emailPattern.MatchString(*cmd.Email) {
			return apperrors.Validationf("invalid email address")
		}
		user.Email = *cmd.Email
	}
	if cmd.Password != nil {
		if *cmd.Password == "" {
			return apperrors.Validationf("password must not be empty")
		}
		hash, err := auth.HashPassword(*cmd.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// AttachImage replaces the user's profile image. Owner only.
func (s *Service) AttachImage(ctx context.Context, userID, callerID int64, data []byte) (images.Outcome, error) {
	if userID != callerID {
		return 0, ErrNotProfileOwner
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return 0, ErrUserNotFound
	}

	filename, outcome, err := s.imageManager.Attach(ctx, images.UserBaseName(userID), user.ImageFilename, data)
	if err != nil {
		return 0, err
	}

	if err := s.repo.SetImageFilename(ctx, userID, filename); err != nil {
		return 0, fmt.Errorf("failed to record image filename: %w", err)
	}
	return outcome, nil
}

// ImagePath resolves the user's profile image to a servable path.
func (s *Service) ImagePath(ctx context.Context, userID int64) (string, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return "", ErrUserNotFound
	}
	if user.ImageFilename == nil || *user.ImageFilename == "" {
		return "", apperrors.NotFoundf("user %d has no image", userID)
	}
	return s.imageManager.Resolve(*user.ImageFilename), nil
}
