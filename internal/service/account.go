// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/locshare/locshare/internal/auth"
	"github.com/locshare/locshare/internal/blob"
	"github.com/locshare/locshare/internal/cache"
	"github.com/locshare/locshare/internal/model"
	"github.com/locshare/locshare/internal/repository"
)

// Service errors.
var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrNameRequired       = errors.New("name is required")
	ErrPhotoTooLarge      = errors.New("photo exceeds size limit")
)

const minPasswordLength = 8

// AccountService handles registration, sessions and profile data.
type AccountService struct {
	repo       *repository.Repository
	cache      *cache.Cache
	photos     *blob.Store
	baseURL    string
	sessionTTL time.Duration
	tokenEnv   string
	maxPhoto   int64
}

// NewAccountService creates a new AccountService.
func NewAccountService(repo *repository.Repository, c *cache.Cache, photos *blob.Store, baseURL string, sessionTTL time.Duration, tokenEnv string, maxPhoto int64) *AccountService {
	return &AccountService{
		repo:       repo,
		cache:      c,
		photos:     photos,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		sessionTTL: sessionTTL,
		tokenEnv:   tokenEnv,
		maxPhoto:   maxPhoto,
	}
}

// RegisterInput defines input for creating an account.
type RegisterInput struct {
	Email          string
	Password       string
	Name           string
	Identification string
	Phone          string
}

// Register creates a new account and issues a session token so the
// client can start using the API without a separate login round trip.
// The new user starts disconnected at the origin and becomes visible
// only after an explicit connect.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*SessionOutput, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:             uuid.NewString(),
		Email:          email,
		PasswordHash:   hash,
		Name:           strings.TrimSpace(input.Name),
		Identification: strings.TrimSpace(input.Identification),
		Phone:          strings.TrimSpace(input.Phone),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issueSession(ctx, user)
}

// SessionOutput carries the issued session token.
type SessionOutput struct {
	User  *model.User
	Token string
}

// issueSession generates a token and stores its session in the cache.
// The plaintext token is returned once; only its hash is stored.
func (s *AccountService) issueSession(ctx context.Context, user *model.User) (*SessionOutput, error) {
	token, err := auth.GenerateSessionToken(s.tokenEnv)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	session := &model.SessionContext{
		UserID:      user.ID,
		TokenPrefix: token.Prefix,
	}
	if err := s.cache.SetSession(ctx, token.CacheKey, session, s.sessionTTL); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return &SessionOutput{User: user, Token: token.Plaintext}, nil
}

// Login verifies credentials and issues a session token.
func (s *AccountService) Login(ctx context.Context, email, password string) (*SessionOutput, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Burn time anyway so lookups don't leak account existence
			_, _ = auth.VerifyPassword(password, dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return s.issueSession(ctx, user)
}

// Logout revokes the session for a plaintext token and returns the ID
// of the user it belonged to, or "" when the token was not a live
// session. Unknown tokens are ignored: logout is idempotent.
func (s *AccountService) Logout(ctx context.Context, token string) (string, error) {
	if !auth.ValidateTokenFormat(token) {
		return "", nil
	}

	cacheKey := auth.QuickHash(token)
	session, err := s.cache.GetSession(ctx, cacheKey, s.sessionTTL)
	if err != nil {
		return "", fmt.Errorf("lookup session: %w", err)
	}
	if session == nil {
		return "", nil
	}

	if err := s.cache.DeleteSession(ctx, cacheKey); err != nil {
		return "", err
	}
	return session.UserID, nil
}

// GetUser returns the full account record.
func (s *AccountService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile overwrites the user-editable profile fields.
// Saving unchanged data is a no-op from the caller's point of view.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, profile model.Profile) error {
	profile.Name = strings.TrimSpace(profile.Name)
	if profile.Name == "" {
		return ErrNameRequired
	}

	if err := s.repo.UpsertProfile(ctx, userID, profile); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	// The display name appears in presence snapshots, so a rename is a
	// presence change for subscribers.
	s.refreshPresence(ctx, userID)

	return nil
}

// ChangePassword replaces the account password after verifying the
// current one.
func (s *AccountService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if len(next) < minPasswordLength {
		return ErrWeakPassword
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	ok, err := auth.VerifyPassword(current, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.repo.UpdatePassword(ctx, userID, hash)
}

// AttachPhoto stores a profile photo and links it to the user as one
// sequential pipeline: blob write, URL resolution, presence update.
// Any failed stage fails the whole operation.
func (s *AccountService) AttachPhoto(ctx context.Context, userID string, r io.Reader) (string, error) {
	if err := s.photos.Save(userID, r, s.maxPhoto); err != nil {
		if errors.Is(err, blob.ErrTooLarge) {
			return "", ErrPhotoTooLarge
		}
		return "", fmt.Errorf("store photo: %w", err)
	}

	photoURL := s.photos.URL(s.baseURL, userID)

	if err := s.repo.SetPhotoRef(ctx, userID, photoURL); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("link photo: %w", err)
	}

	s.refreshPresence(ctx, userID)

	return photoURL, nil
}

// OpenPhoto returns the stored photo bytes for serving.
func (s *AccountService) OpenPhoto(userID string) (io.ReadCloser, error) {
	return s.photos.Open(userID)
}

// refreshPresence re-mirrors the presence row and notifies subscribers.
// Best-effort: snapshot assembly falls back to Postgres on a stale
// mirror.
func (s *AccountService) refreshPresence(ctx context.Context, userID string) {
	rec, err := s.repo.GetPresence(ctx, userID)
	if err != nil {
		return
	}
	_ = s.cache.SetPresence(ctx, rec)
	_ = s.cache.NotifyPresenceChanged(ctx, userID)
}

// dummyHash is a valid argon2id hash of a random string, used to keep
// login timing flat when the email does not exist.
const dummyHash = "$argon2id$v=19$m=65536,t=3,p=4$c29tZXNhbHRzb21lc2FsdA$RdescudvJCsgt3ub+b+dWRWJTmaaJObG"
