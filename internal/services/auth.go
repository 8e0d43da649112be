package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/microblog/internal/logger"
	"github.com/sbilibin2017/microblog/internal/models"
	"github.com/sbilibin2017/microblog/internal/repositories"
	"github.com/sbilibin2017/microblog/internal/validator"
)

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
}

// Session is an issued session token.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Remember  bool // Remember marks a persistent cookie.
}

// AuthService handles registration, sign in and identity restoration.
type AuthService struct {
	reader   UserReader
	writer   UserWriter
	sessions SessionStore
	tokens   TokenIssuer
	limiter  RateLimiter
	events   *EventPublisher

	sessionExp  time.Duration
	rememberExp time.Duration
	apiExp      time.Duration
}

// AuthOption configures an AuthService.
type AuthOption func(*AuthService)

// WithSessionExpiration sets the lifetime of a session that is not remembered.
func WithSessionExpiration(exp time.Duration) AuthOption {
	return func(s *AuthService) { s.sessionExp = exp }
}

// WithRememberExpiration sets the lifetime of a remembered session.
func WithRememberExpiration(exp time.Duration) AuthOption {
	return func(s *AuthService) { s.rememberExp = exp }
}

// WithAPITokenExpiration sets the lifetime of API bearer tokens.
func WithAPITokenExpiration(exp time.Duration) AuthOption {
	return func(s *AuthService) { s.apiExp = exp }
}

// WithSignInLimiter throttles sign-in attempts. Without one every attempt is allowed.
func WithSignInLimiter(limiter RateLimiter) AuthOption {
	return func(s *AuthService) { s.limiter = limiter }
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(
	reader UserReader,
	writer UserWriter,
	sessions SessionStore,
	tokens TokenIssuer,
	events *EventPublisher,
	opts ...AuthOption,
) *AuthService {
	svc := &AuthService{
		reader:      reader,
		writer:      writer,
		sessions:    sessions,
		tokens:      tokens,
		events:      events,
		sessionExp:  24 * time.Hour,
		rememberExp: 30 * 24 * time.Hour,
		apiExp:      time.Hour,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Register validates input and creates the user. Validation failures are
// returned together as validator.Errors.
func (svc *AuthService) Register(ctx context.Context, in RegisterInput) (*models.UserDB, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	var errs validator.Errors
	validator.ValidateName(name, &errs)
	validator.ValidateEmail(email, &errs)
	validator.ValidatePassword(in.Password, in.PasswordConfirmation, &errs)
	if errs.HasErrors() {
		return nil, errs
	}

	user := &models.UserDB{
		ID:    uuid.New(),
		Name:  name,
		Email: email,
	}
	if err := setPassword(user, in.Password); err != nil {
		logger.Log.Errorw("failed to generate salt", "err", err)
		return nil, err
	}

	err := svc.writer.Create(ctx, user)
	if errors.Is(err, repositories.ErrConflict) {
		errs.Add("email", "has already been taken")
		return nil, errs
	}
	if err != nil {
		logger.Log.Errorw("failed to save user", "email", email, "err", err)
		return nil, err
	}

	svc.events.Publish(ctx, models.EventUserRegistered, user.ID, user.ID)
	return user, nil
}

// Authenticate returns the user whose email and password match, or
// ErrInvalidCredentials. Unknown email and wrong password are not distinguished.
func (svc *AuthService) Authenticate(ctx context.Context, email, password string) (*models.UserDB, error) {
	user, err := svc.reader.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		logger.Log.Errorw("failed to get user", "err", err)
		return nil, err
	}

	if !HasPassword(user, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// AllowSignIn takes one sign-in attempt from the budget of clientKey.
// A failing limiter lets the attempt through.
func (svc *AuthService) AllowSignIn(ctx context.Context, clientKey string) error {
	if svc.limiter == nil {
		return nil
	}
	ok, err := svc.limiter.Allow(ctx, clientKey)
	if err != nil {
		logger.Log.Errorw("sign-in rate limiter failed", "client", clientKey, "err", err)
		return nil
	}
	if !ok {
		logger.Log.Warnw("sign-in rate limit exceeded", "client", clientKey)
		return ErrRateLimited
	}
	return nil
}

// SignIn issues a session token for user and records it so it can be revoked.
func (svc *AuthService) SignIn(ctx context.Context, user *models.UserDB, remember bool) (*Session, error) {
	exp := svc.sessionExp
	if remember {
		exp = svc.rememberExp
	}

	token, err := svc.issue(ctx, user.ID, exp)
	if err != nil {
		return nil, err
	}

	return &Session{
		Token:     token,
		ExpiresAt: time.Now().Add(exp),
		Remember:  remember,
	}, nil
}

// issue signs a token for userID and records its id in the session store.
func (svc *AuthService) issue(ctx context.Context, userID uuid.UUID, exp time.Duration) (string, error) {
	tokenID := uuid.NewString()
	token, err := svc.tokens.Issue(ctx, userID, tokenID, exp)
	if err != nil {
		logger.Log.Errorw("failed to issue session token", "user_id", userID, "err", err)
		return "", err
	}

	if err := svc.sessions.Save(ctx, tokenID, userID, exp); err != nil {
		logger.Log.Errorw("failed to save session", "user_id", userID, "err", err)
		return "", err
	}
	return token, nil
}

// AuthenticateBySessionToken restores the user a session token was issued
// to. The token must be validly signed, unexpired, not revoked, and its user
// must still exist; otherwise ErrNotAuthenticated is returned.
func (svc *AuthService) AuthenticateBySessionToken(ctx context.Context, token string) (*models.UserDB, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	claims, err := svc.tokens.GetClaims(ctx, token)
	if err != nil {
		logger.Log.Debugw("invalid session token", "err", err)
		return nil, ErrNotAuthenticated
	}

	userID, err := svc.sessions.Get(ctx, claims.ID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		logger.Log.Errorw("failed to load session", "err", err)
		return nil, err
	}
	if userID != claims.UserID {
		logger.Log.Warnw("session token user mismatch", "claims_user_id", claims.UserID, "session_user_id", userID)
		return nil, ErrNotAuthenticated
	}

	user, err := svc.reader.GetByID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		logger.Log.Errorw("failed to get user", "user_id", userID, "err", err)
		return nil, err
	}
	return user, nil
}

// SignOut revokes token. Invalid or unknown tokens are ignored.
func (svc *AuthService) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := svc.tokens.GetClaims(ctx, token)
	if err != nil {
		return nil
	}
	if err := svc.sessions.Delete(ctx, claims.ID); err != nil {
		logger.Log.Errorw("failed to revoke session", "user_id", claims.UserID, "err", err)
		return err
	}
	return nil
}

// Login authenticates a user and returns an API bearer token. The token is
// recorded like a browser session, so AuthenticateBySessionToken resolves it.
func (svc *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := svc.Authenticate(ctx, email, password)
	if err != nil {
		return "", err
	}
	return svc.issue(ctx, user.ID, svc.apiExp)
}
