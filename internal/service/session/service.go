// Package session authenticates admins and manages admin accounts.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/cTHE0/restaurant/internal/auth"
	"github.com/cTHE0/restaurant/internal/cache"
	"github.com/cTHE0/restaurant/internal/clock"
	"github.com/cTHE0/restaurant/internal/entity"
	repo "github.com/cTHE0/restaurant/internal/repository/admin"
	"github.com/cTHE0/restaurant/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/cTHE0/restaurant/service/session")

const (
	maxCooldown      = 30 * time.Second
	throttleRetained = 15 * time.Minute
)

// Session is an issued admin session.
type Session struct {
	Identity  auth.Identity
	Token     string
	ExpiresAt time.Time
}

type throttleState struct {
	Failures int       `json:"failures"`
	Until    time.Time `json:"until"`
}

// Service logs admins in and manages their accounts.
type Service struct {
	admins *repo.Repository
	tokens *auth.Tokens
	cache  cache.Store
	clock  clock.Clock
	logger *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Tokens     *auth.Tokens
	Cache      cache.Store `optional:"true"`
	Clock      clock.Clock
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store := p.Cache
	if store == nil {
		store = cache.NewNoop()
	}
	return &Service{
		admins: p.Repository,
		tokens: p.Tokens,
		cache:  store,
		clock:  p.Clock,
		logger: logger,
	}
}

// Login verifies credentials and issues a session token. Repeated failures
// for one username impose a cooldown that doubles up to 30 seconds.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errorbank.Validation("username and password are required")
	}

	ctx, span := serviceTracer.Start(ctx, "SessionService.Login", trace.WithAttributes(attribute.String("admin.username", username)))
	defer span.End()

	key := throttleKey(username)
	state := s.loadThrottle(ctx, key)
	now := s.clock.Now()
	if now.Before(state.Until) {
		wait := int(math.Ceil(state.Until.Sub(now).Seconds()))
		return nil, errorbank.TooManyRequests("too many failed login attempts", errorbank.WithDetail("retry_after", wait))
	}

	user, err := s.admins.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return nil, errorbank.Persistence("failed to load admin", errorbank.WithCause(err))
	}
	if user == nil || !user.IsActive || !auth.CheckPassword(user.PasswordHash, password) {
		s.recordFailure(ctx, key, state, now)
		s.logger.Warn("admin login rejected", zap.String("username", username), zap.Int("failures", state.Failures+1))
		return nil, errorbank.Unauthorized("invalid credentials")
	}

	if state.Failures > 0 {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Warn("login throttle reset failed", zap.Error(err))
		}
	}

	identity := auth.Identity{ID: user.ID, Username: user.Username}
	token, expires, err := s.tokens.Issue(identity)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sign failed")
		return nil, errorbank.Internal("failed to issue session", errorbank.WithCause(err))
	}

	s.logger.Info("admin logged in", zap.String("username", user.Username))
	return &Session{Identity: identity, Token: token, ExpiresAt: expires}, nil
}

// Authenticate resolves a session token to the identity of an active admin.
func (s *Service) Authenticate(ctx context.Context, token string) (auth.Identity, error) {
	identity, err := s.tokens.Parse(token)
	if err != nil {
		return auth.Identity{}, errorbank.Unauthorized("admin authentication required", errorbank.WithCause(err))
	}

	user, err := s.admins.GetByID(ctx, identity.ID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && !user.IsActive) {
		return auth.Identity{}, errorbank.Unauthorized("admin account is not active")
	}
	if err != nil {
		return auth.Identity{}, errorbank.Persistence("failed to load admin", errorbank.WithCause(err))
	}
	return auth.Identity{ID: user.ID, Username: user.Username}, nil
}

// CreateAdmin registers a new active admin. Usernames are unique.
func (s *Service) CreateAdmin(ctx context.Context, username, password string) (*entity.AdminUser, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errorbank.Validation("username is required", errorbank.WithDetail("field", "username"))
	}
	if len(password) < 6 {
		return nil, errorbank.Validation("password must be at least 6 characters", errorbank.WithDetail("field", "password"))
	}

	ctx, span := serviceTracer.Start(ctx, "SessionService.CreateAdmin", trace.WithAttributes(attribute.String("admin.username", username)))
	defer span.End()

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, errorbank.Internal("failed to hash password", errorbank.WithCause(err))
	}
	user := &entity.AdminUser{
		Username:     username,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.admins.Create(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, errorbank.Conflict("admin already exists", errorbank.WithDetail("username", username))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return nil, errorbank.Persistence("failed to create admin", errorbank.WithCause(err))
	}
	return user, nil
}

func (s *Service) loadThrottle(ctx context.Context, key string) throttleState {
	var state throttleState
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("login throttle read failed", zap.Error(err))
		}
		return state
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		s.logger.Warn("login throttle state corrupt", zap.Error(err))
		return throttleState{}
	}
	return state
}

func (s *Service) recordFailure(ctx context.Context, key string, state throttleState, now time.Time) {
	state.Failures++
	state.Until = now.Add(Cooldown(state.Failures))
	raw, err := json.Marshal(state)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, throttleRetained); err != nil {
		s.logger.Warn("login throttle write failed", zap.Error(err))
	}
}

// Cooldown returns the lockout after the given number of consecutive failures.
func Cooldown(failures int) time.Duration {
	if failures <= 0 {
		return 0
	}
	if failures >= 5 {
		return maxCooldown
	}
	return time.Duration(1<<failures) * time.Second
}

func throttleKey(username string) string {
	return "login:" + strings.ToLower(username)
}
