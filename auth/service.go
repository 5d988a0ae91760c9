package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"loanflow/events"
	"loanflow/logger"
	"loanflow/metrics"
	"loanflow/session"
	"loanflow/validation"
)

var (
	// ErrInvalidCredentials signals wrong email or password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrNoSession signals that no identity is stored for the client.
	ErrNoSession = errors.New("auth: no active session")
)

// tokenTTL bounds how long an issued token is accepted.
const tokenTTL = 24 * time.Hour

// Service handles authentication business logic.
type Service struct {
	repo       Repository
	identities session.Store
	jwtSecret  []byte
	loginDelay time.Duration
	now        func() time.Time
	log        *zap.Logger
	metrics    *metrics.Recorder
	publisher  events.Publisher
}

// LoginResult bundles the token and identity returned after a successful login.
type LoginResult struct {
	Token    string
	Identity Identity
}

// NewService creates a new authentication service. identities is the durable
// store the identity blob is written to, one namespace per client.
func NewService(repo Repository, identities session.Store, jwtSecret string) *Service {
	return &Service{
		repo:       repo,
		identities: identities,
		jwtSecret:  []byte(jwtSecret),
		now:        time.Now,
		log:        zap.NewNop(),
		metrics:    metrics.Nop(),
		publisher:  events.NoopPublisher{},
	}
}

// WithLoginDelay sets the simulated latency applied to every login attempt.
func (s *Service) WithLoginDelay(d time.Duration) *Service {
	s.loginDelay = d
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) WithLogger(l *zap.Logger) *Service {
	s.log = logger.OrNop(l)
	return s
}

func (s *Service) WithMetrics(m *metrics.Recorder) *Service {
	if m != nil {
		s.metrics = m
	}
	return s
}

func (s *Service) WithPublisher(p events.Publisher) *Service {
	if p != nil {
		s.publisher = p
	}
	return s
}

// Login validates the form, checks credentials and persists the identity for
// clientID.
func (s *Service) Login(ctx context.Context, clientID string, req LoginRequest) (LoginResult, error) {
	if err := validation.Login.Validate(req); err != nil {
		s.metrics.Logins.WithLabelValues("invalid").Inc()
		return LoginResult{}, err
	}

	if err := sleep(ctx, s.loginDelay); err != nil {
		return LoginResult{}, err
	}

	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.metrics.Logins.WithLabelValues("rejected").Inc()
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.metrics.Logins.WithLabelValues("rejected").Inc()
		return LoginResult{}, ErrInvalidCredentials
	}

	result, err := s.establish(ctx, clientID, user)
	if err != nil {
		return LoginResult{}, err
	}
	s.metrics.Logins.WithLabelValues("success").Inc()
	return result, nil
}

// Logout clears the identity stored for clientID.
func (s *Service) Logout(ctx context.Context, clientID string) error {
	identity, err := s.Current(ctx, clientID)
	if err != nil && !errors.Is(err, ErrNoSession) {
		return err
	}

	if err := s.store(clientID).Del(ctx, AuthStorageKey); err != nil {
		return fmt.Errorf("auth: clear identity: %w", err)
	}

	if identity.ID != "" {
		s.publish(ctx, events.TopicUserLoggedOut, identity)
	}
	return nil
}

// Current returns the identity stored for clientID.
func (s *Service) Current(ctx context.Context, clientID string) (Identity, error) {
	raw, err := s.store(clientID).Get(ctx, AuthStorageKey)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return Identity{}, ErrNoSession
		}
		return Identity{}, fmt.Errorf("auth: load identity: %w", err)
	}

	var identity Identity
	if err := json.Unmarshal(raw, &identity); err != nil {
		// A corrupt blob behaves like no session.
		s.log.Warn("discarding unreadable identity blob", zap.String("client_id", clientID), zap.Error(err))
		return Identity{}, ErrNoSession
	}
	return identity, nil
}

// Bootstrap restores the stored identity for clientID. When none exists the
// demo signs the broker user in automatically.
func (s *Service) Bootstrap(ctx context.Context, clientID string) (LoginResult, error) {
	identity, err := s.Current(ctx, clientID)
	switch {
	case err == nil:
		token, err := s.generateToken(identity.ID, identity.Role)
		if err != nil {
			return LoginResult{}, fmt.Errorf("auth: generate token: %w", err)
		}
		return LoginResult{Token: token, Identity: identity}, nil
	case !errors.Is(err, ErrNoSession):
		return LoginResult{}, err
	}

	broker, err := s.repo.GetUserByID(ctx, DemoCredentials()[0].User.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("auth: bootstrap demo user: %w", err)
	}
	return s.establish(ctx, clientID, broker)
}

// VerifyToken validates a JWT token and returns the user ID.
func (s *Service) VerifyToken(tokenString string) (string, Role, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		return "", "", fmt.Errorf("auth: parse token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		userID, ok := claims["user_id"].(string)
		if !ok {
			return "", "", fmt.Errorf("auth: invalid user_id in token")
		}
		roleStr, ok := claims["role"].(string)
		if !ok {
			return "", "", fmt.Errorf("auth: invalid role in token")
		}
		role := Role(roleStr)
		if !isValidRole(role) {
			return "", "", fmt.Errorf("auth: invalid role %q in token", roleStr)
		}
		return userID, role, nil
	}

	return "", "", fmt.Errorf("auth: invalid token")
}

func (s *Service) establish(ctx context.Context, clientID string, user User) (LoginResult, error) {
	identity := user.Identity()
	blob, err := json.Marshal(identity)
	if err != nil {
		return LoginResult{}, fmt.Errorf("auth: encode identity: %w", err)
	}
	if err := s.store(clientID).Set(ctx, AuthStorageKey, blob); err != nil {
		return LoginResult{}, fmt.Errorf("auth: save identity: %w", err)
	}

	token, err := s.generateToken(user.ID, user.Role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("auth: generate token: %w", err)
	}

	s.publish(ctx, events.TopicUserLoggedIn, identity)
	s.log.Info("user signed in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return LoginResult{Token: token, Identity: identity}, nil
}

func (s *Service) publish(ctx context.Context, topic string, identity Identity) {
	event := events.UserSession{UserID: identity.ID, Role: string(identity.Role)}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.log.Error("publish session event", zap.String("topic", topic), zap.Error(err))
	}
}

func (s *Service) store(clientID string) session.Store {
	return session.Scoped(s.identities, clientID)
}

// generateToken creates a JWT token for the user.
func (s *Service) generateToken(userID string, role Role) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     now.Add(tokenTTL).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func isValidRole(role Role) bool {
	switch role {
	case RoleBroker, RoleAdmin:
		return true
	default:
		return false
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
