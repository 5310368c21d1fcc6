package service

import (
	"context"
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"go-gin-auth-service/internal/core/auth"
	"go-gin-auth-service/internal/domain"
)

// MaxPasswordBytes bcrypt 的输入上限
const MaxPasswordBytes = 72

// 对客户端可见的提示语
const (
	MsgFieldsMissing       = "Some fields are missing"
	MsgPasswordTooLong     = "Password must be at most 72 bytes"
	MsgUserExists          = "User already exists"
	MsgCredentialsRequired = "Email and password are required"
	MsgInvalidCredentials  = "Invalid credentials"
	MsgUnauthorized        = "Unauthorized"
	MsgServerError         = "Server error"
)

type PasswordHasher interface {
	Hash(pw string) (string, error)
	Compare(hashed, pw string) (bool, error)
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
	Parse(token string) (*auth.Claims, error)
}

type EventPublisher interface {
	UserCreated(ctx context.Context, evt domain.UserEvent) error
}

var authOps = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "auth_operations_total", Help: "Auth operations by outcome"},
	[]string{"op", "result"},
)

func init() { prometheus.MustRegister(authOps) }

type AuthService struct {
	users  domain.UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
	events EventPublisher
	log    *zap.Logger
}

func NewAuthService(users domain.UserRepository, hasher PasswordHasher, tokens TokenIssuer, events EventPublisher, l *zap.Logger) *AuthService {
	if l == nil {
		l = zap.NewNop()
	}
	return &AuthService{users: users, hasher: hasher, tokens: tokens, events: events, log: l}
}

type SignupInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session 登录/注册成功后的令牌 + 用户
type Session struct {
	Token string
	User  *domain.User
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (sess *Session, err error) {
	defer func() { record("signup", err) }()

	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, domain.Validation(MsgFieldsMissing)
	}
	if len(in.Password) > MaxPasswordBytes {
		return nil, domain.Validation(MsgPasswordTooLong)
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, s.internal("signup", "find user by email", err)
	}
	if existing != nil {
		return nil, domain.Conflict(MsgUserExists)
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, s.internal("signup", "hash password", err)
	}

	u := &domain.User{Name: name, Email: email, PasswordHash: hashed}
	if err := s.users.Create(ctx, u); err != nil {
		// 并发注册同一邮箱：唯一索引兜底
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, domain.Conflict(MsgUserExists)
		}
		return nil, s.internal("signup", "create user", err)
	}

	if s.events != nil {
		if err := s.events.UserCreated(ctx, u.Event()); err != nil {
			s.log.Warn("user created event not enqueued", zap.String("user_id", u.ID), zap.Error(err))
		}
	}

	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, s.internal("signup", "issue token", err)
	}
	return &Session{Token: tok, User: u}, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (sess *Session, err error) {
	defer func() { record("login", err) }()

	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.Validation(MsgCredentialsRequired)
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, s.internal("login", "find user by email", err)
	}
	if u == nil {
		return nil, domain.Authentication(MsgInvalidCredentials)
	}

	ok, err := s.hasher.Compare(u.PasswordHash, in.Password)
	if err != nil {
		return nil, s.internal("login", "compare password", err)
	}
	if !ok {
		return nil, domain.Authentication(MsgInvalidCredentials)
	}

	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, s.internal("login", "issue token", err)
	}
	return &Session{Token: tok, User: u}, nil
}

// CheckSession 校验令牌并确认用户仍存在
func (s *AuthService) CheckSession(ctx context.Context, token string) (u *domain.User, err error) {
	defer func() { record("check", err) }()

	if token == "" {
		return nil, domain.Authentication(MsgUnauthorized)
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		s.log.Debug("session token rejected", zap.Error(err))
		return nil, domain.Authentication(MsgUnauthorized)
	}

	u, err = s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, s.internal("check", "find user by id", err)
	}
	if u == nil {
		return nil, domain.Authentication(MsgUnauthorized)
	}
	return u, nil
}

func (s *AuthService) internal(op, what string, err error) error {
	s.log.Error(op+" failed", zap.String("step", what), zap.Error(err))
	return domain.Internal(what, err)
}

func record(op string, err error) {
	result := "ok"
	if err != nil {
		result = domain.KindOf(err).String()
	}
	authOps.WithLabelValues(op, result).Inc()
}
