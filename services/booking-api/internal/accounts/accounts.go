// Package accounts registers tenants and authenticates their users.
package accounts

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/md-rashed-zaman/apptbook/libs/auth"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/apperr"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/metrics"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/model"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/outbox"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/validation"
)

const invalidCredentials = "Invalid tenant/email/password"

type Store interface {
	CreateTenantWithOwner(ctx context.Context, t model.Tenant, u model.User, evt outbox.Event) error
	TenantBySlug(ctx context.Context, slug string) (model.Tenant, error)
	UserByEmail(ctx context.Context, tenantID uuid.UUID, email string) (model.User, error)
	UserByID(ctx context.Context, tenantID, userID uuid.UUID) (model.User, error)
}

type Service struct {
	store      Store
	issuer     *auth.Issuer
	bcryptCost int
	now        func() time.Time
	tracer     trace.Tracer

	decoyOnce sync.Once
	decoyHash string
}

type Config struct {
	BcryptCost int
	Now        func() time.Time
}

func NewService(store Store, issuer *auth.Issuer, cfg Config) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		store:      store,
		issuer:     issuer,
		bcryptCost: cfg.BcryptCost,
		now:        cfg.Now,
		tracer:     otel.Tracer("apptbook/accounts"),
	}
}

// Session is the outcome of a successful register or login.
type Session struct {
	Tenant       model.Tenant
	User         model.User
	AccessToken  string
	RefreshToken string
}

type RegisterInput struct {
	TenantName string `json:"tenantName" validate:"min=2,max=60"`
	TenantSlug string `json:"tenantSlug" validate:"omitempty,min=2,max=60"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"min=8,max=72"`
}

type LoginInput struct {
	TenantSlug string `json:"tenantSlug" validate:"min=2"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"min=1"`
}

type registeredPayload struct {
	TenantID string `json:"tenantId"`
	Slug     string `json:"slug"`
	OwnerID  string `json:"ownerId"`
	Email    string `json:"email"`
}

// Register creates a tenant and its OWNER user. The slug is derived from
// tenantSlug when given, otherwise from tenantName.
func (s *Service) Register(ctx context.Context, in RegisterInput) (sess Session, err error) {
	ctx, span := s.tracer.Start(ctx, "accounts.Register")
	defer func() { endSpan(span, err) }()

	in.TenantName = strings.TrimSpace(in.TenantName)
	in.TenantSlug = strings.TrimSpace(in.TenantSlug)
	in.Email = validation.NormalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return Session{}, err
	}

	source := in.TenantSlug
	if source == "" {
		source = in.TenantName
	}
	slug := validation.Slugify(source)
	if len(slug) < 2 {
		return Session{}, apperr.InvalidInput("tenantSlug must contain at least 2 letters or digits")
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return Session{}, apperr.InvalidInput("password must be at most 72 bytes")
		}
		return Session{}, apperr.Internal(err)
	}

	now := s.now().UTC()
	tenant := model.Tenant{ID: uuid.New(), Name: in.TenantName, Slug: slug, CreatedAt: now}
	user := model.User{
		ID:           uuid.New(),
		TenantID:     tenant.ID,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         model.RoleOwner,
		CreatedAt:    now,
	}
	span.SetAttributes(attribute.String("tenant.id", tenant.ID.String()), attribute.String("tenant.slug", slug))

	evt, err := outbox.NewEvent("tenant", tenant.ID.String(), outbox.TypeTenantRegistered, registeredPayload{
		TenantID: tenant.ID.String(),
		Slug:     slug,
		OwnerID:  user.ID.String(),
		Email:    user.Email,
	}, now)
	if err != nil {
		return Session{}, apperr.Internal(err)
	}
	if err := s.store.CreateTenantWithOwner(ctx, tenant, user, evt); err != nil {
		return Session{}, err
	}
	return s.session(tenant, user)
}

// Login authenticates a user inside the tenant named by slug. Every failure
// yields the same Unauthorized message.
func (s *Service) Login(ctx context.Context, in LoginInput) (sess Session, err error) {
	ctx, span := s.tracer.Start(ctx, "accounts.Login")
	defer func() {
		result := "success"
		if err != nil {
			result = "failure"
		}
		metrics.IncLogin(result)
		endSpan(span, err)
	}()

	in.TenantSlug = validation.Slugify(in.TenantSlug)
	in.Email = validation.NormalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return Session{}, err
	}

	tenant, err := s.store.TenantBySlug(ctx, in.TenantSlug)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			s.burnPasswordCheck(in.Password)
			return Session{}, apperr.Unauthorized(invalidCredentials)
		}
		return Session{}, err
	}
	user, err := s.store.UserByEmail(ctx, tenant.ID, in.Email)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			s.burnPasswordCheck(in.Password)
			return Session{}, apperr.Unauthorized(invalidCredentials)
		}
		return Session{}, err
	}
	if !auth.VerifyPassword(user.PasswordHash, in.Password) {
		return Session{}, apperr.Unauthorized(invalidCredentials)
	}
	span.SetAttributes(attribute.String("tenant.id", tenant.ID.String()))
	return s.session(tenant, user)
}

// Refresh exchanges a valid refresh token for a new access token, provided
// the user still belongs to the tenant named in the token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperr.Unauthorized("Missing refresh token")
	}
	id, err := s.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return "", apperr.Unauthorized("Invalid refresh token")
	}
	userID, errU := uuid.Parse(id.UserID)
	tenantID, errT := uuid.Parse(id.TenantID)
	if errU != nil || errT != nil {
		return "", apperr.Unauthorized("Invalid refresh token")
	}
	user, err := s.store.UserByID(ctx, tenantID, userID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return "", apperr.Unauthorized("Invalid refresh token")
		}
		return "", err
	}
	access, err := s.issuer.IssueAccess(auth.Identity{
		UserID:   user.ID.String(),
		TenantID: user.TenantID.String(),
		Role:     string(user.Role),
	})
	if err != nil {
		return "", apperr.Internal(err)
	}
	return access, nil
}

func (s *Service) session(t model.Tenant, u model.User) (Session, error) {
	id := auth.Identity{UserID: u.ID.String(), TenantID: t.ID.String(), Role: string(u.Role)}
	access, err := s.issuer.IssueAccess(id)
	if err != nil {
		return Session{}, apperr.Internal(err)
	}
	refresh, err := s.issuer.IssueRefresh(id)
	if err != nil {
		return Session{}, apperr.Internal(err)
	}
	return Session{Tenant: t, User: u, AccessToken: access, RefreshToken: refresh}, nil
}

// burnPasswordCheck runs one bcrypt comparison against a decoy hash when the
// tenant or user lookup misses.
func (s *Service) burnPasswordCheck(raw string) {
	s.decoyOnce.Do(func() {
		s.decoyHash, _ = auth.HashPassword("decoy-password", s.bcryptCost)
	})
	if len(raw) > auth.MaxPasswordBytes {
		raw = raw[:auth.MaxPasswordBytes]
	}
	_ = auth.VerifyPassword(s.decoyHash, raw)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperr.KindOf(err).String())
	}
	span.End()
}
