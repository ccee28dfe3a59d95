package staff

import (
	"context"
	"errors"

	"kestiv/internal/auth"
	"kestiv/internal/logger"

	"github.com/google/uuid"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error)
	Profile(ctx context.Context, staffID uuid.UUID) (*Profile, error)
	AddStaff(ctx context.Context, businessID uuid.UUID, req CreateStaffRequest) (*Staff, error)
	List(ctx context.Context, businessID uuid.UUID) ([]Staff, error)
}

type service struct {
	repo      Repository
	jwtSecret string
}

func NewService(repo Repository, jwtSecret string) Service {
	return &service{
		repo:      repo,
		jwtSecret: jwtSecret,
	}
}

func identity(s *Staff) auth.Identity {
	return auth.Identity{StaffID: s.ID, BusinessID: s.BusinessID, Email: s.Email, Role: s.Role}
}

func (s *service) issue(member *Staff) (*LoginResponse, error) {
	access, refresh, err := auth.GenerateTokens(identity(member), s.jwtSecret)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{AccessToken: access, RefreshToken: refresh, Staff: *member}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	business, owner, err := s.repo.CreateBusinessWithOwner(ctx,
		&Business{Name: req.BusinessName, BusinessType: req.BusinessType},
		&Staff{Name: req.Name, Email: req.Email, PasswordHash: passwordHash},
	)
	if err != nil {
		return nil, err
	}

	logger.Info("business registered", "business_id", business.ID, "business_type", business.BusinessType)
	return s.issue(owner)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	member, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !auth.CheckPassword(member.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(member)
}

// Refresh trades a refresh token for a new access token. The staff record is
// reloaded so role changes take effect.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error) {
	_, claims, err := auth.RefreshAccessToken(refreshToken, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	member, err := s.repo.FindByID(ctx, claims.StaffID)
	if err != nil {
		return nil, err
	}

	access, err := auth.GenerateAccessToken(identity(member), s.jwtSecret)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{AccessToken: access, Staff: *member}, nil
}

func (s *service) Profile(ctx context.Context, staffID uuid.UUID) (*Profile, error) {
	member, err := s.repo.FindByID(ctx, staffID)
	if err != nil {
		return nil, err
	}
	business, err := s.repo.GetBusiness(ctx, member.BusinessID)
	if err != nil {
		return nil, err
	}
	return &Profile{Staff: *member, Business: *business}, nil
}

func (s *service) AddStaff(ctx context.Context, businessID uuid.UUID, req CreateStaffRequest) (*Staff, error) {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, &Staff{
		BusinessID:   businessID,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         req.Role,
	})
}

func (s *service) List(ctx context.Context, businessID uuid.UUID) ([]Staff, error) {
	return s.repo.ListByBusiness(ctx, businessID)
}
