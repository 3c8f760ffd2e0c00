package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/medstock-api/internal/application/dto"
	"github.com/jhoicas/medstock-api/internal/domain"
	"github.com/jhoicas/medstock-api/internal/domain/entity"
	"github.com/jhoicas/medstock-api/internal/domain/repository"
	"github.com/jhoicas/medstock-api/pkg/jwt"
	"github.com/jhoicas/medstock-api/pkg/logger"
)

const minPasswordLen = 8

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// AuthUseCase casos de uso de autenticación: alta de personal y login.
type AuthUseCase struct {
	userRepo repository.UserRepository
	jwtCfg   JWTConfig
	log      *logger.Logger
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, jwtCfg JWTConfig, log *logger.Logger) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, jwtCfg: jwtCfg, log: log}
}

func validRole(role string) bool {
	switch role {
	case jwt.RoleAdmin, jwt.RolePharmacy, jwt.RoleWard:
		return true
	}
	return false
}

// RegisterUser crea un usuario: hashea password con bcrypt y persiste.
// Email repetido -> ErrDuplicate.
func (uc *AuthUseCase) RegisterUser(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error) {
	email := strings.TrimSpace(in.Email)
	var v []domain.Violation
	if _, err := mail.ParseAddress(email); err != nil {
		v = append(v, domain.Violation{Code: "EmailInvalid", Message: "email inválido"})
	}
	if len(in.Password) < minPasswordLen {
		v = append(v, domain.Violation{Code: "PasswordTooShort", Message: "password debe tener al menos 8 caracteres"})
	}
	if !validRole(in.Role) {
		v = append(v, domain.Violation{Code: "RoleInvalid", Message: "rol debe ser admin, farmacia o sala"})
	}
	if err := domain.NewValidationError(v); err != nil {
		return nil, err
	}

	existing, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = email
	}
	user := &entity.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         in.Role,
		Status:       entity.UserActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	uc.log.Info().Str("user", user.ID).Str("role", user.Role).Msg("usuario creado")
	out := dto.FromUser(user)
	return &out, nil
}

// Login verifica email/password, genera JWT y retorna token + usuario.
// Credenciales inválidas -> ErrUnauthorized; usuario inactivo -> ErrForbidden.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.GetByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if !user.IsActive() {
		return nil, domain.ErrForbidden
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{Token: token, User: dto.FromUser(user)}, nil
}

// ListUsers lista el personal registrado.
func (uc *AuthUseCase) ListUsers(ctx context.Context, limit, offset int) ([]dto.UserResponse, error) {
	if limit <= 0 {
		limit = 50
	}
	users, err := uc.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, len(users))
	for i, u := range users {
		out[i] = dto.FromUser(u)
	}
	return out, nil
}

// SetStatus activa o desactiva un usuario. Un admin no puede desactivarse a sí mismo.
func (uc *AuthUseCase) SetStatus(ctx context.Context, actorID, userID, status string) (*dto.UserResponse, error) {
	if status != entity.UserActive && status != entity.UserInactive {
		return nil, domain.NewValidationError([]domain.Violation{{Code: "StatusInvalid", Message: "estado debe ser active o inactive"}})
	}
	if actorID == userID && status == entity.UserInactive {
		return nil, &domain.ConflictError{Entity: "usuario", Key: userID, Reason: "no puede desactivarse a sí mismo"}
	}
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &domain.NotFoundError{Entity: "usuario", Key: userID}
	}
	user.Status = status
	user.UpdatedAt = time.Now()
	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	out := dto.FromUser(user)
	return &out, nil
}
