package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"device-manager/internal/authz"
	"device-manager/internal/dto"
	"device-manager/internal/entities"
	"device-manager/internal/repositories"
	"device-manager/pkg/constants"
	apperrors "device-manager/pkg/errors"
	"device-manager/pkg/service"
	"device-manager/pkg/utils"
)

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.TokenPairDTO, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenPairDTO, error)
	Register(ctx context.Context, payload dto.RegisterUserDTO) (uint64, error)
	GetProfile(ctx context.Context) (*dto.ProfileDTO, error)
	GetRoles(ctx context.Context) ([]entities.Role, error)
}

type AuthService struct {
	userRepo   repositories.UserRepositoryInterface
	roleRepo   repositories.RoleRepositoryInterface
	jwtService service.JWTService
	logger     *zap.Logger
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	roleRepo repositories.RoleRepositoryInterface,
	jwtService service.JWTService,
	logger *zap.Logger,
) AuthServiceInterface {
	return &AuthService{
		userRepo:   userRepo,
		roleRepo:   roleRepo,
		jwtService: jwtService,
		logger:     logger,
	}
}

func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.TokenPairDTO, error) {
	user, err := s.userRepo.FindByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			// Не раскрываем, существует ли такой email
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		s.logger.Warn("AuthService: неверный пароль", zap.String("email", payload.Email))
		return nil, apperrors.ErrInvalidCredentials
	}

	access, refresh, err := s.jwtService.GenerateTokens(user.ID, user.RoleID)
	if err != nil {
		s.logger.Error("AuthService: ошибка генерации токенов", zap.Error(err))
		return nil, err
	}

	return &dto.TokenPairDTO{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenPairDTO, error) {
	claims, err := s.jwtService.ValidateToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefreshToken {
		return nil, apperrors.ErrTokenIsNotRefresh
	}

	// Пользователь мог быть удалён или сменить роль после выдачи токена
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}

	access, refresh, err := s.jwtService.GenerateTokens(user.ID, user.RoleID)
	if err != nil {
		return nil, err
	}

	return &dto.TokenPairDTO{AccessToken: access, RefreshToken: refresh}, nil
}

// Register создаёт учётную запись. Без role_id назначается роль Viewer;
// роль Admin через регистрацию получить нельзя — только через сидер.
func (s *AuthService) Register(ctx context.Context, payload dto.RegisterUserDTO) (uint64, error) {
	var role *entities.Role
	var err error
	if payload.RoleID != nil {
		role, err = s.roleRepo.FindRole(ctx, *payload.RoleID)
		if err != nil {
			return 0, apperrors.NewInvalidInputError("роль с id=%d не найдена", *payload.RoleID)
		}
		if role.Name == constants.RoleAdmin {
			return 0, apperrors.ErrForbidden
		}
	} else {
		role, err = s.roleRepo.FindByName(ctx, constants.RoleViewer)
		if err != nil {
			s.logger.Error("AuthService: роль Viewer не найдена", zap.Error(err))
			return 0, err
		}
	}

	if _, err := s.userRepo.FindByEmail(ctx, payload.Email); err == nil {
		return 0, apperrors.NewInvalidInputError("пользователь с email %s уже существует", payload.Email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("AuthService: ошибка хеширования пароля", zap.Error(err))
		return 0, err
	}

	user := &entities.User{
		Email:        payload.Email,
		FullName:     payload.FullName,
		PasswordHash: string(hash),
		RoleID:       role.ID,
	}

	id, err := s.userRepo.CreateUser(ctx, user)
	if err != nil {
		s.logger.Error("AuthService: ошибка создания пользователя", zap.Error(err))
		return 0, err
	}
	return id, nil
}

// GetRoles отдаёт справочник ролей, например для формы регистрации.
func (s *AuthService) GetRoles(ctx context.Context) ([]entities.Role, error) {
	return s.roleRepo.GetRoles(ctx)
}

func (s *AuthService) GetProfile(ctx context.Context) (*dto.ProfileDTO, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &dto.ProfileDTO{
		ID:          user.ID,
		Email:       user.Email,
		FullName:    user.FullName,
		RoleName:    user.RoleName,
		Permissions: authz.PermissionsForRole(user.RoleName),
	}, nil
}
