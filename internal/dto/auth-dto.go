package dto

type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type TokenPairDTO struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RegisterUserDTO struct {
	Email    string  `json:"email" validate:"required,email"`
	FullName string  `json:"full_name" validate:"required,min=2,max=255"`
	Password string  `json:"password" validate:"required,min=8"`
	RoleID   *uint64 `json:"role_id,omitempty" validate:"omitempty,gt=0"`
}

type ProfileDTO struct {
	ID          uint64          `json:"id"`
	Email       string          `json:"email"`
	FullName    string          `json:"full_name"`
	RoleName    string          `json:"role_name"`
	Permissions map[string]bool `json:"permissions"`
}
