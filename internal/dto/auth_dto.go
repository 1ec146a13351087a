package dto

import "github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1"`
	Password string `json:"password" validate:"required,min=1"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// ChangeRoleRequest is shared by PUT /api/users/:id/role and POST /api/user/change-role.
type ChangeRoleRequest struct {
	TipoUser string `json:"tipoUser" validate:"required,oneof=Trabalhador Encarregado Diretor"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type LoginResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	TokenType    string      `json:"tokenType"`
	ExpiresIn    int         `json:"expiresIn"` // seconds
	User         *model.User `json:"user"`
}
