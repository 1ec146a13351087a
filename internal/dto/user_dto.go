package dto

import "github.com/jtalmeidaAdvir/WorkCrewManager/internal/model"

type CreateUserRequest struct {
	FirstName string `json:"firstName" validate:"required,min=1,max=100"`
	LastName  string `json:"lastName"  validate:"required,min=1,max=100"`
	Email     string `json:"email"     validate:"required,email"`
	TipoUser  string `json:"tipoUser"  validate:"required,oneof=Trabalhador Encarregado Diretor"`
}

// Credentials carries a plaintext password exactly once, at creation or reset.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CreateUserResponse struct {
	User        *model.User `json:"user"`
	Credentials Credentials `json:"credentials"`
}

type CredentialsResponse struct {
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Message   string `json:"message"`
}

type ResetPasswordResponse struct {
	Username    string `json:"username"`
	NewPassword string `json:"newPassword"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Message     string `json:"message"`
}
