package model

import "time"

// Role values stored in User.TipoUser.
const (
	RoleTrabalhador = "Trabalhador"
	RoleEncarregado = "Encarregado"
	RoleDiretor     = "Diretor"
)

// ValidRole reports whether r is one of the three known roles.
func ValidRole(r string) bool {
	return r == RoleTrabalhador || r == RoleEncarregado || r == RoleDiretor
}

// User is an application account. ID is opaque: "admin" for the seeded
// director, user_<millis>_<rand> for accounts created through the API.
type User struct {
	ID              string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Username        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Password        string    `gorm:"type:varchar(255);not null" json:"-"`
	Email           string    `gorm:"type:varchar(255)" json:"email"`
	FirstName       string    `gorm:"type:varchar(100)" json:"firstName"`
	LastName        string    `gorm:"type:varchar(100)" json:"lastName"`
	ProfileImageURL string    `gorm:"type:varchar(500)" json:"profileImageUrl"`
	TipoUser        string    `gorm:"type:varchar(20);not null;default:'Trabalhador'" json:"tipoUser"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }
