package entity

import "time"

// Estados de User.
const (
	UserActive   = "active"
	UserInactive = "inactive"
)

// User personal del hospital con acceso a la API. El rol coincide con los roles del token
// (admin, farmacia, sala).
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt
	Name         string
	Role         string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsActive indica si el usuario puede iniciar sesión.
func (u *User) IsActive() bool { return u.Status == UserActive }
