package entity

import "time"

// Papéis válidos para User.
const (
	RoleAdmin   = "admin"
	RoleGerente = "gerente"
	RoleCaixa   = "caixa"
)

// User representa um usuário do sistema (pertence a uma Account).
type User struct {
	ID           string
	AccountID    string
	Email        string
	PasswordHash string // hash bcrypt, nunca em claro no domínio após persistir
	Name         string
	Role         string // admin, gerente, caixa
	Status       string // active, inactive, suspended
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
