// Package models содержит доменные модели платформы: пользователей,
// каталог курсов, покупки, подписки, промоакции и healthy-пакеты.
// Структуры используются в бизнес-логике, хранилище и HTTP-ответах.
package models

import "time"

// Роли пользователей.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID                  string     `json:"id"`
	Email               string     `json:"email"`
	Name                string     `json:"name"`
	PasswordHash        string     `json:"-"` // Хэш пароля (bcrypt)
	Role                string     `json:"role"`
	ResetTokenHash      string     `json:"-"` // sha256 от токена сброса пароля
	ResetTokenExpiresAt *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
}

// UserPatch описывает частичное обновление пользователя.
// nil-поля не изменяются.
type UserPatch struct {
	Name  *string
	Email *string
	Role  *string
}

// Profile — пользователь вместе с его подписками.
type Profile struct {
	User          *User           `json:"user"`
	Subscriptions []*Subscription `json:"subscriptions"`
}
