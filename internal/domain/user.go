package domain

import (
	"context"
	"errors"
	"time"
)

// ErrEmailTaken is returned by a UserRepository when the unique email
// constraint rejects an insert.
var ErrEmailTaken = errors.New("email already registered")

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// Public 对外返回的用户字段（不含密码哈希）
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

// UserRepository returns (nil, nil) from the Find methods when no row matches.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// UserEvent 用户生命周期事件载荷
type UserEvent struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u *User) Event() UserEvent {
	return UserEvent{ID: u.ID, Name: u.Name, Email: u.Email}
}
