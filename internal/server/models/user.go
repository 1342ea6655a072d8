package models

import "time"

type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordHash   []byte    `json:"-"`
	AvatarInitials string    `json:"avatar_initials"`
	CreatedAt      time.Time `json:"created_at"`
}
