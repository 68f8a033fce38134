package models

import (
	"time"

	"github.com/google/uuid"
)

const RoleUser = "ROLE_USER"

type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Password  []byte    `db:"password" json:"-"`
	Roles     []string  `db:"roles" json:"roles"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
