package user

import (
	"github.com/finvoice/finvoice/internal/types"
)

// User is an account holder. Every customer, invoice and payment in the
// system is owned by exactly one user.
type User struct {
	ID    string `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`
	// PasswordHash is the bcrypt hash of the user's password. Never
	// serialized in API responses.
	PasswordHash string `db:"password_hash" json:"-"`
	types.BaseModel
}
