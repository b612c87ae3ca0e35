package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Each field corresponds to a column.  The structs here are used
// internally by the repository layer; handlers define separate response
// types with appropriate JSON tags.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	UUID         – opaque public identifier.
//	Email        – unique email address.
//	PasswordHash – bcrypt hashed password.
//	FirstName    – given name.
//	LastName     – family name.
//	Phone        – optional phone number.
//	Gender       – optional ('male', 'female', 'other').
//	IsActive     – whether the account is active.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	UUID         string    // users.uuid
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	FirstName    string    // users.first_name
	LastName     string    // users.last_name
	Phone        *string   // users.phone (nullable)
	Gender       *string   // users.gender (nullable)
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
