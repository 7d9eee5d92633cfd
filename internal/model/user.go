package model

import "time"

// User represents an application user record as stored in the
// `users` table.  Each field corresponds to a column in the
// database.  The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// define separate response types with appropriate JSON tags and
// never expose the password hash.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name supplied at signup.
//  Email        – unique email address (stored lowercased).
//  PasswordHash – bcrypt hashed password.
//  Role         – "customer" or "admin".
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Name         string    // users.name
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// IsAdmin reports whether the user may reach admin-only routes.
func (u User) IsAdmin() bool { return u.Role == "admin" }
