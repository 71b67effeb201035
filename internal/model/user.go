package model

import "time"

// RoleAdmin is the only role with a meaning; regular users carry an empty role.
const RoleAdmin = "admin"

// User represents an account record as stored in the `users` table.
// The struct is used by the repository and service layers only; handlers
// respond with UserProfile so the password hash and token never leave the
// process by accident.
//
// Fields:
//  ID        – users.user_id primary key.
//  Username  – display/login name; unique only among admins by convention.
//  Email     – login identifier, checked for duplicates at registration.
//  Password  – bcrypt hash.
//  Role      – "admin" or empty.
//  Token     – persisted session token, nil when none was ever issued.
type User struct {
    ID        uint64    // users.user_id
    Username  string    // users.username
    Email     string    // users.email
    Password  string    // users.password (bcrypt hash)
    Role      string    // users.role
    Phone     string    // users.phone
    Country   string    // users.country
    Gender    string    // users.gender
    Token     *string   // users.token (nullable)
    CreatedAt time.Time // users.created_at
}

// HasToken reports whether a session token has been persisted for the user.
func (u *User) HasToken() bool {
    return u.Token != nil && *u.Token != ""
}

// Profile returns the public projection of the user.
func (u *User) Profile() UserProfile {
    return UserProfile{
        ID:       u.ID,
        Username: u.Username,
        Email:    u.Email,
        Phone:    u.Phone,
        Country:  u.Country,
        Gender:   u.Gender,
    }
}

// UserProfile is the set of user fields that may be exposed over HTTP.
type UserProfile struct {
    ID       uint64 `json:"user_id"`
    Username string `json:"username"`
    Email    string `json:"email"`
    Phone    string `json:"phone"`
    Country  string `json:"country"`
    Gender   string `json:"gender"`
}
