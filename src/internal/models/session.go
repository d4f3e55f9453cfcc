package models

// User is the account the SIKep backend reports for a bearer token.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"nama"`
	NIP  string `json:"nip"`
	Role string `json:"role"`
}

const RoleAdmin = "admin"

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Credentials is the login form.
type Credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResult is what the backend hands back on a successful login.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
