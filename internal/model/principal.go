package model

type Role string

const (
	RoleEmployee Role = "employe"
	RoleEmployer Role = "employeur"
	RoleAdmin    Role = "admin"
)

// Principal is the caller resolved from an access token. Its UserID owns
// the stored timesheet state.
type Principal struct {
	UserID string
	Role   Role
}
