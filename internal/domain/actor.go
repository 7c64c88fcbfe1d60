package domain

// Role classifies the caller of a state-mutating operation.
type Role string

const (
	RoleTenant Role = "tenant"
	RoleHost   Role = "host"
	RoleAdmin  Role = "admin"
)

// Actor is the explicit caller identity passed into every coordinator and
// store operation. Authentication happens upstream; the actor carries only
// the identity and role claims the ownership checks need.
type Actor struct {
	ID   string
	Role Role
}

// Admin reports whether the actor may bypass ownership checks.
func (a Actor) Admin() bool { return a.Role == RoleAdmin }

// Owns reports whether the actor is the given principal or an admin.
func (a Actor) Owns(principalID string) bool {
	return a.Admin() || a.ID == principalID
}
