// internal/models/user.go
package models

// UserRole is the closed set of marketplace roles.
type UserRole string

const (
	RoleFarmer   UserRole = "FARMER"
	RoleConsumer UserRole = "CONSUMER"
	RoleAdmin    UserRole = "ADMIN"
)

// ValidRole reports whether s names a known role.
func ValidRole(s string) bool {
	switch UserRole(s) {
	case RoleFarmer, RoleConsumer, RoleAdmin:
		return true
	}
	return false
}

// Preferences is the per-user snapshot attached to a connection at admission.
// It also gates the external email/SMS channels for offline delivery.
type Preferences struct {
	FavoriteCategories []string `json:"favoriteCategories,omitempty"`
	FollowedFarmIDs    []string `json:"followedFarmIds,omitempty"`
	EmailEnabled       bool     `json:"emailEnabled"`
	SMSEnabled         bool     `json:"smsEnabled"`
}

// Identity is what the identity collaborator resolves a connection token to.
type Identity struct {
	UserID      string      `json:"userId"`
	Role        UserRole    `json:"role"`
	Email       string      `json:"email,omitempty"`
	Phone       string      `json:"phone,omitempty"`
	Preferences Preferences `json:"preferences"`
}
