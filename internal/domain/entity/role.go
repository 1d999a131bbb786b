package entity

// Role represents a user role in the system
type Role struct {
	ID          int    `gorm:"primaryKey;autoIncrement" json:"id"`
	RoleName    string `gorm:"type:varchar(50);uniqueIndex;not null" json:"role_name"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	// Relationships
	Users []User `gorm:"foreignKey:RoleID" json:"users,omitempty"`
}

func (Role) TableName() string {
	return "roles"
}

// Role ID constants
const (
	RoleIDAdmin    = 1
	RoleIDProvider = 2
	RoleIDPatient  = 3
)

// RoleNames constants
const (
	RoleAdmin    = "admin"
	RoleProvider = "provider"
	RolePatient  = "patient"
)

// RoleNameFromID maps a role ID to its name, empty for unknown IDs
func RoleNameFromID(roleID int) string {
	switch roleID {
	case RoleIDAdmin:
		return RoleAdmin
	case RoleIDProvider:
		return RoleProvider
	case RoleIDPatient:
		return RolePatient
	}
	return ""
}
