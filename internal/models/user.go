package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role represents user roles in the system
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleManager      Role = "manager"
	RoleReceptionist Role = "receptionist"
	RoleInstructor   Role = "instructor"
)

// Permission actions checked by RequirePermission.
const (
	ActionViewClients     = "view_clients"
	ActionManageClients   = "manage_clients"
	ActionViewEmployees   = "view_employees"
	ActionManageEmployees = "manage_employees"
	ActionViewEquipment   = "view_equipment"
	ActionManageEquipment = "manage_equipment"
	ActionViewPlans       = "view_plans"
	ActionManagePlans     = "manage_plans"
	ActionViewPayments    = "view_payments"
	ActionRecordPayment   = "record_payment"
	ActionManageUsers     = "manage_users"
	ActionDeleteUser      = "delete_user"
)

// User represents an account that operates a gym. OwnerID is the gym profile
// the account works for; an owner account has OwnerID equal to its own id.
// RefreshTokenHash is the digest of the account's one live refresh token.
type User struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID          string             `bson:"owner_id" json:"owner_id"`
	Username         string             `bson:"username" json:"username"`
	Email            string             `bson:"email" json:"email"`
	PasswordHash     string             `bson:"password_hash" json:"-"`
	Role             Role               `bson:"role" json:"role"`
	FirstName        string             `bson:"first_name" json:"first_name"`
	LastName         string             `bson:"last_name" json:"last_name"`
	GymName          string             `bson:"gym_name" json:"gym_name"`
	IsActive         bool               `bson:"is_active" json:"is_active"`
	LastLogin        *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
	RefreshTokenHash string             `bson:"refresh_token_hash,omitempty" json:"-"`
	RefreshExpiresAt *time.Time         `bson:"refresh_expires_at,omitempty" json:"-"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest represents a registration request. Self-registration always
// creates a gym owner; staff accounts are created by the owner.
type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	GymName   string `json:"gym_name"`
	Role      Role   `json:"role"`
}

// RefreshRequest exchanges a refresh token for a new token pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Claims represents JWT claims
type Claims struct {
	UserID   string `json:"user_id"`
	OwnerID  string `json:"owner_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Exp      int64  `json:"exp"`
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleReceptionist, RoleInstructor:
		return true
	default:
		return false
	}
}

// HasPermission checks if a user has permission for a specific action
func (u *User) HasPermission(action string) bool {
	return u.Role.Can(action)
}

// Can reports whether the role may perform action. Admins may do anything;
// managers everything except staff management.
func (r Role) Can(action string) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleManager:
		return action != ActionDeleteUser && action != ActionManageUsers
	case RoleReceptionist:
		return action == ActionViewClients || action == ActionManageClients ||
			action == ActionViewPlans || action == ActionViewPayments ||
			action == ActionRecordPayment || action == ActionViewEquipment
	case RoleInstructor:
		return action == ActionViewClients || action == ActionViewEquipment ||
			action == ActionManageEquipment || action == ActionViewPlans
	default:
		return false
	}
}
