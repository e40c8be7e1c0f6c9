package models

import "time"

// Role is the closed set of actor roles in the clinic.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleClinic  Role = "clinic_admin"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RolePatient, RoleDoctor, RoleClinic:
		return true
	}
	return false
}

// User is the minimal identity and contact record the scheduling and
// reminder subsystems need. Full profile management lives elsewhere.
type User struct {
	ID        string    `bson:"id" json:"id"`
	Role      Role      `bson:"role" json:"role"`
	FirstName string    `bson:"first_name" json:"firstName"`
	LastName  string    `bson:"last_name" json:"lastName"`
	Email     string    `bson:"email" json:"email"`
	Phone     string    `bson:"phone,omitempty" json:"phone,omitempty"`
	FCMToken  string    `bson:"fcm_token,omitempty" json:"-"`
	Timezone  string    `bson:"timezone,omitempty" json:"timezone,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// FullName joins the name parts for reminder content.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Actor identifies who performed a mutating operation.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}
