package user

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/formnet/core"
)

// Roles
const (
	// Center manager
	RoleGestor = "gestor"

	// Subnet coordinator
	RoleCoordinadorSubred = "coordinador_subred"

	// General coordinator (Admin)
	RoleCoordinadorGeneral = "coordinador_general"
)

var (
	AdminRoles = []string{RoleCoordinadorGeneral}
	AllRoles   = []string{RoleGestor, RoleCoordinadorSubred, RoleCoordinadorGeneral}

	Roles = []Role{
		{Name: "Gestor", Value: RoleGestor},
		{Name: "Coordinador de Subred", Value: RoleCoordinadorSubred},
		{Name: "Coordinador General", Value: RoleCoordinadorGeneral},
	}
)

// IsValidRole reports whether role is one of AllRoles.
func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdminRole reports whether role is one of AdminRoles.
func IsAdminRole(role string) bool {
	for _, r := range AdminRoles {
		if r == role {
			return true
		}
	}
	return false
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	Name               string    `json:"name"`
	Surname            string    `json:"surname"`
	Phone              string    `json:"phone"`
	ProfessionalFamily string    `json:"professional_family"`
	Role               string    `json:"role"`
	Center             string    `json:"center,omitempty"`
	Subnet             string    `json:"subnet,omitempty"`
	AcademicYearID     string    `json:"academic_year_id"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"` // UTC
	UpdatedAt          time.Time `json:"updated_at"` // UTC
}

func (u User) IsAdmin() bool {
	return IsAdminRole(u.Role)
}

// Caller returns the identity u acts with.
func (u User) Caller() Caller {
	return Caller{UserID: u.ID, Role: u.Role, AcademicYearID: u.AcademicYearID}
}

// Caller is the already-resolved identity of whoever performs an operation.
// It is supplied by the authentication layer and trusted as given.
type Caller struct {
	UserID         string `json:"user_id"`
	Role           string `json:"role"`
	AcademicYearID string `json:"academic_year_id"`
}

func (c Caller) IsAdmin() bool {
	return IsAdminRole(c.Role)
}

// NewUser contains information needed to create a new User (eg. one row of a users CSV).
type NewUser struct {
	Email              string `json:"email" validate:"required,email"`
	Name               string `json:"name" validate:"required,notblank"`
	Surname            string `json:"surname" validate:"required,notblank"`
	Role               string `json:"role" validate:"required,role"`
	AcademicYearID     string `json:"academic_year_id" validate:"required"`
	Phone              string `json:"phone"`
	ProfessionalFamily string `json:"professional_family"`
	Center             string `json:"center"`
	Subnet             string `json:"subnet"`
	IsActive           bool   `json:"is_active"`
}

func (nu *NewUser) Clean() {
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Name = core.CleanString(nu.Name)
	nu.Surname = core.CleanString(nu.Surname)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	nu.AcademicYearID = core.CleanString(nu.AcademicYearID)
	nu.Phone = core.CleanString(nu.Phone)
	nu.ProfessionalFamily = core.CleanString(nu.ProfessionalFamily)
	nu.Center = core.CleanString(nu.Center)
	nu.Subnet = core.CleanString(nu.Subnet)
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Clean()
	return validate.Struct(nu)
}

// User returns the User described by nu, timestamped at `now`. The ID is set by the Repository.
func (nu NewUser) User(now time.Time) User {
	return User{
		Email:              nu.Email,
		Name:               nu.Name,
		Surname:            nu.Surname,
		Phone:              nu.Phone,
		ProfessionalFamily: nu.ProfessionalFamily,
		Role:               nu.Role,
		Center:             nu.Center,
		Subnet:             nu.Subnet,
		AcademicYearID:     nu.AcademicYearID,
		IsActive:           nu.IsActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

type QueryFilter struct {
	AcademicYearID string `query:"academic_year_id"`
	Role           string `query:"role"`
	IsActive       *bool  `query:"is_active"`
}

func (qf QueryFilter) Matches(u User) bool {
	if qf.AcademicYearID != "" && u.AcademicYearID != qf.AcademicYearID {
		return false
	}
	if qf.Role != "" && u.Role != qf.Role {
		return false
	}
	if qf.IsActive != nil && u.IsActive != *qf.IsActive {
		return false
	}
	return true
}
