package users

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/jrsteele09/go-user-admin/internal/utils"
)

var phonePattern = regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)

const phoneMessage = "Invalid phone number format (e.g., +1234567890 or 123-456-7890)"

// Input is the body of POST /users and PUT /users/{id}
type Input struct {
	Name             string   `json:"name"`
	Email            string   `json:"email"`
	Password         string   `json:"password,omitempty"`
	Role             RoleType `json:"role"`
	Age              *int     `json:"age,omitempty"`
	Position         string   `json:"position,omitempty"`
	Department       string   `json:"department,omitempty"`
	Workplace        string   `json:"workplace,omitempty"`
	Salary           *float64 `json:"salary,omitempty"`
	PhoneNumber      string   `json:"phoneNumber,omitempty"`
	Address          string   `json:"address,omitempty"`
	HireDate         string   `json:"hireDate,omitempty"`
	EmergencyContact string   `json:"emergencyContact,omitempty"`
	Skills           []string `json:"skills"`
}

// ValidateCreate checks the input for a new user, a password is mandatory.
func (in Input) ValidateCreate() error {
	return in.validate(true)
}

// ValidateUpdate checks the input for an existing user, the password may be left out.
func (in Input) ValidateUpdate() error {
	return in.validate(false)
}

func (in Input) validate(creating bool) error {
	passwordRules := []validation.Rule{
		validation.Length(6, 0).Error("Password must be at least 6 characters"),
	}
	if creating {
		passwordRules = append([]validation.Rule{validation.Required.Error("Please enter password")}, passwordRules...)
	}

	return validation.ValidateStruct(&in,
		validation.Field(&in.Name,
			validation.Required.Error("Please enter full name"),
			validation.Length(2, 0).Error("Name must be at least 2 characters"),
		),
		validation.Field(&in.Email,
			validation.Required.Error("Please enter email"),
			is.Email.Error("Please enter valid email"),
		),
		validation.Field(&in.Password, passwordRules...),
		validation.Field(&in.Role, validation.Required.Error("Please select role")),
		validation.Field(&in.Age,
			validation.Min(18).Error("Age must be between 18-100"),
			validation.Max(100).Error("Age must be between 18-100"),
		),
		validation.Field(&in.Salary, validation.Min(0.0).Error("Salary must not be negative")),
		validation.Field(&in.PhoneNumber, validation.Match(phonePattern).Error(phoneMessage)),
		validation.Field(&in.EmergencyContact, validation.Match(phonePattern).Error(phoneMessage)),
		validation.Field(&in.HireDate, validation.Date("2006-01-02").Error("Hire date must be YYYY-MM-DD")),
	)
}

// FromUser pre-fills an update from an existing record.
func FromUser(u User) Input {
	return Input{
		Name:             u.Name,
		Email:            u.Email,
		Role:             u.Role,
		Position:         u.Position,
		Department:       u.Department,
		Workplace:        u.Workplace,
		PhoneNumber:      u.PhoneNumber,
		Address:          u.Address,
		HireDate:         u.HireDate,
		EmergencyContact: u.EmergencyContact,
		Skills:           append([]string{}, u.Skills...),
		Age:              utils.NonZeroPtr(u.Age),
		Salary:           utils.NonZeroPtr(u.Salary),
	}
}
