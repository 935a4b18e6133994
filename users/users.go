package users

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// RoleType is the role the backend assigns to a user record
type RoleType string

const (
	RoleAdmin      RoleType = "admin"
	RoleManager    RoleType = "manager"
	RoleSupervisor RoleType = "supervisor"
	RoleUser       RoleType = "user"
	RoleEmployee   RoleType = "employee"
)

// ID accepts both JSON strings and JSON numbers, the backend is not consistent.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// User is the backend's user record. The client stores it and hands it back, nothing more.
type User struct {
	ID               ID       `json:"id,omitempty"`
	Name             string   `json:"name,omitempty"`
	Email            string   `json:"email,omitempty"`
	Role             RoleType `json:"role,omitempty"`
	Age              int      `json:"age,omitempty"`
	Position         string   `json:"position,omitempty"`
	Department       string   `json:"department,omitempty"`
	Workplace        string   `json:"workplace,omitempty"`
	Salary           float64  `json:"salary,omitempty"`
	PhoneNumber      string   `json:"phoneNumber,omitempty"`
	Address          string   `json:"address,omitempty"`
	HireDate         string   `json:"hireDate,omitempty"` // YYYY-MM-DD
	EmergencyContact string   `json:"emergencyContact,omitempty"`
	Skills           []string `json:"skills,omitempty"`
	IsActive         bool     `json:"isActive,omitempty"`
	CreatedAt        string   `json:"createdAt,omitempty"`
	UpdatedAt        string   `json:"updatedAt,omitempty"`

	// Extra holds members this type does not model, such as _id. They are written back
	// unchanged when the user is marshalled.
	Extra map[string]json.RawMessage `json:"-"`
}

type plainUser User

var userMembers = map[string]bool{
	"id": true, "name": true, "email": true, "role": true, "age": true, "position": true,
	"department": true, "workplace": true, "salary": true, "phoneNumber": true, "address": true,
	"hireDate": true, "emergencyContact": true, "skills": true, "isActive": true,
	"createdAt": true, "updatedAt": true,
}

func (u *User) UnmarshalJSON(b []byte) error {
	if err := json.Unmarshal(b, (*plainUser)(u)); err != nil {
		return err
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(b, &members); err != nil {
		return err
	}
	u.Extra = nil
	for name, raw := range members {
		if userMembers[name] {
			continue
		}
		if u.Extra == nil {
			u.Extra = make(map[string]json.RawMessage)
		}
		u.Extra[name] = raw
	}
	return nil
}

func (u User) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(plainUser(u))
	if err != nil || len(u.Extra) == 0 {
		return data, err
	}
	members := make(map[string]json.RawMessage, len(u.Extra)+len(userMembers))
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, err
	}
	for name, raw := range u.Extra {
		if _, ok := members[name]; !ok && !userMembers[name] {
			members[name] = raw
		}
	}
	return json.Marshal(members)
}

// Credentials is the POST /login body
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the data returned by a successful login
type LoginResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages,omitempty"`
}

// Page is one page of GET /users
type Page struct {
	Users      []User     `json:"users"`
	Pagination Pagination `json:"pagination"`
}

// Stats is GET /users/stats/overview
type Stats struct {
	TotalUsers    int     `json:"totalUsers"`
	AverageAge    float64 `json:"averageAge"`
	AverageSalary float64 `json:"averageSalary"`
	Departments   int     `json:"departments"`
}

// Metadata holds the enumerations the user form offers
type Metadata struct {
	Roles       []string `json:"roles"`
	Positions   []string `json:"positions"`
	Departments []string `json:"departments,omitempty"`
}

// SplitSkills turns "go, sql,, k8s" into ["go", "sql", "k8s"].
func SplitSkills(s string) []string {
	skills := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			skills = append(skills, part)
		}
	}
	return skills
}
