package club

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is a club membership role. Values are totally ordered:
// RoleMember < RoleModerator < RoleOwner.
type Role int

const (
	RoleUnspecified Role = iota
	RoleMember
	RoleModerator
	RoleOwner
)

var roleNames = map[Role]string{
	RoleMember:    "MEMBER",
	RoleModerator: "MODERATOR",
	RoleOwner:     "OWNER",
}

// AtLeast reports whether r ranks at or above min.
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && r >= min
}

// Valid reports whether r is one of the three assignable roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "UNSPECIFIED"
}

// ParseRole accepts role names case-insensitively.
func ParseRole(s string) (Role, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for role, name := range roleNames {
		if name == want {
			return role, nil
		}
	}
	return RoleUnspecified, fmt.Errorf("unknown role %q", s)
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ItemStatus is the state of a reading item: Upcoming -> Active -> Completed.
type ItemStatus int

const (
	StatusUnspecified ItemStatus = iota
	StatusUpcoming
	StatusActive
	StatusCompleted
)

var statusNames = map[ItemStatus]string{
	StatusUpcoming:  "UPCOMING",
	StatusActive:    "ACTIVE",
	StatusCompleted: "COMPLETED",
}

func (s ItemStatus) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s ItemStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "UNSPECIFIED"
}

// ParseItemStatus accepts status names case-insensitively.
func ParseItemStatus(s string) (ItemStatus, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for status, name := range statusNames {
		if name == want {
			return status, nil
		}
	}
	return StatusUnspecified, fmt.Errorf("unknown item status %q", s)
}

func (s ItemStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *ItemStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseItemStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
