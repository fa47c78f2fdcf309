package model

import "strings"

type Status string

const (
	StatusBooked    Status = "BOOKED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.TrimSpace(raw))
	switch s {
	case StatusBooked, StatusCancelled, StatusCompleted:
		return s, true
	}
	return "", false
}

func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// CanTransitionTo enforces the forward-only lifecycle: BOOKED may move to a
// terminal state, and re-applying the current status is a no-op.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	return s == StatusBooked && next.Terminal()
}

type Role string

const (
	RoleOwner Role = "OWNER"
	RoleStaff Role = "STAFF"
)

func ParseRole(raw string) (Role, bool) {
	switch r := Role(raw); r {
	case RoleOwner, RoleStaff:
		return r, true
	}
	return "", false
}

// Capability names an action a role may be restricted from.
type Capability string

const (
	CapManageServices     Capability = "services:manage"
	CapManageAppointments Capability = "appointments:manage"
	CapViewDashboard      Capability = "dashboard:view"
)

// Allows is the hook for role-based restrictions. Both roles currently hold
// every capability.
func (r Role) Allows(Capability) bool {
	return r == RoleOwner || r == RoleStaff
}
