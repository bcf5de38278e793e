package domain

import "errors"

var (
	// ErrInvalidLeadStatus indicates an unknown lead lifecycle stage
	ErrInvalidLeadStatus = errors.New("invalid lead status")

	// ErrInvalidTeamRole indicates a role outside {admin, member}
	ErrInvalidTeamRole = errors.New("invalid team role")

	// ErrSelfMembership indicates an attempt to add an owner as its own team member
	ErrSelfMembership = errors.New("owner cannot be a team member of their own account")
)
