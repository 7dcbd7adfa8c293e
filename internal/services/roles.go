package services

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownRole is returned when no user is mapped for an assignee role.
var ErrUnknownRole = errors.New("no user mapped for role")

// RoleResolver maps a workflow step's assignee role to a concrete user. The
// mapping is owned by the surrounding portal; the engine only consumes it.
type RoleResolver interface {
	// ResolveAssignee returns the user id responsible for the given role.
	ResolveAssignee(ctx context.Context, role string) (string, error)
}

// StaticRoleResolver resolves roles from a fixed map, typically loaded from
// configuration.
type StaticRoleResolver struct {
	byRole map[string]string
}

// NewStaticRoleResolver creates a StaticRoleResolver over the given mapping.
func NewStaticRoleResolver(byRole map[string]string) *StaticRoleResolver {
	return &StaticRoleResolver{byRole: byRole}
}

// ResolveAssignee returns the user mapped for role. An empty role resolves to
// an unassigned task.
func (r *StaticRoleResolver) ResolveAssignee(_ context.Context, role string) (string, error) {
	if role == "" {
		return "", nil
	}
	user, ok := r.byRole[role]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	return user, nil
}
