package domain

import (
	"regexp"

	dErrors "gatehouse/pkg/domain-errors"
)

// Action is a closed enum of the operations the gate can authorize.
// Invariant: the value must be one of the supported action tags.
//
// Usage: construct via ParseAction at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type Action string

// Supported actions. Instance-scoped actions target a single resource;
// collection-scoped actions apply to a resource type as a whole.
const (
	ActionView           Action = "view"
	ActionViewAny        Action = "view_any"
	ActionCreate         Action = "create"
	ActionUpdate         Action = "update"
	ActionDelete         Action = "delete"
	ActionDeleteAny      Action = "delete_any"
	ActionRestore        Action = "restore"
	ActionRestoreAny     Action = "restore_any"
	ActionForceDelete    Action = "force_delete"
	ActionForceDeleteAny Action = "force_delete_any"
	ActionReplicate      Action = "replicate"
)

// ActionScope distinguishes single-instance actions from collection-wide ones.
type ActionScope string

const (
	ScopeInstance   ActionScope = "instance"
	ScopeCollection ActionScope = "collection"
)

// actionScopes is the single source of truth for valid actions and their scope.
var actionScopes = map[Action]ActionScope{
	ActionView:           ScopeInstance,
	ActionViewAny:        ScopeCollection,
	ActionCreate:         ScopeCollection,
	ActionUpdate:         ScopeInstance,
	ActionDelete:         ScopeInstance,
	ActionDeleteAny:      ScopeCollection,
	ActionRestore:        ScopeInstance,
	ActionRestoreAny:     ScopeCollection,
	ActionForceDelete:    ScopeInstance,
	ActionForceDeleteAny: ScopeCollection,
	ActionReplicate:      ScopeInstance,
}

// destructiveActions are the instance-level actions subject to the
// self-action block: an actor may never destroy a resource they own,
// independent of permission grants.
var destructiveActions = map[Action]bool{
	ActionDelete:      true,
	ActionForceDelete: true,
}

// ParseAction constructs an Action from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseAction(s string) (Action, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "action cannot be empty")
	}
	a := Action(s)
	if !a.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown action")
	}
	return a, nil
}

// IsValid checks if the action is one of the supported enum values.
func (a Action) IsValid() bool {
	_, ok := actionScopes[a]
	return ok
}

// Scope returns whether the action targets a single instance or a collection.
// Unknown actions report ScopeInstance; callers must validate first.
func (a Action) Scope() ActionScope {
	if scope, ok := actionScopes[a]; ok {
		return scope
	}
	return ScopeInstance
}

// Destructive reports whether the action is an instance-level destructive
// operation subject to the self-action block.
func (a Action) Destructive() bool {
	return destructiveActions[a]
}

// Permission derives the permission name an actor must hold to perform this
// action on the given resource type, e.g. delete_any + user = "delete_any_user".
func (a Action) Permission(rt ResourceType) string {
	return string(a) + "_" + string(rt)
}

func (a Action) String() string {
	return string(a)
}

// Actions returns all supported actions. The slice is a copy; callers may
// mutate it freely.
func Actions() []Action {
	return []Action{
		ActionView, ActionViewAny, ActionCreate, ActionUpdate,
		ActionDelete, ActionDeleteAny, ActionRestore, ActionRestoreAny,
		ActionForceDelete, ActionForceDeleteAny, ActionReplicate,
	}
}

// ResourceType tags the kind of entity a decision or audit record concerns,
// e.g. "user", "invoice". Lower snake_case keeps derived permission names and
// audit payloads uniform.
type ResourceType string

var resourceTypePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ParseResourceType constructs a ResourceType from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or not lower
// snake_case.
func ParseResourceType(s string) (ResourceType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "resource type cannot be empty")
	}
	if !resourceTypePattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "resource type must be lower snake_case")
	}
	return ResourceType(s), nil
}

func (rt ResourceType) String() string {
	return string(rt)
}
