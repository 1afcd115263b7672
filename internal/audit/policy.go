package audit

import (
	domainerrors "gatehouse/pkg/domain-errors"
	strutil "gatehouse/pkg/platform/strings"
)

// Policy declares how mutations of one resource type are logged: which
// fields are eligible, whether clean fields are kept, and whether an empty
// change set still produces an event.
type Policy struct {
	ResourceType string
	AllowList    AllowList

	// OnlyDirty retains only fields whose values actually changed.
	OnlyDirty bool

	// SuppressEmpty drops the event entirely when the filtered change set
	// is empty. When false an empty change set is still recorded, which
	// keeps an explicit trail of "update ran but touched nothing".
	SuppressEmpty bool
}

// NewPolicy builds a Policy with the default behavior: dirty fields only,
// suppress no-op updates. The allow-list is deduplicated and trimmed while
// preserving first-occurrence order.
func NewPolicy(resourceType string, allowList []string) Policy {
	return Policy{
		ResourceType:  resourceType,
		AllowList:     strutil.DedupeAndTrim(allowList),
		OnlyDirty:     true,
		SuppressEmpty: true,
	}
}

// Apply diffs two snapshots under this policy. The boolean reports whether
// the change should be recorded; false means the update was a no-op under
// SuppressEmpty and no event should be written.
func (p Policy) Apply(before, after Snapshot) (ChangeSet, bool) {
	changes := FilterChanges(before, after, p.AllowList, FilterOptions{OnlyDirty: p.OnlyDirty})
	if p.SuppressEmpty && changes.Empty() {
		return nil, false
	}
	return changes, true
}

// PolicyRegistry holds the per-resource-type logging policies. It is built
// once at startup and read-only afterwards, so no locking.
type PolicyRegistry struct {
	policies map[string]Policy
}

// NewPolicyRegistry creates an empty registry.
func NewPolicyRegistry() *PolicyRegistry {
	return &PolicyRegistry{policies: make(map[string]Policy)}
}

// Register adds a policy, keyed by resource type. Registering the same
// resource type twice is a wiring bug.
func (r *PolicyRegistry) Register(p Policy) error {
	if p.ResourceType == "" {
		return domainerrors.New(domainerrors.CodeInvalidInput, "policy resource type is required")
	}
	if len(p.AllowList) == 0 {
		return domainerrors.New(domainerrors.CodeInvalidInput, "policy allow-list is empty")
	}
	if _, exists := r.policies[p.ResourceType]; exists {
		return domainerrors.New(domainerrors.CodeConflict, "policy already registered for resource type "+p.ResourceType)
	}
	r.policies[p.ResourceType] = p
	return nil
}

// Lookup returns the policy for a resource type.
func (r *PolicyRegistry) Lookup(resourceType string) (Policy, bool) {
	p, ok := r.policies[resourceType]
	return p, ok
}
