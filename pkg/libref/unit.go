// SPDX-License-Identifier: MPL-2.0

package libref

type (
	// Handle is an opaque loaded code unit. The loader that created it owns
	// its internals; callers use it for export discovery and registration.
	Handle interface {
		// Name is the unit's short name (usually the file or resource leaf name).
		Name() string
		// Origin is where the unit was loaded from: a filesystem path or a
		// packed locator.
		Origin() string
	}

	// ResolvedUnit is one successfully loaded code unit.
	ResolvedUnit struct {
		// Handle is the loaded unit.
		Handle Handle
		// ExplicitExports is copied from the reference that loaded the unit.
		ExplicitExports bool
		// Locator is the reference locator that produced the unit directly
		// (for units inside a manifest, the nested reference's locator).
		Locator Locator
	}
)

// NewUnit wraps a loaded handle with the flags of the reference that loaded it.
func NewUnit(ref Reference, h Handle) ResolvedUnit {
	return ResolvedUnit{
		Handle:          h,
		ExplicitExports: ref.ExplicitExports(),
		Locator:         ref.Locator(),
	}
}

// Name returns the handle's name, or "" for a unit without a handle.
func (u ResolvedUnit) Name() string {
	if u.Handle == nil {
		return ""
	}
	return u.Handle.Name()
}

// Origin returns the handle's origin, or "" for a unit without a handle.
func (u ResolvedUnit) Origin() string {
	if u.Handle == nil {
		return ""
	}
	return u.Handle.Origin()
}
