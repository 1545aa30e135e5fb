package merge

// Package roles within a merge session.
const (
	RoleBase       = "BASE"
	RoleCustomized = "CUSTOMIZED"
	RoleNewVendor  = "NEW_VENDOR"
)

// Merge session lifecycle. Transitions are monotonic: once READY or ERROR a
// session never changes status again.
const (
	SessionStatusProcessing = "PROCESSING"
	SessionStatusReady      = "READY"
	SessionStatusError      = "ERROR"
)

// Delta change categories (per object, per comparison axis).
const (
	CategoryNew        = "NEW"
	CategoryModified   = "MODIFIED"
	CategoryDeprecated = "DEPRECATED"
)

// Delta change types (presentation-facing counterpart of the category).
const (
	ChangeTypeAdded    = "ADDED"
	ChangeTypeModified = "MODIFIED"
	ChangeTypeRemoved  = "REMOVED"
)

// Comparison axes.
const (
	AxisVendor   = "vendor"   // Base -> NewVendor
	AxisCustomer = "customer" // Base -> Customized
)

// Classifications produced by the decision table.
const (
	ClassificationNoConflict = "NO_CONFLICT"
	ClassificationConflict   = "CONFLICT"
	ClassificationNew        = "NEW"
	ClassificationDeleted    = "DELETED"
)

// Review states for a change in the working set.
const (
	ReviewStatusPending  = "pending"
	ReviewStatusReviewed = "reviewed"
	ReviewStatusSkipped  = "skipped"
)
