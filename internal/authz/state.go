package authz

// State is a stage of the per-request authorization pipeline.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
	StateSchemaBound
	StatePermissionChecked
	StateOwnershipChecked
	StateAllowed
	StateDenied
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateSchemaBound:
		return "schema_bound"
	case StatePermissionChecked:
		return "permission_checked"
	case StateOwnershipChecked:
		return "ownership_checked"
	case StateAllowed:
		return "allowed"
	case StateDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Outcome labels recorded per decision.
const (
	OutcomeAllowed = "allowed"
	OutcomeDenied  = "denied"
	OutcomeError   = "error"
)

// stagePublic labels requests that bypass authentication.
const stagePublic = "public"
