package access

import (
	"context"
	"time"
)

// Reason codes for denied access decisions.
type Reason string

const (
	ReasonNoUser           Reason = "NO_USER"
	ReasonInvalidRole      Reason = "INVALID_ROLE"
	ReasonInvalidTerritory Reason = "INVALID_TERRITORY"
)

// Decision is the result of a route access check. Denials are ordinary
// values, never errors.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// RouteDescriptor is the static access configuration for one route. Declared
// once at startup and never mutated.
type RouteDescriptor struct {
	Path        string
	Roles       []Role
	Territories []Territory

	// AllowAuthenticated bypasses role and territory checks for any
	// authenticated user. This is the central declaration for the
	// profile/notifications style routes; it must not be replicated as
	// ad-hoc path lists at call sites.
	AllowAuthenticated bool
}

// Evaluate runs the access check in strict order, short-circuiting on the
// first failure: missing user, then role, then territory. The territory
// requirement is an any-of match. Pure function; reporting is the Validator's
// concern.
func Evaluate(u *User, route RouteDescriptor) Decision {
	if u == nil || !u.IsActive {
		return Decision{Reason: ReasonNoUser}
	}
	if route.AllowAuthenticated {
		return Decision{Allowed: true}
	}
	if len(route.Roles) > 0 && !containsRole(route.Roles, u.Role) {
		return Decision{Reason: ReasonInvalidRole}
	}
	if len(route.Territories) > 0 && !Resolve(u).CanAccessAny(route.Territories) {
		return Decision{Reason: ReasonInvalidTerritory}
	}
	return Decision{Allowed: true}
}

// DecisionEvent is the structured record handed to the security sink for
// every evaluated check.
type DecisionEvent struct {
	Allowed             bool
	Reason              Reason
	UserID              int64
	UserEmail           string
	UserRole            Role
	UserTerritories     []Territory
	Path                string
	RequiredRoles       []Role
	RequiredTerritories []Territory
	At                  time.Time
}

// DecisionReporter receives access decisions for security observability.
type DecisionReporter interface {
	ReportDecision(ctx context.Context, event DecisionEvent)
}

// Validator evaluates route access and reports every decision.
type Validator struct {
	reporter DecisionReporter
	now      func() time.Time
}

// NewValidator constructs a Validator. A nil reporter disables reporting.
func NewValidator(reporter DecisionReporter) *Validator {
	return &Validator{reporter: reporter, now: time.Now}
}

// Validate evaluates the route check for the user and reports the outcome.
func (v *Validator) Validate(ctx context.Context, u *User, route RouteDescriptor) Decision {
	decision := Evaluate(u, route)
	if v.reporter != nil {
		event := DecisionEvent{
			Allowed:             decision.Allowed,
			Reason:              decision.Reason,
			Path:                route.Path,
			RequiredRoles:       route.Roles,
			RequiredTerritories: route.Territories,
			At:                  v.now().UTC(),
		}
		if u != nil {
			event.UserID = u.ID
			event.UserEmail = u.Email
			event.UserRole = u.Role
			event.UserTerritories = u.Territories
		}
		v.reporter.ReportDecision(ctx, event)
	}
	return decision
}

func containsRole(roles []Role, r Role) bool {
	for _, candidate := range roles {
		if candidate == r {
			return true
		}
	}
	return false
}
