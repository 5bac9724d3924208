package access

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	// ScopeQueryKey is the query parameter carrying the territory scope.
	ScopeQueryKey = "territories"
	// ScopeHeaderKey is the header carrying the territory scope on
	// service-to-service requests.
	ScopeHeaderKey = "X-Compass-Territories"
)

// Scope is the territory restriction applied to outgoing queries and to
// repository reads on behalf of a user. An unrestricted scope applies no
// filter at all; a restricted scope with zero territories matches nothing.
type Scope struct {
	unrestricted bool
	territories  []Territory
}

// ScopeFor derives the request scope from a user.
func ScopeFor(u *User) Scope {
	ta := Resolve(u)
	if ta.Unrestricted {
		return Scope{unrestricted: true}
	}
	return Scope{territories: ta.Territories}
}

// Restricted reports whether the scope constrains visibility.
func (s Scope) Restricted() bool {
	return !s.unrestricted
}

// Territories returns the scoped territory set. Empty for unrestricted scopes
// and for restricted users with no assignments.
func (s Scope) Territories() []Territory {
	out := make([]Territory, len(s.territories))
	copy(out, s.territories)
	return out
}

// Param returns the comma-joined scope value and whether the key must be
// emitted. A restricted scope with no territories still emits the key with an
// empty value: absence of the key must never be read as "no restriction"
// downstream.
func (s Scope) Param() (string, bool) {
	if s.unrestricted {
		return "", false
	}
	parts := make([]string, len(s.territories))
	for i, t := range s.territories {
		parts[i] = string(t)
	}
	return strings.Join(parts, ","), true
}

// ApplyQuery returns a copy of q with the scope applied. The injected value
// overwrites any caller-supplied value under the scope key, so a caller can
// never widen its own access by passing a conflicting filter.
func (s Scope) ApplyQuery(q url.Values) url.Values {
	out := make(url.Values, len(q)+1)
	for k, vs := range q {
		out[k] = append([]string(nil), vs...)
	}
	if value, emit := s.Param(); emit {
		out.Set(ScopeQueryKey, value)
	} else {
		out.Del(ScopeQueryKey)
	}
	return out
}

// ApplyHeader sets the scope header on h, overwriting any existing value.
func (s Scope) ApplyHeader(h http.Header) {
	if value, emit := s.Param(); emit {
		h.Set(ScopeHeaderKey, value)
		return
	}
	h.Del(ScopeHeaderKey)
}

// Condition renders the scope as a SQL predicate over the given column, with
// the placeholder numbered from argIndex. Unrestricted scopes yield no
// predicate; restricted empty scopes yield a predicate that matches nothing.
// Rows with a NULL territory are territory-agnostic and stay visible.
func (s Scope) Condition(column string, argIndex int) (string, []any) {
	if s.unrestricted {
		return "", nil
	}
	if len(s.territories) == 0 {
		return "FALSE", nil
	}
	values := make([]string, len(s.territories))
	for i, t := range s.territories {
		values[i] = string(t)
	}
	clause := "(" + column + " IS NULL OR " + column + " = ANY($" + strconv.Itoa(argIndex) + "))"
	return clause, []any{values}
}
