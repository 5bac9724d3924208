package access

// TerritoryAccess is the resolved view of which territories a user may touch.
// It is recomputed per check and never cached across requests.
type TerritoryAccess struct {
	Unrestricted bool
	Territories  []Territory

	allowed map[Territory]struct{}
}

// Resolve computes territory access for a user. A nil user resolves to
// deny-all. The admin role bypasses territory scoping entirely. A user whose
// territory list is absent is treated as having an empty list, never as an
// error.
func Resolve(u *User) TerritoryAccess {
	if u == nil || !u.IsActive {
		return TerritoryAccess{Territories: []Territory{}}
	}
	if u.Role == RoleAdmin {
		return TerritoryAccess{
			Unrestricted: true,
			Territories:  AllTerritories(),
		}
	}
	territories := make([]Territory, 0, len(u.Territories))
	allowed := make(map[Territory]struct{}, len(u.Territories))
	for _, t := range u.Territories {
		if !t.Valid() {
			continue
		}
		if _, dup := allowed[t]; dup {
			continue
		}
		allowed[t] = struct{}{}
		territories = append(territories, t)
	}
	return TerritoryAccess{Territories: territories, allowed: allowed}
}

// CanAccess reports whether the user may touch records in territory t.
func (a TerritoryAccess) CanAccess(t Territory) bool {
	if a.Unrestricted {
		return true
	}
	_, ok := a.allowed[t]
	return ok
}

// CanAccessAny reports whether at least one of the given territories is
// accessible. An empty requirement list never grants access by itself.
func (a TerritoryAccess) CanAccessAny(territories []Territory) bool {
	if a.Unrestricted {
		return true
	}
	for _, t := range territories {
		if _, ok := a.allowed[t]; ok {
			return true
		}
	}
	return false
}
