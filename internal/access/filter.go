package access

// Scoped is implemented by domain records that optionally carry a territory
// tag. The second return value reports whether the record is tagged at all;
// untagged records are visible to every authenticated user.
type Scoped interface {
	TerritoryTag() (Territory, bool)
}

// FilterVisible returns the subset of records the user may see, preserving
// input order. The input slice is never mutated; the result is always a new
// slice. For an unrestricted user the result equals the input.
func FilterVisible[T Scoped](records []T, u *User) []T {
	out := make([]T, 0, len(records))
	ta := Resolve(u)
	if ta.Unrestricted {
		return append(out, records...)
	}
	for _, rec := range records {
		tag, tagged := rec.TerritoryTag()
		if !tagged || ta.CanAccess(tag) {
			out = append(out, rec)
		}
	}
	return out
}
