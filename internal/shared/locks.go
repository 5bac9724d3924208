package shared

import "fmt"

// CommissionLockKey builds redis keys guarding per-period commission
// recalculation.
func CommissionLockKey(period string) string {
	return fmt.Sprintf("commissions:period:%s:lock", period)
}
