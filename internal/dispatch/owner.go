package dispatch

import (
	"fmt"
	"strconv"

	"freight-dispatch/internal/tms"
)

// OwnerFilter restricts dispatch to shipments whose account owner appears on
// an allow-list. Both lists empty means every shipment is allowed.
type OwnerFilter struct {
	Names []string
	IDs   []string
}

func (f OwnerFilter) Enabled() bool {
	return len(f.Names) > 0 || len(f.IDs) > 0
}

// Allow locates the first non-deleted customer order's owner and matches it
// against either list. The returned detail is for logs only.
func (f OwnerFilter) Allow(s tms.Shipment) (bool, string) {
	if !f.Enabled() {
		return true, "all owners allowed"
	}

	for _, co := range s.CustomerOrder {
		if co.Deleted {
			continue
		}
		owner := co.Customer.Owner
		ownerID := strconv.FormatInt(owner.ID, 10)

		for _, name := range f.Names {
			if owner.Name == name {
				return true, owner.Name
			}
		}
		for _, id := range f.IDs {
			if ownerID == id {
				return true, fmt.Sprintf("%s (ID: %s)", owner.Name, ownerID)
			}
		}
		return false, fmt.Sprintf("%s (ID: %s)", owner.Name, ownerID)
	}

	return false, "no owner"
}
