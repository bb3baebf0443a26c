package catalog

import "github.com/gofrs/uuid"

// Availability says which services may order an item. It is computed once
// from the item's assignment rows so that "no rows means everyone" lives in
// exactly one place.
type Availability struct {
	restricted bool
	services   map[uuid.UUID]struct{}
}

// Unrestricted is the availability of an item with no assignment rows.
var Unrestricted = Availability{}

// RestrictedTo builds an availability limited to the given services.
func RestrictedTo(serviceIDs []uuid.UUID) Availability {
	set := make(map[uuid.UUID]struct{}, len(serviceIDs))
	for _, id := range serviceIDs {
		set[id] = struct{}{}
	}
	return Availability{restricted: true, services: set}
}

// AvailabilityOf derives an item's availability from its assignment rows.
func AvailabilityOf(item Item) Availability {
	if len(item.AssignedServices) == 0 {
		return Unrestricted
	}
	return RestrictedTo(item.AssignedServices)
}

// Allows reports whether the given service may order the item.
func (a Availability) Allows(serviceID uuid.UUID) bool {
	if !a.restricted {
		return true
	}
	_, ok := a.services[serviceID]
	return ok
}

// Restricted reports whether the availability names an explicit service set.
func (a Availability) Restricted() bool {
	return a.restricted
}
