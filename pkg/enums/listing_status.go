package enums

import "fmt"

// ListingStatus tracks the lifecycle of a sellable card listing.
// The mixed-case values mirror the column values the storefront renders.
type ListingStatus string

const (
	ListingStatusDraft            ListingStatus = "Draft"
	ListingStatusActive           ListingStatus = "Active"
	ListingStatusDisplay          ListingStatus = "Display"
	ListingStatusAwaitingShipment ListingStatus = "AwaitingShipment"
	ListingStatusShipped          ListingStatus = "Shipped"
	ListingStatusCompleted        ListingStatus = "Completed"
	ListingStatusArchive          ListingStatus = "Archive"
)

var validListingStatuses = []ListingStatus{
	ListingStatusDraft,
	ListingStatusActive,
	ListingStatusDisplay,
	ListingStatusAwaitingShipment,
	ListingStatusShipped,
	ListingStatusCompleted,
	ListingStatusArchive,
}

// String implements fmt.Stringer.
func (l ListingStatus) String() string {
	return string(l)
}

// IsValid reports whether the value is a known ListingStatus.
func (l ListingStatus) IsValid() bool {
	for _, candidate := range validListingStatuses {
		if candidate == l {
			return true
		}
	}
	return false
}

// IsPurchasable reports whether a buyer may open a checkout for the listing.
func (l ListingStatus) IsPurchasable() bool {
	return l == ListingStatusActive
}

// ParseListingStatus converts raw input into a ListingStatus.
func ParseListingStatus(value string) (ListingStatus, error) {
	for _, candidate := range validListingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid listing status %q", value)
}
