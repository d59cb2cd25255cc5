package domain

// StatusCategory groups statuses for list filters and badges.
type StatusCategory string

const (
	StatusCategoryPending   StatusCategory = "pending"
	StatusCategoryActive    StatusCategory = "active"
	StatusCategoryAttention StatusCategory = "attention"
	StatusCategoryClosed    StatusCategory = "closed"
)

// StatusInfo is the display metadata for a rental status.
type StatusInfo struct {
	Status   RentalStatus   `json:"status"`
	Label    string         `json:"label"`
	Color    string         `json:"color"`
	Category StatusCategory `json:"category"`
	Terminal bool           `json:"terminal"`
}

// statusCatalog is the single source of status metadata. Read-only
// projections (admin tables, badges, filters) consume it instead of keeping
// their own lists.
var statusCatalog = map[RentalStatus]StatusInfo{
	RentalStatusRequested:       {RentalStatusRequested, "Requested", "gray", StatusCategoryPending, false},
	RentalStatusPaid:            {RentalStatusPaid, "Paid", "blue", StatusCategoryPending, false},
	RentalStatusAccepted:        {RentalStatusAccepted, "Accepted", "indigo", StatusCategoryActive, false},
	RentalStatusRejected:        {RentalStatusRejected, "Rejected", "red", StatusCategoryClosed, true},
	RentalStatusShipped:         {RentalStatusShipped, "Shipped", "purple", StatusCategoryActive, false},
	RentalStatusDelivered:       {RentalStatusDelivered, "Delivered", "teal", StatusCategoryActive, false},
	RentalStatusInUse:           {RentalStatusInUse, "In Use", "green", StatusCategoryActive, false},
	RentalStatusReturnShipped:   {RentalStatusReturnShipped, "Return Shipped", "purple", StatusCategoryActive, false},
	RentalStatusReturnDelivered: {RentalStatusReturnDelivered, "Return Delivered", "teal", StatusCategoryActive, false},
	RentalStatusCompleted:       {RentalStatusCompleted, "Completed", "green", StatusCategoryClosed, true},
	RentalStatusCancelled:       {RentalStatusCancelled, "Cancelled", "gray", StatusCategoryClosed, true},
	RentalStatusDisputed:        {RentalStatusDisputed, "Disputed", "orange", StatusCategoryAttention, false},
}

// StatusInfoFor returns the catalog entry for s.
func StatusInfoFor(s RentalStatus) (StatusInfo, bool) {
	info, ok := statusCatalog[s]
	return info, ok
}

// StatusCatalog returns every entry in lifecycle order.
func StatusCatalog() []StatusInfo {
	out := make([]StatusInfo, 0, len(AllRentalStatuses))
	for _, s := range AllRentalStatuses {
		out = append(out, statusCatalog[s])
	}
	return out
}

// StatusesInCategory returns the statuses belonging to c, in lifecycle order.
func StatusesInCategory(c StatusCategory) []RentalStatus {
	var out []RentalStatus
	for _, s := range AllRentalStatuses {
		if statusCatalog[s].Category == c {
			out = append(out, s)
		}
	}
	return out
}
