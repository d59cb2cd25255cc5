package lifecycle

import (
	"time"

	"closet-rental-backend/internal/utils"
)

// DatesToBlock lists the date keys a booking occupies: start through end,
// plus one buffer day after end for cleaning and transit. Blocking on
// confirmation and unblocking on cancellation both use this span.
func DatesToBlock(start, end time.Time, loc *time.Location) []string {
	if loc == nil {
		loc = time.UTC
	}
	buffer := utils.DateOf(end, loc).AddDays(1).Midnight(loc)
	return utils.DateKeysInclusive(start, buffer, loc)
}
