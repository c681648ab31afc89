package bookings

import (
	"fmt"
	"time"
)

// invoiceNumber derives an INV-<year>-<suffix> identifier from a fine
// grained timestamp. Collisions under the unique index are possible and
// surface as a retryable conflict, so callers retry with a fresh clock
// reading.
func invoiceNumber(now time.Time) string {
	suffix := now.UnixNano() / int64(time.Microsecond) % 1_000_000
	return fmt.Sprintf("INV-%d-%06d", now.Year(), suffix)
}
