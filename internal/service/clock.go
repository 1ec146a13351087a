package service

import (
	"time"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/storage"
)

// Clock supplies the current instant. Production passes time.Now.
type Clock func() time.Time

// businessDate is the calendar date of now in loc, formatted for storage.
func businessDate(now time.Time, loc *time.Location) string {
	return now.In(loc).Format(storage.DateLayout)
}
