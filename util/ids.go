package util

import (
	"github.com/rs/xid"
)

// GenCycleID generates an ID for a verify cycle.
// IDs are globally unique and sortable by creation time.
func GenCycleID() string {
	return xid.New().String()
}
