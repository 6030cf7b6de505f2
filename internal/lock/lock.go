// Package lock serialises work on a key, either inside one process or across
// instances through Redis.
package lock

import (
	"errors"
	"fmt"
)

// ErrNotAcquired means the context ended before the lock became free.
var ErrNotAcquired = errors.New("lock not acquired")

// Unlock releases a held lock. It is safe to call more than once.
type Unlock = func()

// Key names the lock guarding the seats of one route on one journey date.
func Key(routeID int64, journeyDate string) string {
	return fmt.Sprintf("route_lock:%d:%s", routeID, journeyDate)
}
