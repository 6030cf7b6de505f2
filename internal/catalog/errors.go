package catalog

import "errors"

var (
	ErrRouteNotFound  = errors.New("route not found")
	ErrCityNotFound   = errors.New("city not found")
	ErrDuplicateRoute = errors.New("a route with the same cities and mode already exists")
	ErrDuplicateCity  = errors.New("city already exists")
	ErrRouteInUse     = errors.New("route has bookings")
	ErrSeatsBelowSold = errors.New("available seats below seats already sold")
	ErrInvalidRoute   = errors.New("invalid route")
)
