package domain

// Staff is a driver or field worker. HomeLat/HomeLng are optional stored home
// coordinates; when absent the home branch of pickup/drop planning is skipped.
type Staff struct {
	ID       int64
	Name     string
	IsDriver bool
	HomeLat  *float64
	HomeLng  *float64
}
