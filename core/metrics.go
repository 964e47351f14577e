package core

// Metrics records application level counters.
type Metrics interface {
	AttendanceMarked(status string)
	// DashboardCacheLookup records a dashboard cache hit or miss.
	DashboardCacheLookup(hit bool)
	AlertSent(kind string)
}
