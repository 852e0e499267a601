package domain

// ServiceStatus is the observed health of a service.
type ServiceStatus string

const (
	StatusOnline      ServiceStatus = "Online"
	StatusOffline     ServiceStatus = "Offline"
	StatusDegraded    ServiceStatus = "Degraded"
	StatusMaintenance ServiceStatus = "Maintenance"
	StatusUnknown     ServiceStatus = "Unknown"
)

// ServiceStatuses lists every known status in display order.
var ServiceStatuses = []ServiceStatus{
	StatusOnline, StatusOffline, StatusDegraded, StatusMaintenance, StatusUnknown,
}

// PolledStatuses are the statuses a status re-check can draw.
// Unknown is never produced by a check, only by operators.
var PolledStatuses = []ServiceStatus{
	StatusOnline, StatusOffline, StatusDegraded, StatusMaintenance,
}

// Valid reports whether s is one of the known statuses.
func (s ServiceStatus) Valid() bool {
	for _, known := range ServiceStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// SeverityFor maps a freshly observed status to the severity of the
// status_change event recorded for it.
func SeverityFor(s ServiceStatus) Severity {
	switch s {
	case StatusOffline:
		return SeverityHigh
	case StatusDegraded:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// CountByStatus tallies services per status.
func CountByStatus(services []Service) map[ServiceStatus]int {
	counts := make(map[ServiceStatus]int, len(ServiceStatuses))
	for _, s := range services {
		counts[s.Status]++
	}
	return counts
}
