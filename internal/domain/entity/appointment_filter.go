package entity

// AppointmentFilter is a domain-level filter for querying appointments.
// Used by repository layer to avoid coupling with delivery DTOs.
type AppointmentFilter struct {
	Status    string // Filter by appointment status
	StartDate string // Format: YYYY-MM-DD, inclusive lower bound on appointment date
	EndDate   string // Format: YYYY-MM-DD, inclusive upper bound on appointment date
}

// StatusCounts aggregates appointment counts per status for one party
type StatusCounts struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Confirmed int64 `json:"confirmed"`
	Rejected  int64 `json:"rejected"`
	Cancelled int64 `json:"cancelled"`
	Completed int64 `json:"completed"`
}
