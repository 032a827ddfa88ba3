package domain

// Category classifies a pipe by the magnitude of its aggregated flow.
type Category string

const (
	CategoryService Category = "SERVICE"
	CategoryStreet  Category = "STREET"
	CategoryArea    Category = "AREA"
	CategoryMain    Category = "MAIN"
	CategoryPrimary Category = "PRIMARY"
)

// JunctionRole marks what a junction connects.
type JunctionRole string

const (
	RolePlant    JunctionRole = "PLANT"
	RoleBuilding JunctionRole = "BUILDING"
	RoleBranch   JunctionRole = "BRANCH"
)

type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// severityRank orders severities for threshold comparisons.
var severityRank = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// AtLeast reports whether s is at or above the given threshold.
func (s Severity) AtLeast(threshold Severity) bool {
	return severityRank[s] >= severityRank[threshold]
}

// DesignHourMethod selects how the design demand is extracted from a series.
type DesignHourMethod string

const (
	MethodPeakHour      DesignHourMethod = "peak_hour"
	MethodTopNHours     DesignHourMethod = "top_n_hours_average"
	MethodFullLoadHours DesignHourMethod = "full_load_hours_equivalent"
)

// RunStatus constants
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)
