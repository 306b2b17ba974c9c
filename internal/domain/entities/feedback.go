package entities

import "time"

// Feedback is a user report correcting or confirming an observed wait.
// Reports are append-only and never read by the prediction path.
type Feedback struct {
	ID             string    `json:"id" db:"id"`
	HospitalID     string    `json:"hospitalId" db:"hospital_id"`
	HospitalName   string    `json:"hospitalName" db:"hospital_name"`
	ReportType     string    `json:"reportType" db:"report_type"`
	ActualWaitTime *int      `json:"actualWaitTime,omitempty" db:"actual_wait_time"`
	Comments       string    `json:"comments,omitempty" db:"comments"`
	ReportedAt     time.Time `json:"reportedAt" db:"reported_at"`
	UserAgent      string    `json:"userAgent,omitempty" db:"user_agent"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// FeedbackStats summarises received reports.
type FeedbackStats struct {
	TotalReports  int `json:"totalReports"`
	RecentReports int `json:"recentReports"`
	ImpactScore   int `json:"impactScore"`
}
