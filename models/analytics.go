package models

// CategoryStat is the number of issues filed under one category
type CategoryStat struct {
	Category Category `json:"category" bson:"_id"`
	Count    int64    `json:"count" bson:"count"`
}

// DashboardStats is the admin analytics snapshot
type DashboardStats struct {
	TotalIssues       int64          `json:"totalIssues"`
	ResolvedIssues    int64          `json:"resolvedIssues"`
	PendingIssues     int64          `json:"pendingIssues"`
	CategoryStats     []CategoryStat `json:"categoryStats"`
	AvgResolutionTime string         `json:"avgResolutionTime"`
}
