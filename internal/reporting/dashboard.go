package reporting

import (
	"sort"

	"github.com/streetburger/issuedesk/internal/domain"
)

// RecentLimit is the size of the dashboard's recent activity list.
const RecentLimit = 5

// DashboardStats summarizes the issues in the caller's scope.
type DashboardStats struct {
	Total      int
	ByStatus   map[domain.IssueStatus]int
	ByPriority map[domain.IssuePriority]int
	Critical   int
	Recent     []domain.Issue
}

// Dashboard counts issues by status and priority. Every bucket is present,
// including zero counts.
func Dashboard(issues []domain.Issue) DashboardStats {
	stats := DashboardStats{
		Total:      len(issues),
		ByStatus:   make(map[domain.IssueStatus]int, len(domain.IssueStatuses)),
		ByPriority: make(map[domain.IssuePriority]int, len(domain.IssuePriorities)),
	}
	for _, status := range domain.IssueStatuses {
		stats.ByStatus[status] = 0
	}
	for _, priority := range domain.IssuePriorities {
		stats.ByPriority[priority] = 0
	}
	for _, issue := range issues {
		stats.ByStatus[issue.Status]++
		stats.ByPriority[issue.Priority]++
	}
	stats.Critical = stats.ByPriority[domain.IssuePriorityCritical]

	recent := append([]domain.Issue{}, issues...)
	sort.SliceStable(recent, func(a, b int) bool {
		return recent[a].UpdatedAt.After(recent[b].UpdatedAt)
	})
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}
	stats.Recent = recent
	return stats
}
