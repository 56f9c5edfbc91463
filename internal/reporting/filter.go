package reporting

import (
	"strings"
	"time"

	"github.com/streetburger/issuedesk/internal/domain"
	"github.com/streetburger/issuedesk/internal/policy"
)

// Wildcard matches every value of a facet.
const Wildcard = "ALL"

// View narrows the scope to the caller's own work.
type View string

const (
	ViewAll      View = "ALL"
	ViewAssigned View = "ASSIGNED"
	ViewReported View = "REPORTED"
)

// ParseView reads a view name, defaulting to ViewAll.
func ParseView(raw string) View {
	switch View(strings.ToUpper(strings.TrimSpace(raw))) {
	case ViewAssigned:
		return ViewAssigned
	case ViewReported:
		return ViewReported
	}
	return ViewAll
}

// Facets are exact-match filters; empty or ALL means any value.
type Facets struct {
	Status string
	Branch string
	Place  string
}

// Criteria is the full set of list filters.
type Criteria struct {
	View   View
	Search string
	Facets Facets
	// Day is an ISO calendar date; empty disables the day filter.
	Day string
}

// Scope returns the issues the actor may see: everything for roles allowed
// to view all issues, otherwise only the issues the actor reported.
func Scope(issues []domain.Issue, actor policy.Actor) []domain.Issue {
	if actor.ID == "" {
		return []domain.Issue{}
	}
	if policy.Default.Allowed(actor, policy.ActionViewAllIssues, policy.Resource{}) {
		return append([]domain.Issue{}, issues...)
	}
	return keep(issues, func(i domain.Issue) bool { return i.ReportedBy == actor.ID })
}

// ApplyView narrows to issues assigned to or reported by actorID.
func ApplyView(issues []domain.Issue, actorID string, view View) []domain.Issue {
	switch view {
	case ViewAssigned:
		return keep(issues, func(i domain.Issue) bool { return i.AssignedTo != "" && i.AssignedTo == actorID })
	case ViewReported:
		return keep(issues, func(i domain.Issue) bool { return i.ReportedBy == actorID })
	}
	return issues
}

// Search keeps issues whose title, description, id, reporter name or
// subcategory contains term, ignoring case.
func Search(issues []domain.Issue, term string) []domain.Issue {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return issues
	}
	return keep(issues, func(i domain.Issue) bool {
		for _, field := range []string{i.Title, i.Description, i.ID, i.ReportedByName, i.SubCategory} {
			if field != "" && strings.Contains(strings.ToLower(field), term) {
				return true
			}
		}
		return false
	})
}

// Apply keeps issues matching every non-wildcard facet.
func (f Facets) Apply(issues []domain.Issue) []domain.Issue {
	return keep(issues, func(i domain.Issue) bool {
		return facetMatch(f.Status, string(i.Status)) &&
			facetMatch(f.Branch, i.Location) &&
			facetMatch(f.Place, i.Place)
	})
}

// OnDay keeps issues created on the given calendar day in loc.
func OnDay(issues []domain.Issue, day string, loc *time.Location) []domain.Issue {
	if day == "" {
		return issues
	}
	return keep(issues, func(i domain.Issue) bool { return DayKey(i.CreatedAt, loc) == day })
}

// Filter composes scope, view, search, facets and day filter in that order.
func Filter(issues []domain.Issue, actor policy.Actor, criteria Criteria, loc *time.Location) []domain.Issue {
	result := Scope(issues, actor)
	result = ApplyView(result, actor.ID, criteria.View)
	result = Search(result, criteria.Search)
	result = criteria.Facets.Apply(result)
	return OnDay(result, criteria.Day, loc)
}

func facetMatch(want, got string) bool {
	return want == "" || strings.EqualFold(want, Wildcard) || want == got
}

func keep(issues []domain.Issue, pred func(domain.Issue) bool) []domain.Issue {
	out := make([]domain.Issue, 0, len(issues))
	for _, issue := range issues {
		if pred(issue) {
			out = append(out, issue)
		}
	}
	return out
}
