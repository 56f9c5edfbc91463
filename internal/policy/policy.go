// Package policy maps an actor and a resource to the actions the actor may take.
//
// The HTTP layer uses it to advertise permitted actions; the service layer
// checks it again on every mutation.
package policy

import "github.com/streetburger/issuedesk/internal/domain"

// Action names something an actor can attempt.
type Action string

const (
	ActionViewAllIssues     Action = "view_all_issues"
	ActionViewIssue         Action = "view_issue"
	ActionCreateIssue       Action = "create_issue"
	ActionEditIssue         Action = "edit_issue"
	ActionCommentIssue      Action = "comment_issue"
	ActionChangeIssueStatus Action = "change_issue_status"
	ActionAssignTechnician  Action = "assign_technician"
	ActionDeleteIssue       Action = "delete_issue"
	ActionRequestAnalysis   Action = "request_ai_analysis"
	ActionEditOwnProfile    Action = "edit_own_profile"
	ActionChangeOwnPassword Action = "change_own_password"
	ActionManageUsers       Action = "manage_users"
	ActionChangeUserRole    Action = "change_user_role"
	ActionDeleteUser        Action = "delete_user"
)

// AllActions lists every action in a stable order.
var AllActions = []Action{
	ActionViewAllIssues,
	ActionViewIssue,
	ActionCreateIssue,
	ActionEditIssue,
	ActionCommentIssue,
	ActionChangeIssueStatus,
	ActionAssignTechnician,
	ActionDeleteIssue,
	ActionRequestAnalysis,
	ActionEditOwnProfile,
	ActionChangeOwnPassword,
	ActionManageUsers,
	ActionChangeUserRole,
	ActionDeleteUser,
}

// Actor is the authenticated caller.
type Actor struct {
	ID   string
	Role domain.Role
}

// ActorFor builds an actor from a user.
func ActorFor(user domain.User) Actor {
	return Actor{ID: user.ID, Role: user.Role}
}

// Resource describes what an action targets. OwnerID is the issue reporter;
// TargetUserID is the account being managed.
type Resource struct {
	OwnerID      string
	TargetUserID string
}

// IssueResource describes an issue for policy checks.
func IssueResource(issue domain.Issue) Resource {
	return Resource{OwnerID: issue.ReportedBy}
}

// UserResource describes a managed account.
func UserResource(userID string) Resource {
	return Resource{TargetUserID: userID}
}

// Policy decides whether an actor may perform an action on a resource.
type Policy interface {
	Allowed(actor Actor, action Action, resource Resource) bool
}

// RolePolicy is the role table used by the dashboard.
type RolePolicy struct{}

// Default is the policy used across the service.
var Default Policy = RolePolicy{}

// Allowed implements Policy.
func (RolePolicy) Allowed(actor Actor, action Action, resource Resource) bool {
	if actor.ID == "" || !actor.Role.Valid() {
		return false
	}
	role := actor.Role

	switch action {
	case ActionViewAllIssues:
		return seesAllIssues(role)
	case ActionViewIssue, ActionCommentIssue:
		return seesAllIssues(role) || resource.OwnerID == actor.ID
	case ActionCreateIssue:
		return role == domain.RoleAdmin || role == domain.RoleManager || role == domain.RoleStaff
	case ActionEditIssue:
		if role == domain.RoleAdmin {
			return true
		}
		return role == domain.RoleStaff && resource.OwnerID != "" && resource.OwnerID == actor.ID
	case ActionChangeIssueStatus, ActionRequestAnalysis:
		return seesAllIssues(role)
	case ActionAssignTechnician:
		return role == domain.RoleAdmin || role == domain.RoleManager
	case ActionDeleteIssue:
		return role == domain.RoleAdmin || role == domain.RoleTechnician
	case ActionEditOwnProfile, ActionChangeOwnPassword, ActionManageUsers:
		return role == domain.RoleAdmin
	case ActionChangeUserRole, ActionDeleteUser:
		// Acting on your own account would risk locking every admin out.
		if resource.TargetUserID == "" || resource.TargetUserID == actor.ID {
			return false
		}
		return role == domain.RoleAdmin
	}
	return false
}

// Permissions lists every action the actor may take on the resource.
func Permissions(p Policy, actor Actor, resource Resource) []Action {
	allowed := make([]Action, 0, len(AllActions))
	for _, action := range AllActions {
		if p.Allowed(actor, action, resource) {
			allowed = append(allowed, action)
		}
	}
	return allowed
}

func seesAllIssues(role domain.Role) bool {
	return role == domain.RoleAdmin || role == domain.RoleManager || role == domain.RoleTechnician
}
