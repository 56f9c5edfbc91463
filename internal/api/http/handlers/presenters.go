package handlers

import (
	"github.com/streetburger/issuedesk/internal/api/dto"
	"github.com/streetburger/issuedesk/internal/domain"
	"github.com/streetburger/issuedesk/internal/policy"
	"github.com/streetburger/issuedesk/internal/reporting"
)

func issueResponse(issue domain.Issue, permissions []policy.Action) dto.IssueResponse {
	resp := dto.IssueResponse{
		ID:             issue.ID,
		Title:          issue.Title,
		Description:    issue.Description,
		Status:         string(issue.Status),
		Priority:       string(issue.Priority),
		Category:       issue.Category,
		SubCategory:    issue.SubCategory,
		Place:          issue.Place,
		Location:       issue.Location,
		ReportedBy:     issue.ReportedBy,
		ReportedByName: issue.ReportedByName,
		AssignedTo:     issue.AssignedTo,
		AssignedToName: issue.AssignedToName,
		CreatedAt:      issue.CreatedAt,
		UpdatedAt:      issue.UpdatedAt,
		Comments:       make([]dto.CommentResponse, 0, len(issue.Comments)),
		Attachments:    make([]dto.AttachmentObject, 0, len(issue.Attachments)),
		AIAnalysis:     issue.AIAnalysis,
		Permissions:    actionNames(permissions),
	}
	for _, comment := range issue.Comments {
		resp.Comments = append(resp.Comments, dto.CommentResponse{
			ID:        comment.ID,
			UserID:    comment.UserID,
			UserName:  comment.UserName,
			Content:   comment.Content,
			Timestamp: comment.Timestamp,
		})
	}
	for _, attachment := range issue.Attachments {
		resp.Attachments = append(resp.Attachments, dto.AttachmentObject{
			ID:   attachment.ID,
			Name: attachment.Name,
			Type: attachment.Type,
			Data: attachment.Data,
		})
	}
	return resp
}

func issueList(issues []domain.Issue) []dto.IssueResponse {
	items := make([]dto.IssueResponse, 0, len(issues))
	for _, issue := range issues {
		items = append(items, issueResponse(issue, nil))
	}
	return items
}

func userResponse(user domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:     user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   string(user.Role),
		Avatar: user.Avatar,
	}
}

func identityResponse(identity domain.Identity) dto.UserResponse {
	name := identity.FullName
	if name == "" {
		name = "User"
	}
	return dto.UserResponse{
		ID:     identity.ID,
		Name:   name,
		Email:  identity.Email,
		Role:   string(domain.ParseRole(identity.Role)),
		Avatar: identity.AvatarURL,
	}
}

func sessionResponse(session *domain.Session) dto.SessionResponse {
	return dto.SessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      identityResponse(session.Identity),
	}
}

func dashboardResponse(stats reporting.DashboardStats) dto.DashboardResponse {
	resp := dto.DashboardResponse{
		Total:      stats.Total,
		ByStatus:   make(map[string]int, len(stats.ByStatus)),
		ByPriority: make(map[string]int, len(stats.ByPriority)),
		Critical:   stats.Critical,
		Recent:     issueList(stats.Recent),
	}
	for status, count := range stats.ByStatus {
		resp.ByStatus[string(status)] = count
	}
	for priority, count := range stats.ByPriority {
		resp.ByPriority[string(priority)] = count
	}
	return resp
}

func rangeReportResponse(report reporting.RangeReport) dto.RangeReportResponse {
	resp := dto.RangeReportResponse{
		Start:          report.Start,
		End:            report.End,
		Total:          report.Total,
		Resolved:       report.Resolved,
		Open:           report.Open,
		ResolutionRate: report.ResolutionRate,
		Daily:          make([]dto.DayCountResponse, 0, len(report.Daily)),
		Statuses:       make([]dto.StatusCountResponse, 0, len(report.Statuses)),
		Issues:         issueList(report.Issues),
	}
	for _, day := range report.Daily {
		resp.Daily = append(resp.Daily, dto.DayCountResponse{Date: day.Date, Count: day.Count})
	}
	for _, bucket := range report.Statuses {
		resp.Statuses = append(resp.Statuses, dto.StatusCountResponse{
			Status: string(bucket.Status),
			Label:  bucket.Status.Label(),
			Count:  bucket.Count,
		})
	}
	return resp
}

func actionNames(actions []policy.Action) []string {
	if len(actions) == 0 {
		return nil
	}
	names := make([]string, 0, len(actions))
	for _, action := range actions {
		names = append(names, string(action))
	}
	return names
}
