package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/streetburger/issuedesk/internal/api/dto"
	"github.com/streetburger/issuedesk/internal/domain"
)

// CatalogHandler exposes the fixed option lists for the issue form.
type CatalogHandler struct {
	response dto.CatalogResponse
}

// NewCatalogHandler precomputes the catalog response.
func NewCatalogHandler(catalog domain.Catalog) *CatalogHandler {
	resp := dto.CatalogResponse{
		Categories: make([]dto.CategoryResponse, 0, len(catalog.Categories)),
		Places:     append([]string{}, catalog.Places...),
		Branches:   append([]string{}, catalog.Branches...),
	}
	for _, category := range catalog.Categories {
		resp.Categories = append(resp.Categories, dto.CategoryResponse{
			Name:          category.Name,
			SubCategories: append([]string{}, category.SubCategories...),
		})
	}
	for _, status := range domain.IssueStatuses {
		resp.Statuses = append(resp.Statuses, string(status))
	}
	for _, priority := range domain.IssuePriorities {
		resp.Priorities = append(resp.Priorities, string(priority))
	}
	for _, role := range domain.Roles {
		resp.Roles = append(resp.Roles, string(role))
	}
	return &CatalogHandler{response: resp}
}

// Get GET /catalog.
func (h *CatalogHandler) Get(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.response})
}
