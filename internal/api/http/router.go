package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/streetburger/issuedesk/internal/api/http/handlers"
	"github.com/streetburger/issuedesk/internal/auth"
	"github.com/streetburger/issuedesk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Issues         *handlers.IssuesHandler
	Reports        *handlers.ReportsHandler
	Catalog        *handlers.CatalogHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Role gates here are coarse; services
// apply the access policy per resource.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/sign-up", cfg.Auth.SignUp)
	authGroup.Post("/sign-in", cfg.Auth.SignIn)
	authGroup.Get("/session", cfg.Auth.Session)
	authGroup.Post("/recovery", cfg.Auth.RequestRecovery)
	authGroup.Post("/recovery/confirm", cfg.Auth.ConfirmRecovery)
	authGroup.Post("/sign-out", cfg.AuthMiddleware.Handle, cfg.Auth.SignOut)

	app.Get("/catalog", cfg.Catalog.Get)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	admin := auth.RequireRole(domain.RoleAdmin)

	protected.Get("/health/metrics", admin, cfg.Health.Metrics)

	protected.Get("/me", cfg.Users.Me)
	protected.Patch("/me", cfg.Users.UpdateMe)
	protected.Post("/me/password", cfg.Users.ChangePassword)

	protected.Get("/users/technicians", auth.RequireRole(domain.RoleAdmin, domain.RoleManager), cfg.Users.Technicians)
	protected.Get("/users", admin, cfg.Users.List)
	protected.Post("/users", admin, cfg.Users.Create)
	protected.Patch("/users/:id/role", admin, cfg.Users.UpdateRole)
	protected.Post("/users/:id/password", admin, cfg.Users.ResetPassword)
	protected.Delete("/users/:id", admin, cfg.Users.Delete)

	protected.Get("/issues", cfg.Issues.List)
	protected.Post("/issues", cfg.Issues.Create)
	protected.Get("/issues/:id", cfg.Issues.Get)
	protected.Patch("/issues/:id", cfg.Issues.Update)
	protected.Delete("/issues/:id", cfg.Issues.Delete)
	protected.Patch("/issues/:id/status", cfg.Issues.ChangeStatus)
	protected.Patch("/issues/:id/assignee", cfg.Issues.Assign)
	protected.Post("/issues/:id/assign-to-me", cfg.Issues.AssignToMe)
	protected.Post("/issues/:id/comments", cfg.Issues.AddComment)
	protected.Post("/issues/:id/analysis", cfg.Issues.Analyze)
	protected.Post("/ai/expand-description", cfg.Issues.ExpandDescription)

	protected.Get("/dashboard", cfg.Reports.Dashboard)
	protected.Post("/dashboard/refresh", cfg.Reports.Refresh)
	protected.Get("/reports/range", cfg.Reports.Range)
	protected.Get("/reports/range.csv", cfg.Reports.RangeCSV)
}
