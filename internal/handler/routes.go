package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/placement-api/internal/middleware"
	"github.com/noah-isme/placement-api/internal/models"
)

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth           *AuthHandler
	Student        *StudentHandler
	Representative *RepresentativeHandler
	Staff          *StaffHandler
	Metrics        *MetricsHandler
}

// Register mounts the API routes on group, guarding each role's subtree.
func Register(group *gin.RouterGroup, h Handlers, tokens middleware.TokenValidator) {
	auth := middleware.JWT(tokens)

	authGroup := group.Group("/auth")
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/register", h.Auth.Register)
	authGroup.PUT("/password", auth, h.Auth.ChangePassword)
	authGroup.GET("/me", auth, h.Auth.Me)

	student := group.Group("/student", auth, middleware.RequireRoles(models.RoleStudent))
	student.GET("/internships", h.Student.Discover)
	student.GET("/applications", h.Student.List)
	student.POST("/applications", h.Student.Apply)
	student.POST("/applications/:id/withdrawal", h.Student.Withdraw)
	student.POST("/applications/:id/accept", h.Student.Accept)

	rep := group.Group("/representative", auth, middleware.RequireRoles(models.RoleRepresentative))
	rep.GET("/internships", h.Representative.List)
	rep.POST("/internships", h.Representative.Create)
	rep.PUT("/internships/:id", h.Representative.Update)
	rep.DELETE("/internships/:id", h.Representative.Delete)
	rep.POST("/internships/:id/visibility", h.Representative.ToggleVisibility)
	rep.GET("/internships/:id/applications", h.Representative.Applications)
	rep.POST("/applications/:id/review", h.Representative.Review)
	rep.GET("/students/:id", h.Representative.Student)

	staff := group.Group("/staff", auth, middleware.RequireRoles(models.RoleStaff))
	staff.GET("/internships/pending", h.Staff.PendingInternships)
	staff.POST("/internships/:id/decision", h.Staff.DecideInternship)
	staff.GET("/registrations/pending", h.Staff.PendingRegistrations)
	staff.POST("/registrations/:id/decision", h.Staff.DecideRegistration)
	staff.GET("/withdrawals/pending", h.Staff.PendingWithdrawals)
	staff.POST("/withdrawals/:id/approve", h.Staff.ApproveWithdrawal)
	staff.POST("/withdrawals/:id/reject", h.Staff.RejectWithdrawal)
	staff.GET("/reports/internships", h.Staff.Report)
	staff.GET("/reports/internships/export", h.Staff.Export)
	staff.GET("/activity", h.Staff.Activity)
	staff.PUT("/accounts/:id/password", h.Auth.ResetPassword)
	if h.Metrics != nil {
		staff.GET("/metrics", h.Metrics.Summary)
	}
}
