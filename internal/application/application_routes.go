package application

import (
	"go-elms/internal/middleware"
	"go-elms/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	idempotency gin.HandlerFunc,
) {
	leaves := r.Group("/leaves")
	leaves.Use(middleware.AuthMiddleware())
	{
		leaves.POST("", middleware.RBACAuthorize(rbacService, "leave", "submit"), idempotency, handler.Submit)
		leaves.GET("", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.List)
		leaves.GET("/:id", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.GetByID)
		leaves.GET("/:id/history", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.History)
		leaves.POST("/:id/decision", middleware.RBACAuthorize(rbacService, "leave", "decide"), idempotency, handler.Decide)
		leaves.POST("/:id/cancel", middleware.RBACAuthorize(rbacService, "leave", "submit"), handler.Cancel)
	}
}
