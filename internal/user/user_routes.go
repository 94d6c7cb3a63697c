package user

import (
	"go-elms/internal/middleware"
	"go-elms/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
) {
	users := r.Group("/users")
	users.Use(middleware.AuthMiddleware())
	{
		users.GET("/:id", middleware.RBACAuthorize(rbacService, "user", "manage"), handler.GetByID)
		users.POST("/:id/approve", middleware.RBACAuthorize(rbacService, "user", "manage"), handler.Approve)
	}
}
