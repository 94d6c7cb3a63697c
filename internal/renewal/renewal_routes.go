package renewal

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
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	{
		admin.POST("/renewal/:year", middleware.RBACAuthorize(rbacService, "renewal", "run"), handler.Renew)
		admin.POST("/initialize/:year", middleware.RBACAuthorize(rbacService, "renewal", "run"), handler.Initialize)
	}
}
