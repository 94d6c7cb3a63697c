package ledger

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
	balances := r.Group("/balances")
	balances.Use(middleware.AuthMiddleware())
	{
		balances.GET("/:userId", middleware.RBACAuthorize(rbacService, "balance", "read"), handler.GetBalances)
		balances.PUT("", middleware.RBACAuthorize(rbacService, "balance", "manage"), handler.AdminSet)
		balances.DELETE("/:id", middleware.RBACAuthorize(rbacService, "balance", "manage"), handler.Delete)
	}
}
