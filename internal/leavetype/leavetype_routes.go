package leavetype

import (
	"go-leave/internal/middleware"
	"go-leave/internal/rbac"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	enforcer *casbin.Enforcer,
) {
	types := r.Group("/leave-types")
	types.Use(middleware.AuthMiddleware())
	{
		types.GET("", rbac.Authorize(enforcer, "leave_type", "read"), handler.GetAll)
		types.GET("/:id", rbac.Authorize(enforcer, "leave_type", "read"), handler.GetById)
	}
}
