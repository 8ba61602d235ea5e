package leave

import (
	"go-leave/internal/middleware"
	"go-leave/internal/rbac"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	enforcer *casbin.Enforcer,
	rdb *redis.Client,
) {
	leaves := r.Group("/leave-requests")
	leaves.Use(middleware.AuthMiddleware())
	{
		leaves.GET("",
			middleware.RateLimitByUser(3, 10),
			rbac.Authorize(enforcer, "leave", "read"),
			handler.GetAll,
		)
		leaves.GET("/:id",
			middleware.RateLimitByUser(3, 10),
			rbac.Authorize(enforcer, "leave", "read"),
			handler.GetById,
		)

		if rdb != nil {
			leaves.POST("",
				middleware.Idempotency(rdb),
				middleware.RateLimitByUser(0.5, 2),
				rbac.Authorize(enforcer, "leave", "create"),
				handler.Submit,
			)
		} else {
			leaves.POST("",
				middleware.RateLimitByUser(0.5, 2),
				rbac.Authorize(enforcer, "leave", "create"),
				handler.Submit,
			)
		}

		leaves.POST("/:id/approve",
			middleware.RateLimitByUser(1, 5),
			rbac.Authorize(enforcer, "leave", "approve"),
			handler.Approve,
		)
		leaves.POST("/:id/reject",
			middleware.RateLimitByUser(1, 5),
			rbac.Authorize(enforcer, "leave", "approve"),
			handler.Reject,
		)
		leaves.POST("/:id/cancel",
			middleware.RateLimitByUser(1, 5),
			rbac.Authorize(enforcer, "leave", "cancel"),
			handler.Cancel,
		)
	}
}
