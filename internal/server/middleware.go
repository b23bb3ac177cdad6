package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/manosdelsur/feria/internal/authctx"
)

// identityHeader carries the authenticated user ID set by the upstream
// identity proxy. Authentication itself happens before traffic reaches
// this service.
const identityHeader = "X-User-Id"

// identityMiddleware resolves the upstream user ID into a full actor:
// role from the users row, store from ownership. Requests without a valid
// identity are rejected before any handler runs.
func (s *Server) identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(identityHeader))
		if raw == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		userID, err := snowflake.ParseString(raw)
		if err != nil || userID == 0 {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := c.Request.Context()
		user, err := s.users.FindByID(ctx, s.db, userID.Int64())
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if user == nil || !user.Role.Valid() {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		actor := authctx.Actor{
			UserID: snowflake.ID(user.ID),
			Role:   user.Role,
		}
		store, err := s.stores.FindByOwner(ctx, s.db, actor.UserID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if store != nil {
			actor.StoreID = snowflake.ID(store.ID)
		}

		c.Request = c.Request.WithContext(authctx.WithActor(ctx, actor))
		c.Next()
	}
}

// requireRole gates a route group on the actor's role, before the finer
// grained casbin check runs.
func (s *Server) requireRole(roles ...authctx.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := authctx.ActorFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		AbortWithError(c, ErrForbidden)
	}
}

// authorize runs the casbin policy check for one object/action pair.
func (s *Server) authorize(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := authctx.ActorFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if err := s.authzSvc.Authorize(c.Request.Context(), actor, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// orderRateLimit throttles order placement per buyer through the redis
// token bucket. Without redis the limiter is a no-op.
func (s *Server) orderRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil {
			c.Next()
			return
		}
		actor, ok := authctx.ActorFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		key := "feria:ratelimit:orders:" + actor.UserID.String()
		rate := float64(s.cfg.OrderRateLimit) / 60.0
		res, err := s.limiter.Allow(c.Request.Context(), key, rate, s.cfg.OrderRateBurst)
		if err != nil {
			// Redis being down never blocks order placement.
			s.log.Warn("order rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if !res.Allowed {
			s.obsMetrics.RateLimitDenied()
			if res.RetryAfter > 0 {
				c.Header("Retry-After", res.RetryAfter.Truncate(1e9).String())
			}
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
