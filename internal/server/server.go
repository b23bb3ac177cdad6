package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/manosdelsur/feria/internal/authctx"
	"github.com/manosdelsur/feria/internal/authorization"
	"github.com/manosdelsur/feria/internal/config"
	"github.com/manosdelsur/feria/internal/favorite"
	favoritedomain "github.com/manosdelsur/feria/internal/favorite/domain"
	"github.com/manosdelsur/feria/internal/follow"
	followdomain "github.com/manosdelsur/feria/internal/follow/domain"
	"github.com/manosdelsur/feria/internal/notification"
	notifdomain "github.com/manosdelsur/feria/internal/notification/domain"
	"github.com/manosdelsur/feria/internal/observability"
	obsmiddleware "github.com/manosdelsur/feria/internal/observability/logger"
	obsmetrics "github.com/manosdelsur/feria/internal/observability/metrics"
	obstracing "github.com/manosdelsur/feria/internal/observability/tracing"
	"github.com/manosdelsur/feria/internal/order"
	orderdomain "github.com/manosdelsur/feria/internal/order/domain"
	"github.com/manosdelsur/feria/internal/product"
	productdomain "github.com/manosdelsur/feria/internal/product/domain"
	"github.com/manosdelsur/feria/internal/providers/email"
	"github.com/manosdelsur/feria/internal/providers/pdf"
	"github.com/manosdelsur/feria/internal/ratelimit"
	"github.com/manosdelsur/feria/internal/review"
	reviewdomain "github.com/manosdelsur/feria/internal/review/domain"
	"github.com/manosdelsur/feria/internal/stock"
	"github.com/manosdelsur/feria/internal/store"
	storedomain "github.com/manosdelsur/feria/internal/store/domain"
	storerepo "github.com/manosdelsur/feria/internal/store/repository"
	"github.com/manosdelsur/feria/internal/support"
	supportdomain "github.com/manosdelsur/feria/internal/support/domain"
	"github.com/manosdelsur/feria/internal/user"
	userrepo "github.com/manosdelsur/feria/internal/user/repository"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	email.Module,
	pdf.Module,
	ratelimit.Module,
	stock.Module,
	user.Module,
	store.Module,
	product.Module,
	order.Module,
	review.Module,
	favorite.Module,
	follow.Module,
	notification.Module,
	support.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	users      userrepo.Repository
	stores     storerepo.Repository
	authzSvc   authorization.Service
	storeSvc   storedomain.Service
	productSvc productdomain.Service
	orderSvc   orderdomain.Service
	reviewSvc  reviewdomain.Service
	favSvc     favoritedomain.Service
	followSvc  followdomain.Service
	notifSvc   notifdomain.Service
	supportSvc supportdomain.Service
	limiter    *ratelimit.TokenBucket
	obsMetrics *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Users      userrepo.Repository
	Stores     storerepo.Repository
	AuthzSvc   authorization.Service
	StoreSvc   storedomain.Service
	ProductSvc productdomain.Service
	OrderSvc   orderdomain.Service
	ReviewSvc  reviewdomain.Service
	FavSvc     favoritedomain.Service
	FollowSvc  followdomain.Service
	NotifSvc   notifdomain.Service
	SupportSvc supportdomain.Service
	Limiter    *ratelimit.TokenBucket `optional:"true"`
	ObsMetrics *obsmetrics.Metrics    `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		db:         p.DB,
		log:        p.Log.Named("http.server"),
		genID:      p.GenID,
		users:      p.Users,
		stores:     p.Stores,
		authzSvc:   p.AuthzSvc,
		storeSvc:   p.StoreSvc,
		productSvc: p.ProductSvc,
		orderSvc:   p.OrderSvc,
		reviewSvc:  p.ReviewSvc,
		favSvc:     p.FavSvc,
		followSvc:  p.FollowSvc,
		notifSvc:   p.NotifSvc,
		supportSvc: p.SupportSvc,
		limiter:    p.Limiter,
		obsMetrics: p.ObsMetrics,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.identityMiddleware())
	{
		api.POST("/stores", s.authorize(authorization.ObjectStore, authorization.ActionStoreCreate), s.createStore)
		api.GET("/stores/me", s.myStore)
		api.GET("/stores/:id", s.getStore)
		api.POST("/stores/:id/follow", s.authorize(authorization.ObjectStore, authorization.ActionStoreFollow), s.toggleFollow)
		api.POST("/stores/:id/reviews", s.authorize(authorization.ObjectReview, authorization.ActionReviewCreate), s.submitStoreReview)
		api.GET("/stores/:id/reviews", s.listStoreReviews)
		api.GET("/follows", s.listFollows)

		api.GET("/products", s.listProducts)
		api.POST("/products", s.authorize(authorization.ObjectProduct, authorization.ActionProductCreate), s.createProduct)
		api.GET("/products/:id", s.getProduct)
		api.PATCH("/products/:id", s.authorize(authorization.ObjectProduct, authorization.ActionProductUpdate), s.updateProduct)
		api.POST("/products/:id/hide", s.authorize(authorization.ObjectProduct, authorization.ActionProductHide), s.hideProduct)
		api.DELETE("/products/:id", s.authorize(authorization.ObjectProduct, authorization.ActionProductDelete), s.deleteProduct)
		api.GET("/products/:id/rating", s.productRating)
		api.GET("/products/:id/reviews", s.listProductReviews)
		api.POST("/products/:id/reviews", s.authorize(authorization.ObjectReview, authorization.ActionReviewCreate), s.submitReview)
		api.POST("/products/:id/favorite", s.authorize(authorization.ObjectFavorite, authorization.ActionFavoriteToggle), s.toggleFavorite)
		api.GET("/favorites", s.listFavorites)

		api.POST("/orders",
			s.authorize(authorization.ObjectOrder, authorization.ActionOrderPlace),
			s.orderRateLimit(),
			s.placeOrder,
		)
		api.GET("/orders", s.listMyOrders)
		api.GET("/orders/store", s.authorize(authorization.ObjectOrder, authorization.ActionOrderFulfill), s.listStoreOrders)
		api.GET("/orders/:id", s.getOrder)
		api.GET("/orders/:id/receipt", s.orderReceipt)
		api.POST("/orders/:id/cancel", s.authorize(authorization.ObjectOrder, authorization.ActionOrderCancel), s.cancelOrder)
		api.POST("/orders/:id/status", s.authorize(authorization.ObjectOrder, authorization.ActionOrderFulfill), s.setOrderStatus)

		api.POST("/reviews/:id/response", s.authorize(authorization.ObjectReview, authorization.ActionReviewRespond), s.respondReview)

		api.GET("/notifications", s.listNotifications)
		api.GET("/notifications/unread_count", s.unreadCount)

		api.POST("/support", s.authorize(authorization.ObjectSupport, authorization.ActionSupportCreate), s.createTicket)
		api.GET("/support", s.listMyTickets)
	}

	admin := s.engine.Group("/admin")
	admin.Use(s.identityMiddleware(), s.requireRole(authctx.RoleAdmin))
	{
		admin.POST("/stores/:id/approve", s.authorize(authorization.ObjectStore, authorization.ActionStoreApprove), s.approveStore)
		admin.POST("/reviews/:id/approve", s.authorize(authorization.ObjectReview, authorization.ActionReviewModerate), s.approveReview)
		admin.POST("/reviews/:id/hide", s.authorize(authorization.ObjectReview, authorization.ActionReviewModerate), s.hideReview)
		admin.GET("/support", s.listAllTickets)
		admin.POST("/support/:id/respond", s.authorize(authorization.ObjectSupport, authorization.ActionSupportRespond), s.respondTicket)
		admin.POST("/support/:id/close", s.authorize(authorization.ObjectSupport, authorization.ActionSupportRespond), s.closeTicket)
	}
}
