package api

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/slotpark/parking-slot-backend/internal/auth"
	"github.com/slotpark/parking-slot-backend/internal/booking"
	bookingHttp "github.com/slotpark/parking-slot-backend/internal/booking/http"
	"github.com/slotpark/parking-slot-backend/internal/photo"
	photoHttp "github.com/slotpark/parking-slot-backend/internal/photo/http"
	"github.com/slotpark/parking-slot-backend/internal/slot"
	slotHttp "github.com/slotpark/parking-slot-backend/internal/slot/http"
	"github.com/slotpark/parking-slot-backend/internal/user"
)

// Config holds the services and settings the router needs.
type Config struct {
	IsProduction bool
	ProdOrigins  string

	UserService    user.Service
	SlotService    slot.Service
	BookingService booking.Service
	PhotoService   photo.Service

	JWTManager *auth.JWTManager

	// Clock resolves the derived completed status in booking responses;
	// nil uses the system clock.
	Clock booking.NowFunc

	// WriteLimiter throttles booking creation; pass nil to disable.
	WriteLimiter gin.HandlerFunc
}

// NewRouter assembles middleware (CORS, logger, auth) and registers the
// routes of every module under /v1.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.ProdOrigins, ",")
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	authMiddleware := auth.AuthRequired(cfg.JWTManager)

	writeLimiter := cfg.WriteLimiter
	if writeLimiter == nil {
		writeLimiter = func(c *gin.Context) { c.Next() }
	}

	authHandler := NewAuthHandler(cfg.UserService, cfg.JWTManager)
	slotHandler := slotHttp.NewHandler(cfg.SlotService, cfg.PhotoService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService, cfg.Clock)
	photoHandler := photoHttp.NewHandler(cfg.PhotoService)

	v1 := r.Group("/v1")
	{
		v1.POST("/auth/register", authHandler.Register)
		v1.POST("/auth/login", authHandler.Login)
		v1.GET("/me", authMiddleware, authHandler.Me)

		slotHttp.RegisterRoutes(v1, slotHandler, authMiddleware)
		bookingHttp.RegisterRoutes(v1, bookingHandler, authMiddleware, writeLimiter)
		photoHttp.RegisterRoutes(v1, photoHandler)
	}

	return r
}
