package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/slotpark/parking-slot-backend/internal/api"
	"github.com/slotpark/parking-slot-backend/internal/auth"
	"github.com/slotpark/parking-slot-backend/internal/booking"
	"github.com/slotpark/parking-slot-backend/internal/photo"
	"github.com/slotpark/parking-slot-backend/internal/pkg/storage"
	"github.com/slotpark/parking-slot-backend/internal/slot"
	"github.com/slotpark/parking-slot-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	JWTSecret    string
	JWTTTL       time.Duration
	BcryptCost   int
	CancelGrace  time.Duration
	Storage      storage.Storage

	// Clock overrides time.Now for the booking ledger; nil uses the
	// system clock.
	Clock booking.NowFunc

	// RedisAddr enables the booking-creation rate limiter when set.
	RedisAddr          string
	RateLimitPerMinute int
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	passwordHasher := auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	// User module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher)

	// Photo module
	photoRepo := photo.NewPgxRepository(cfg.DBPool)
	photoService := photo.NewService(photoRepo, cfg.Storage)

	// Booking repo first: the slot module consumes it as the active
	// booking counter behind the edit guard.
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)

	// Slot module
	slotRepo := slot.NewPgxRepository(cfg.DBPool)
	slotService := slot.NewService(slotRepo, bookingRepo)

	// Booking module
	grace := cfg.CancelGrace
	if grace <= 0 {
		grace = booking.DefaultCancelGrace
	}
	policy := booking.CancelPolicy{Grace: grace}
	bookingService := booking.NewService(bookingRepo, slotService, policy, cfg.Clock)

	var writeLimiter gin.HandlerFunc
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		writeLimiter = api.RateLimit(rdb, cfg.RateLimitPerMinute, time.Minute)
	}

	router := api.NewRouter(api.Config{
		IsProduction:   cfg.IsProduction,
		ProdOrigins:    cfg.ProdOrigins,
		UserService:    userService,
		SlotService:    slotService,
		BookingService: bookingService,
		PhotoService:   photoService,
		JWTManager:     jwtManager,
		Clock:          cfg.Clock,
		WriteLimiter:   writeLimiter,
	})

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
	}
}
