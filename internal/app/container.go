package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/api"
	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/auth"
	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/claim"
	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/notify"
	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/pkg/clock"
	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/room"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	Redis        *redis.Client
	Clock        clock.Clock
	JWTSecret    string
	JWTTTL       time.Duration

	HoldTTL          time.Duration
	SlotInterval     time.Duration
	MaxSlotsPerClaim int
	SweepInterval    time.Duration
	Hours            claim.OperatingHours
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
	Sweeper    *claim.Sweeper
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.NewSystem()
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	notifier := notify.NewNotifier(cfg.Redis)

	// Room module
	roomRepo := room.NewPgxRepository(cfg.DBPool)
	roomService := room.NewService(roomRepo)

	// Claim module (reservation core)
	claimRepo := claim.NewPgxRepository(cfg.DBPool)
	claimService := claim.NewService(claimRepo, roomService, notifier, clk, claim.Settings{
		HoldTTL:          cfg.HoldTTL,
		SlotInterval:     cfg.SlotInterval,
		MaxSlotsPerClaim: cfg.MaxSlotsPerClaim,
		Hours:            cfg.Hours,
	})
	sweeper := claim.NewSweeper(claimService, cfg.SweepInterval)

	router := api.NewRouter(api.Config{
		IsProduction: cfg.IsProduction,
		ProdOrigins:  cfg.ProdOrigins,
		RoomService:  roomService,
		ClaimService: claimService,
		Notifier:     notifier,
		JWTManager:   jwtManager,
	})

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
		Sweeper:    sweeper,
	}
}
