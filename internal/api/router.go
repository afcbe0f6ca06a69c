package api

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/auth"
	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/claim"
	claimHttp "github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/claim/http"
	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/notify"
	"github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/room"
	roomHttp "github.com/TECHINNNNNNNN/occupied-reservation-backend/internal/room/http"
)

// Config holds the services and settings the router needs.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	RoomService  room.Service
	ClaimService claim.Service
	Notifier     *notify.Notifier
	JWTManager   *auth.JWTManager
}

// NewRouter initializes the HTTP router engine.
// It assembles middleware (CORS, Logger, Auth) and registers module routes.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()

	// Logger logs request information; Recovery captures panics and
	// returns a 500 instead of crashing the server.
	r.Use(gin.Logger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.ProdOrigins, ",")
	} else {
		corsConfig.AllowOrigins = []string{
			"http://localhost:3000", // Dashboard dev server
		}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key"}
	r.Use(cors.New(corsConfig))

	authMiddleware := auth.AuthRequired(cfg.JWTManager)

	roomHandler := roomHttp.NewHandler(cfg.RoomService)
	claimHandler := claimHttp.NewHandler(cfg.ClaimService, cfg.Notifier)

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		roomHttp.RegisterRoutes(v1, roomHandler, authMiddleware)
		claimHttp.RegisterRoutes(v1, claimHandler, authMiddleware)
	}

	return r
}
