// Package server assembles the ArtZip HTTP API from its modules.
package server

import (
	"context"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"artzip/internal/cache"
	"artzip/internal/middleware"
	"artzip/internal/modules/auth"
	"artzip/internal/modules/exhibition"
	"artzip/internal/modules/review"
	"artzip/internal/modules/user"
	jwtsvc "artzip/internal/pkg/jwt"
	"artzip/internal/repository"
	"artzip/internal/storage"
)

// PhotoStore persists review photos.
type PhotoStore interface {
	Save(ctx context.Context, filename string, r io.Reader) (*storage.Stored, error)
	Delete(ctx context.Context, key string) error
}

type Deps struct {
	DB          *gorm.DB
	JWT         *jwtsvc.Service
	Photos      PhotoStore
	Cache       cache.Cache
	UserInfoTTL time.Duration
	Log         *zap.Logger

	// UploadDir is served at StaticURLBase when photos live on local disk.
	UploadDir     string
	StaticURLBase string
	CORSOrigins   []string
}

func NewRouter(d Deps) *gin.Engine {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	c := d.Cache
	if c == nil {
		c = cache.NewMemory()
	}

	userRepo := repository.NewUserRepository(d.DB)
	exhibitionRepo := repository.NewExhibitionRepository(d.DB)
	reviewRepo := repository.NewReviewRepository(d.DB)
	likeRepo := repository.NewLikeRepository(d.DB)

	authService := auth.NewService(userRepo, d.JWT, log.Named("auth"))
	reviewService := review.NewService(reviewRepo, exhibitionRepo, likeRepo, d.Photos, log.Named("review"))
	exhibitionService := exhibition.NewService(exhibitionRepo, likeRepo, log.Named("exhibition"))
	userService := user.NewService(userRepo, reviewService, exhibitionService, c, d.UserInfoTTL, log.Named("user"))
	reviewService.SetActivityInvalidator(userService)
	exhibitionService.SetActivityInvalidator(userService)

	r := gin.New()
	r.MaxMultipartMemory = 32 << 20
	r.Use(middleware.ErrorLogger(log))
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(d.CORSOrigins))

	if d.UploadDir != "" && d.StaticURLBase != "" {
		r.Static(d.StaticURLBase, d.UploadDir)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		public := v1.Group("")
		public.Use(middleware.OptionalAuth(d.JWT))

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(d.JWT))

		auth.NewHandler(authService).RegisterRoutes(v1)
		review.NewHandler(reviewService).RegisterRoutes(public, protected)
		exhibition.NewHandler(exhibitionService).RegisterRoutes(public, protected)
		user.NewHandler(userService).RegisterRoutes(public)
	}

	return r
}
