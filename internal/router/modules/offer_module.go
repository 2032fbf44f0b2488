package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/offer-marketplace/internal/container"
	handlers "github.com/oksasatya/offer-marketplace/internal/interface/http"
	"github.com/oksasatya/offer-marketplace/internal/interface/middleware"
	"github.com/oksasatya/offer-marketplace/pkg/helpers"
)

type OfferModule struct {
	Handler *handlers.OfferHandler
	JWT     *helpers.JWTManager
}

func NewOfferModule(h *handlers.OfferHandler, jwt *helpers.JWTManager) *OfferModule {
	return &OfferModule{Handler: h, JWT: jwt}
}

func (m *OfferModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	searchLimiter := middleware.RateLimit(rdb, 60, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.GET("/offers", m.Handler.List)
	rg.GET("/offers/search", searchLimiter, m.Handler.Search)
	rg.GET("/offers/:id", m.Handler.Get)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(rdb, m.JWT))
	auth.Use(middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.GET("/users/can-be-provider", m.Handler.CanBeProvider)
		auth.POST("/offers", m.Handler.Create)
		auth.PUT("/offers/:id", m.Handler.Update)
		auth.DELETE("/offers/:id", m.Handler.Delete)
		auth.POST("/offers/:id/image", middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByUserID(), nil), m.Handler.UploadImage)
	}
}
