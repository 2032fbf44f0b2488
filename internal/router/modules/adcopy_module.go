package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/offer-marketplace/internal/container"
	handlers "github.com/oksasatya/offer-marketplace/internal/interface/http"
	"github.com/oksasatya/offer-marketplace/internal/interface/middleware"
)

type AdCopyModule struct {
	Handler *handlers.AdCopyHandler
}

func NewAdCopyModule(h *handlers.AdCopyHandler) *AdCopyModule {
	return &AdCopyModule{Handler: h}
}

func (m *AdCopyModule) Register(rg *gin.RouterGroup) {
	// each call costs model tokens
	limiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)
	rg.POST("/improve-ad", limiter, m.Handler.Improve)
}
