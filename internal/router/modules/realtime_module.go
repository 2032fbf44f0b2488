package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/offer-marketplace/internal/container"
	handlers "github.com/oksasatya/offer-marketplace/internal/interface/http"
	"github.com/oksasatya/offer-marketplace/internal/interface/middleware"
	"github.com/oksasatya/offer-marketplace/pkg/helpers"
)

type RealtimeModule struct {
	Handler *handlers.RealtimeHandler
	JWT     *helpers.JWTManager
}

func NewRealtimeModule(h *handlers.RealtimeHandler, jwt *helpers.JWTManager) *RealtimeModule {
	return &RealtimeModule{Handler: h, JWT: jwt}
}

func (m *RealtimeModule) Register(rg *gin.RouterGroup) {
	rg.GET("/socket-status", m.Handler.Status)
	rg.GET("/socket", middleware.Auth(container.GetRedis(), m.JWT), m.Handler.Socket)
}
