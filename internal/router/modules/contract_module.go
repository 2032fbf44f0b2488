package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/offer-marketplace/internal/interface/http"
)

type ContractModule struct {
	Handler *handlers.ContractStepHandler
}

func NewContractModule(h *handlers.ContractStepHandler) *ContractModule {
	return &ContractModule{Handler: h}
}

func (m *ContractModule) Register(rg *gin.RouterGroup) {
	rg.GET("/contract-steps", m.Handler.List)
}
