package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/offer-marketplace/internal/application"
	"github.com/oksasatya/offer-marketplace/internal/domain/entity"
	"github.com/oksasatya/offer-marketplace/pkg/response"
	"github.com/oksasatya/offer-marketplace/pkg/validation"
)

const maxImageBytes = 5 << 20

type OfferHandler struct {
	Svc    *application.OfferService
	Logger *logrus.Logger
}

func NewOfferHandler(svc *application.OfferService, logger *logrus.Logger) *OfferHandler {
	return &OfferHandler{Svc: svc, Logger: logger}
}

type createOfferRequest struct {
	Title       string  `json:"title" binding:"required,shorttext"`
	Description string  `json:"description" binding:"longtext"`
	Price       float64 `json:"price" binding:"gte=0"`
	Category    string  `json:"category" binding:"required,shorttext"`
}

type updateOfferRequest struct {
	Title       *string  `json:"title" binding:"omitempty,min=1,shorttext"`
	Description *string  `json:"description" binding:"omitempty,longtext"`
	Price       *float64 `json:"price" binding:"omitempty,gte=0"`
	Category    *string  `json:"category" binding:"omitempty,min=1,shorttext"`
}

type offerView struct {
	ID          string    `json:"id"`
	AuthorID    string    `json:"authorId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Image       string    `json:"image"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toOfferView(o *entity.Offer) offerView {
	return offerView{
		ID:          o.ID,
		AuthorID:    o.AuthorID,
		Title:       o.Title,
		Description: o.Description,
		Price:       o.Price,
		Category:    o.Category,
		Image:       o.Image,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func toOfferViews(in []entity.Offer) []offerView {
	out := make([]offerView, 0, len(in))
	for i := range in {
		out = append(out, toOfferView(&in[i]))
	}
	return out
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

// offerID reads the :id param; a value that is not a uuid cannot name an offer.
func offerID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		response.Error[any](c, http.StatusNotFound, "offer not found", nil)
		return "", false
	}
	return id, true
}

func (h *OfferHandler) Create(c *gin.Context) {
	var req createOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	o, err := h.Svc.Create(c.Request.Context(), c.GetString("userID"), application.OfferInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
	})
	if err != nil {
		fail(c, h.Logger, err, "failed to create offer")
		return
	}
	response.Success(c, http.StatusCreated, toOfferView(o), "offer created", nil)
}

func (h *OfferHandler) List(c *gin.Context) {
	f := entity.OfferFilter{
		AuthorID: c.Query("author"),
		Category: c.Query("category"),
		Limit:    queryInt(c, "limit", entity.DefaultOfferLimit),
		Offset:   queryInt(c, "offset", 0),
	}.Normalized()
	meta := map[string]any{"limit": f.Limit, "offset": f.Offset}
	if f.AuthorID != "" {
		if _, err := uuid.Parse(f.AuthorID); err != nil {
			meta["count"] = 0
			response.Success(c, http.StatusOK, []offerView{}, "offers", meta)
			return
		}
	}
	offers, err := h.Svc.List(c.Request.Context(), f)
	if err != nil {
		fail(c, h.Logger, err, "failed to list offers")
		return
	}
	meta["count"] = len(offers)
	response.Success(c, http.StatusOK, toOfferViews(offers), "offers", meta)
}

func (h *OfferHandler) Get(c *gin.Context) {
	id, ok := offerID(c)
	if !ok {
		return
	}
	o, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.Logger, err, "failed to load offer")
		return
	}
	response.Success(c, http.StatusOK, toOfferView(o), "offer", nil)
}

func (h *OfferHandler) Update(c *gin.Context) {
	id, ok := offerID(c)
	if !ok {
		return
	}
	var req updateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	patch := entity.OfferPatch{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
	}
	o, err := h.Svc.Update(c.Request.Context(), c.GetString("userID"), id, patch)
	if err != nil {
		fail(c, h.Logger, err, "failed to update offer")
		return
	}
	response.Success(c, http.StatusOK, toOfferView(o), "offer updated", nil)
}

func (h *OfferHandler) Delete(c *gin.Context) {
	id, ok := offerID(c)
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), c.GetString("userID"), id); err != nil {
		fail(c, h.Logger, err, "failed to delete offer")
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"deleted": true}, "offer deleted", nil)
}

// UploadImage accepts a multipart "image" field of at most 5 MiB.
func (h *OfferHandler) UploadImage(c *gin.Context) {
	id, ok := offerID(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageBytes+1<<20)
	fh, err := c.FormFile("image")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "image file is required", nil)
		return
	}
	if fh.Size > maxImageBytes {
		response.Error[any](c, http.StatusRequestEntityTooLarge, "image too large", nil)
		return
	}
	contentType := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		response.Error[any](c, http.StatusBadRequest, "file must be an image", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "cannot read image", nil)
		return
	}
	defer func() { _ = f.Close() }()

	o, err := h.Svc.UploadImage(c.Request.Context(), c.GetString("userID"), id, fh.Filename, contentType, f)
	if err != nil {
		fail(c, h.Logger, err, "failed to upload image")
		return
	}
	response.Success(c, http.StatusOK, toOfferView(o), "image uploaded", nil)
}

func (h *OfferHandler) Search(c *gin.Context) {
	offers, err := h.Svc.Search(c.Request.Context(), c.Query("q"), queryInt(c, "size", 20))
	if err != nil {
		fail(c, h.Logger, err, "failed to search offers")
		return
	}
	response.Success(c, http.StatusOK, toOfferViews(offers), "offers", nil)
}

func (h *OfferHandler) CanBeProvider(c *gin.Context) {
	ok, err := h.Svc.CanBeProvider(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		fail(c, h.Logger, err, "failed to check provider status")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"canBeProvider": ok}, "provider status", nil)
}
