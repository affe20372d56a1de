package publishers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/auth"
	"LIBRA-backend/internal/platform/render"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.GET("/publisher/search", h.Search)
}

func RegisterAdminRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.GET("/publisher", h.ListAdmin)
	r.POST("/publisher", h.Create)
	r.PUT("/publisher/:id", h.Update)
	r.DELETE("/publisher/:id", h.Delete)
}

func (h *Handler) Search(c *gin.Context) {
	res, err := h.svc.Search(c.Request.Context(), c.Query("keyword"))
	if err != nil {
		render.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"publishers": res})
}

func (h *Handler) ListAdmin(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		render.Error(c, apierr.ErrUnauth("not authenticated"))
		return
	}
	res, err := h.svc.ListAdmin(c.Request.Context(), ident)
	if err != nil {
		render.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"publishers": res})
}

func (h *Handler) Create(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		render.Error(c, apierr.ErrUnauth("not authenticated"))
		return
	}
	var req CreatePublisherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		render.Error(c, apierr.ErrInvalid("name is required"))
		return
	}
	res, err := h.svc.Create(c.Request.Context(), ident, req)
	if err != nil {
		render.Error(c, err)
		return
	}
	c.Header("Location", "/admin/publisher/"+strconv.FormatInt(res.PublisherID, 10))
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) Update(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		render.Error(c, apierr.ErrUnauth("not authenticated"))
		return
	}
	var req UpdatePublisherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		render.Error(c, apierr.ErrInvalid("name is required"))
		return
	}
	res, err := h.svc.Update(c.Request.Context(), ident, c.Param("id"), req)
	if err != nil {
		render.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Delete(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		render.Error(c, apierr.ErrUnauth("not authenticated"))
		return
	}
	if err := h.svc.Delete(c.Request.Context(), ident, c.Param("id")); err != nil {
		render.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
