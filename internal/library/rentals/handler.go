package rentals

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/auth"
	"LIBRA-backend/internal/platform/render"
)

type Handler struct{ svc *Service }

// 利用者用（認証ミドルウェアの内側に登録すること）
func RegisterUserRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/book/rental", h.Checkout)
	r.PUT("/users/return", h.Return)
	r.GET("/users/history", h.History)
	r.GET("/users/pending", h.Pending)
}

// 管理者用
func RegisterAdminRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.GET("/rental/export", h.Export)
}

// Checkout godoc
// @Summary 貸出登録
// @Tags rental
// @Accept json
// @Produce json
// @Param body body CheckoutRequest true "book_id = ISBN"
// @Success 200 {object} CheckoutResponse
// @Failure 404 {object} map[string]any
// @Failure 409 {object} map[string]any
// @Security BearerAuth
// @Router /book/rental [post]
func (h *Handler) Checkout(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		render.Error(c, apierr.ErrUnauth("not authenticated"))
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		render.Error(c, apierr.ErrInvalid("book_id is required"))
		return
	}
	res, err := h.svc.Checkout(c.Request.Context(), ident, req.BookID)
	if err != nil {
		render.Error(c, err)
		return
	}
	c.Header("Location", "/users/history")
	c.JSON(http.StatusOK, res)
}

// Return godoc
// @Summary 返却登録
// @Tags rental
// @Accept json
// @Produce json
// @Param body body ReturnRequest true "rental id"
// @Success 200 {object} ReturnResponse
// @Failure 403 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Security BearerAuth
// @Router /users/return [put]
func (h *Handler) Return(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		render.Error(c, apierr.ErrUnauth("not authenticated"))
		return
	}
	var req ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		render.Error(c, apierr.ErrInvalid("id is required"))
		return
	}
	res, err := h.svc.Return(c.Request.Context(), ident, req.ID)
	if err != nil {
		render.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) History(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		render.Error(c, apierr.ErrUnauth("not authenticated"))
		return
	}
	res, err := h.svc.History(c.Request.Context(), ident)
	if err != nil {
		render.Error(c, err)
		return
	}
	render.Negotiate(c, http.StatusOK, "history.html", res)
}

func (h *Handler) Pending(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		render.Error(c, apierr.ErrUnauth("not authenticated"))
		return
	}
	res, err := h.svc.Pending(c.Request.Context(), ident)
	if err != nil {
		render.Error(c, err)
		return
	}
	render.Negotiate(c, http.StatusOK, "pending.html", res)
}

func (h *Handler) Export(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		render.Error(c, apierr.ErrUnauth("not authenticated"))
		return
	}
	data, err := h.svc.ExportCSV(c.Request.Context(), ident)
	if err != nil {
		render.Error(c, err)
		return
	}
	filename := ExportFilename(h.svc.clock.Now())
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=Shift_JIS", data)
}
