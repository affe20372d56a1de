package books

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/auth"
	"LIBRA-backend/internal/platform/render"
)

type Handler struct{ svc *Service }

// 公開カタログ
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.GET("/book/list", h.List)
	r.GET("/book/list/:page", h.List)
	r.GET("/book/detail/:isbn", h.Detail)
}

// 管理者用CRUD（認可ミドルウェアの内側に登録すること）
func RegisterAdminRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.GET("/book", h.ListAdmin)
	r.POST("/book", h.Create)
	r.PUT("/book/:isbn", h.Update)
	r.DELETE("/book/:isbn", h.Delete)
}

// List godoc
// @Summary 蔵書一覧（5件ずつ）
// @Tags book
// @Produce json
// @Param page path int false "ページ番号"
// @Success 200 {object} BookListResponse
// @Router /book/list/{page} [get]
func (h *Handler) List(c *gin.Context) {
	page := 1
	if v := c.Param("page"); v != "" {
		// 数値でないページ指定は1ページ目扱い
		if p, err := strconv.Atoi(v); err == nil {
			page = p
		}
	}

	res, err := h.svc.List(c.Request.Context(), page)
	if err != nil {
		render.Error(c, err)
		return
	}
	render.Negotiate(c, http.StatusOK, "book_list.html", res)
}

// Detail godoc
// @Summary 蔵書詳細（貸出状況つき）
// @Tags book
// @Produce json
// @Param isbn path string true "ISBN"
// @Success 200 {object} BookDetailResponse
// @Failure 404 {object} map[string]any
// @Router /book/detail/{isbn} [get]
func (h *Handler) Detail(c *gin.Context) {
	res, err := h.svc.Detail(c.Request.Context(), c.Param("isbn"))
	if err != nil {
		render.Error(c, err)
		return
	}
	render.Negotiate(c, http.StatusOK, "book_detail.html", res)
}

// ===== admin =====

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
	c.JSON(http.StatusOK, gin.H{"books": res})
}

func (h *Handler) Create(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		render.Error(c, apierr.ErrUnauth("not authenticated"))
		return
	}
	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		render.Error(c, apierr.ErrInvalid("invalid json or missing required fields"))
		return
	}
	res, err := h.svc.Create(c.Request.Context(), ident, req)
	if err != nil {
		render.Error(c, err)
		return
	}
	c.Header("Location", "/book/detail/"+strconv.FormatUint(res.ISBN, 10))
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) Update(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		render.Error(c, apierr.ErrUnauth("not authenticated"))
		return
	}
	var req UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		render.Error(c, apierr.ErrInvalid("invalid json"))
		return
	}
	res, err := h.svc.Update(c.Request.Context(), ident, c.Param("isbn"), req)
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
	if err := h.svc.Delete(c.Request.Context(), ident, c.Param("isbn")); err != nil {
		render.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
