package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/render"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	// ブラウザ用フォーム
	r.GET("/users/login", h.LoginPage)
	r.GET("/users/register", h.RegisterPage)

	r.POST("/users/login", h.Login)
	r.POST("/users/register", h.Register)
}

type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" form:"name" binding:"required"`
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

func (h *Handler) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{})
}

func (h *Handler) RegisterPage(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", gin.H{})
}

// Login godoc
// @Summary ログイン
// @Tags users
// @Accept json
// @Produce json
// @Param body body LoginRequest true "credentials"
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]any
// @Router /users/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		render.Error(c, apierr.ErrInvalid("email and password are required"))
		return
	}

	token, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if render.WantsHTML(c) {
			// フォームに戻してフラッシュメッセージを出す
			c.HTML(apierr.ToHTTPStatus(err), "login.html", gin.H{
				"Flash": "メールアドレスまたはパスワードが間違っています",
				"Email": req.Email,
			})
			return
		}
		render.Error(c, err)
		return
	}

	if render.WantsHTML(c) {
		c.Redirect(http.StatusSeeOther, "/book/list")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"message": "ok",
	})
}

// Register godoc
// @Summary 利用者登録
// @Tags users
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "new user"
// @Success 201 {object} map[string]any
// @Failure 409 {object} map[string]any
// @Router /users/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		render.Error(c, apierr.ErrInvalid("name, email, password are required"))
		return
	}

	u, err := h.svc.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if render.WantsHTML(c) {
			c.HTML(apierr.ToHTTPStatus(err), "register.html", gin.H{
				"Flash": "登録に失敗しました: " + apierr.From(err).Message,
				"Name":  req.Name,
				"Email": req.Email,
			})
			return
		}
		render.Error(c, err)
		return
	}

	if render.WantsHTML(c) {
		c.Redirect(http.StatusSeeOther, "/users/login")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"user_id": u.UserID,
		"message": "registered",
	})
}
