package auth

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/render"
)

const ctxIdentityKey = "auth_identity"

// Identity: 認証済み呼び出し元。匿名は値が「無い」ことで表現する。
// セッションオブジェクトを引き回す代わりに、これをサービス呼び出しへ明示的に渡す。
type Identity struct {
	UserID  int64
	Name    string
	IsAdmin bool
}

// IdentityFrom: RequireAuth が詰めた Identity を取り出す
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(ctxIdentityKey)
	if !ok {
		return Identity{}, false
	}
	ident, ok := v.(Identity)
	return ident, ok
}

// RequireAuth: Authorization: Bearer <token> を検証して Identity を context に詰める
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			render.AbortError(c, apierr.ErrUnauth("missing Authorization header"))
			return
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			render.AbortError(c, apierr.ErrUnauth("invalid Authorization header"))
			return
		}

		tokenStr := strings.TrimSpace(parts[1])
		if tokenStr == "" {
			render.AbortError(c, apierr.ErrUnauth("empty token"))
			return
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
			// alg 固定（none攻撃とか回避）
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || token == nil || !token.Valid {
			render.AbortError(c, apierr.ErrUnauth("invalid token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			render.AbortError(c, apierr.ErrUnauth("invalid claims"))
			return
		}

		sub, _ := claims["sub"].(string)
		userID, err := strconv.ParseInt(sub, 10, 64)
		if err != nil || userID <= 0 {
			render.AbortError(c, apierr.ErrUnauth("invalid sub"))
			return
		}

		name, _ := claims["name"].(string)
		isAdmin, _ := claims["admin"].(bool)

		c.Set(ctxIdentityKey, Identity{UserID: userID, Name: name, IsAdmin: isAdmin})
		c.Next()
	}
}

// RequireAdmin: RequireAuth の後段に置く。
// トークンの admin クレームだけでなく、ユーザーが削除されていないことをDBで裏取りする。
func RequireAdmin(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := IdentityFrom(c)
		if !ok {
			render.AbortError(c, apierr.ErrUnauth("not authenticated"))
			return
		}

		u, err := svc.ActiveUser(c.Request.Context(), ident.UserID)
		if err != nil {
			render.AbortError(c, err)
			return
		}
		if u == nil || !u.IsAdmin {
			render.AbortError(c, apierr.ErrForbidden("admin only"))
			return
		}

		c.Next()
	}
}
