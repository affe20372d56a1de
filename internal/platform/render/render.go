// レスポンス整形（コンテンツネゴシエーション）
// 各ハンドラは意味のある結果オブジェクトを1つ作り、ここに渡すだけ。
// Accept が text/html ならテンプレート描画、それ以外は JSON を返す。
package render

import (
	"log"

	"github.com/gin-gonic/gin"

	"LIBRA-backend/internal/platform/apierr"
)

// WantsHTML: ブラウザ向けかどうかの判定
func WantsHTML(c *gin.Context) bool {
	return c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML
}

// Negotiate: 成功レスポンス。tmpl が空なら常に JSON。
func Negotiate(c *gin.Context, status int, tmpl string, result any) {
	if tmpl != "" && WantsHTML(c) {
		c.HTML(status, tmpl, result)
		return
	}
	c.JSON(status, result)
}

// Error: 失敗レスポンス。タクソノミをHTTPステータスに写像し、
// 未分類のエラーは詳細をログに残して generic な 500 を返す。
func Error(c *gin.Context, err error) {
	api := apierr.From(err)
	if api.Code == apierr.CodeInternal {
		log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	status := apierr.ToHTTPStatus(err)
	if WantsHTML(c) {
		c.HTML(status, "error.html", gin.H{
			"Code":    string(api.Code),
			"Message": api.Message,
		})
		return
	}
	c.JSON(status, errorBody(api))
}

// AbortError: ミドルウェア用。Error と同じ整形をして処理を打ち切る。
func AbortError(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

type errorDTO struct {
	Error struct {
		Code    apierr.Code `json:"code"`
		Message string      `json:"message"`
	} `json:"error"`
}

func errorBody(api *apierr.APIError) errorDTO {
	var e errorDTO
	e.Error.Code = api.Code
	e.Error.Message = api.Message
	return e
}
