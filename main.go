package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"LIBRA-backend/internal/library/authors"
	"LIBRA-backend/internal/library/books"
	"LIBRA-backend/internal/library/publishers"
	"LIBRA-backend/internal/library/rentals"
	"LIBRA-backend/internal/platform/auth"
	"LIBRA-backend/internal/platform/db"
)

// @title LIBRA API
// @version 1.0
// @description 図書館蔵書・貸出管理バックエンド
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// 設定読み込み
	cfg, err := db.LoadConfig("config/config.yaml")
	if err != nil {
		panic(err)
	}

	mode := cfg.Mode
	log.Printf("[INFO] mode:%s\n", mode)

	if cfg.Mode != "dev" && cfg.Mode != "release" {
		log.Fatal("config: mode must be dev or release")
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		log.Fatal("config: jwt_secret is required")
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if mode == "dev" {
		// CORS（開発中のみ必要）
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	// ブラウザ向けテンプレート
	r.LoadHTMLGlob("web/templates/*.html")

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	authSvc := auth.NewService(conn, secret)
	bookSvc := books.NewService(conn)
	authorSvc := authors.NewService(conn)
	publisherSvc := publishers.NewService(conn)
	rentalSvc := rentals.NewService(conn)

	// 公開（匿名可）
	auth.RegisterRoutes(r, authSvc)
	books.RegisterRoutes(r, bookSvc)
	authors.RegisterRoutes(r, authorSvc)
	publishers.RegisterRoutes(r, publisherSvc)

	// 要ログイン
	user := r.Group("/", auth.RequireAuth(secret))
	rentals.RegisterUserRoutes(user, rentalSvc)

	// 管理者のみ。トークンに加えてDB側で削除済みでないことも確認する。
	admin := r.Group("/admin", auth.RequireAuth(secret), auth.RequireAdmin(authSvc))
	books.RegisterAdminRoutes(admin, bookSvc)
	authors.RegisterAdminRoutes(admin, authorSvc)
	publishers.RegisterAdminRoutes(admin, publisherSvc)
	rentals.RegisterAdminRoutes(admin, rentalSvc)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: r,
	}

	go func() {
		var err error
		if cfg.Certificate.Cert != "" && cfg.Certificate.Key != "" {
			certFile := "config/tls/" + mode + "/" + cfg.Certificate.Cert
			keyFile := "config/tls/" + mode + "/" + cfg.Certificate.Key
			log.Printf("[INFO] listening on https://%s", cfg.Listen)
			err = srv.ListenAndServeTLS(certFile, keyFile)
		} else {
			log.Printf("[INFO] listening on http://%s", cfg.Listen)
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Println("[INFO] shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
