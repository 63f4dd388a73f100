// main.go
package main

import (
	"log"

	"github.com/blogforge/blogforge-api/auth"
	"github.com/blogforge/blogforge-api/blogs"
	"github.com/blogforge/blogforge-api/internal/config"
	"github.com/blogforge/blogforge-api/internal/platform"
	"github.com/blogforge/blogforge-api/models"
	"github.com/blogforge/blogforge-api/pipeline"
	"github.com/blogforge/blogforge-api/store"
	"github.com/blogforge/blogforge-api/translate"
	"github.com/blogforge/blogforge-api/worker"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type Server struct {
	Config config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Router *gin.Engine
}

func NewServer() (*Server, error) {
	cfg := config.Load()

	db := platform.NewDBConnection(cfg)
	rdb := platform.NewRedisClient(cfg)

	if err := db.AutoMigrate(&models.User{}, &models.Session{}, &models.BlogPost{}); err != nil {
		return nil, err
	}

	router := gin.Default()

	// CORS middleware for the frontend
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", cfg.FrontendURL)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	posts := store.NewBlogPosts(db)
	pl := pipeline.New(cfg, posts)
	translator := translate.New(cfg.OpenAIAPIKey)
	queue := worker.NewProcessor(rdb)

	authHandler := auth.NewHandler(db, cfg.JWTSecret)
	blogHandler := blogs.NewHandler(posts, pl, translator, queue, cfg.BaseURL)

	// Public auth routes
	router.POST("/signup", authHandler.Signup)
	router.POST("/login", authHandler.Login)
	router.POST("/logout", authHandler.Logout)
	router.POST("/change-password", authHandler.ChangePassword)
	router.POST("/forgot-password", authHandler.ForgotPassword)

	// Authenticated routes
	authed := router.Group("/")
	authed.Use(auth.Middleware(db, cfg.JWTSecret))
	{
		authed.GET("/me", authHandler.GetCurrentUser)

		authed.POST("/generate-blog", blogHandler.GenerateBlog)
		authed.POST("/generate-blog-async", blogHandler.GenerateBlogAsync)

		authed.GET("/blogs", blogHandler.ListBlogs)
		authed.GET("/blogs/deleted", blogHandler.ListDeletedBlogs)
		authed.GET("/blogs/:id", blogHandler.GetBlog)
		authed.POST("/blogs/:id/delete", blogHandler.DeleteBlog)
		authed.POST("/blogs/:id/restore", blogHandler.RestoreBlog)
		authed.POST("/blogs/permanent-delete", blogHandler.PermanentDeleteBlogs)

		authed.GET("/blogs/:id/qr", blogHandler.BlogQR)
		authed.GET("/blogs/:id/pdf", blogHandler.BlogPDF)
		authed.POST("/share/whatsapp", blogHandler.ShareWhatsApp)

		authed.POST("/translate", blogHandler.TranslateBlog)
	}

	return &Server{Config: cfg, DB: db, Redis: rdb, Router: router}, nil
}

func main() {
	server, err := NewServer()
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	addr := ":" + server.Config.Port
	log.Printf("API server listening on %s", addr)
	if err := server.Router.Run(addr); err != nil {
		log.Fatalf("Server terminated: %v", err)
	}
}
