package main

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"inkwell/internal/auth"
	"inkwell/internal/cache"
	"inkwell/internal/captcha"
	"inkwell/internal/config"
	"inkwell/internal/db"
	"inkwell/internal/handler"
	"inkwell/internal/mail"
	"inkwell/internal/model"
	"inkwell/internal/repository"
	"inkwell/internal/router"
	"inkwell/internal/service"
	"inkwell/internal/token"
)

func main() {
	cfg := config.Load()

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	// Run migrations for all models
	if err := gormDB.AutoMigrate(
		&model.Role{},
		&model.User{},
		&model.Follow{},
		&model.Post{},
		&model.Comment{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Initialize repositories
	roleRepo := repository.NewRoleRepository(gormDB)
	userRepo := repository.NewUserRepository(gormDB)
	followRepo := repository.NewFollowRepository(gormDB)
	postRepo := repository.NewPostRepository(gormDB)
	commentRepo := repository.NewCommentRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.SecretKey)
	codec := token.NewCodec(cfg.SecretKey, cfg.TokenTTL)
	codes := captcha.New(cacheClient)

	mailer, err := mail.NewSMTPSender(
		cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword,
		cfg.MailSender, cfg.MailPrefix,
	)
	if err != nil {
		log.Fatalf("mail init: %v", err)
	}

	// Initialize services
	roleService := service.NewRoleService(roleRepo)
	accountService := service.NewAccountService(
		userRepo, roleRepo, followRepo, codec, jwtService, codes, mailer, cfg.AdminEmail)
	userService := service.NewUserService(userRepo, roleRepo, cacheClient)
	followService := service.NewFollowService(followRepo, userRepo)
	postService := service.NewPostService(postRepo, userRepo)
	commentService := service.NewCommentService(commentRepo, postRepo)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(accountService, codes)
	userHandler := handler.NewUserHandler(userService, followService, postService, cfg)
	postHandler := handler.NewPostHandler(postService, cfg)
	commentHandler := handler.NewCommentHandler(commentService, cfg)

	// Register routes
	router.Register(
		e,
		cfg,
		userRepo,
		jwtService,
		accountService,
		roleService,
		authHandler,
		userHandler,
		postHandler,
		commentHandler,
	)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
