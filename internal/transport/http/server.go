package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"engagement/internal/config"
	"engagement/internal/database"
	"engagement/internal/handler"
	"engagement/internal/mailer"
	"engagement/internal/model"
	"engagement/internal/queue"
	"engagement/internal/redis"
	"engagement/internal/repository"
	"engagement/internal/service"
	"engagement/internal/target"
	"engagement/internal/worker"
)

// Run wires the whole application together and serves until SIGINT/SIGTERM.
func Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Connect to Database
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// 3. Repositories
	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	reactionRepo := repository.NewReactionRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	// 4. Target registry. Client-supplied type strings resolve only through
	// these entries.
	registry := target.NewRegistry()
	registerTargets(registry, postRepo, commentRepo)

	// 5. Notification pipeline
	notifier := service.NewNotifier(userRepo, commentRepo, registry,
		mailer.NewSMTPMailer(cfg.SMTP), cfg.Notifications)
	workerHandler := worker.NewHandler(notifier)

	var publisher queue.Publisher
	var manager *worker.Manager
	if cfg.Notifications.Queue {
		redisClient, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to create redis client: %w", err)
		}
		defer redisClient.Close()
		if err := redisClient.Ping(ctx); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}

		publisher = queue.NewPublisher(redisClient.Client)

		manager = worker.NewManager(queue.NewConsumer(redisClient.Client), workerHandler, worker.DefaultManagerConfig())
		if err := manager.Start(ctx); err != nil {
			return fmt.Errorf("failed to start workers: %w", err)
		}
		defer manager.Stop()
	} else {
		publisher = worker.NewInlinePublisher(workerHandler)
	}

	// 6. Services
	authService := service.NewAuthService(userRepo, refreshTokenRepo, cfg)
	userService := service.NewUserService(userRepo)
	reactionService := service.NewReactionService(reactionRepo, registry, cfg)
	commentService := service.NewCommentService(commentRepo, userRepo, reactionRepo, registry, publisher, cfg)

	// 7. Router
	router := NewRouter(RouterConfig{
		AuthHandler:     handler.NewAuthHandler(authService, userService),
		ReactionHandler: handler.NewReactionHandler(reactionService),
		CommentHandler:  handler.NewCommentHandler(commentService),
		JWTSecret:       cfg.JWTSecret,
	})

	server := &stdhttp.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] Listening on :%s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Println("[Server] Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Println("[Server] Stopped")
	return nil
}

// registerTargets declares the built-in reactable/commentable types.
// Registering comments as a target is what gives comments their own reaction
// summaries.
func registerTargets(registry *target.Registry, postRepo repository.PostRepository, commentRepo repository.CommentRepository) {
	registry.Register(model.TargetTypePost, target.Definition{
		Lookup: func(ctx context.Context, id int64) (target.Record, error) {
			post, err := postRepo.GetByID(ctx, id)
			if err != nil {
				if errors.Is(err, model.ErrPostNotFound) {
					return nil, model.ErrTargetNotFound
				}
				return nil, err
			}
			return postRecord{post}, nil
		},
	})

	registry.Register(model.TargetTypeComment, target.Definition{
		Lookup: func(ctx context.Context, id int64) (target.Record, error) {
			comment, err := commentRepo.GetByID(ctx, id)
			if err != nil {
				if errors.Is(err, model.ErrCommentNotFound) {
					return nil, model.ErrTargetNotFound
				}
				return nil, err
			}
			return commentRecord{comment}, nil
		},
	})
}

type postRecord struct {
	post *model.Post
}

func (r postRecord) RecordID() int64 { return r.post.ID }
func (r postRecord) OwnerID() int64  { return r.post.UserID }

type commentRecord struct {
	comment *model.Comment
}

func (r commentRecord) RecordID() int64 { return r.comment.ID }
func (r commentRecord) OwnerID() int64  { return r.comment.UserID }
