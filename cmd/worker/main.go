package main

import (
	"context"
	"log"

	"github.com/blogforge/blogforge-api/internal/config"
	"github.com/blogforge/blogforge-api/internal/platform"
	"github.com/blogforge/blogforge-api/pipeline"
	"github.com/blogforge/blogforge-api/store"
	"github.com/blogforge/blogforge-api/tasks"
	"github.com/blogforge/blogforge-api/worker"
)

func main() {
	cfg := config.Load()

	db := platform.NewDBConnection(cfg)
	rdb := platform.NewRedisClient(cfg)
	ctx := context.Background()

	posts := store.NewBlogPosts(db)
	pl := pipeline.New(cfg, posts)

	processor := worker.NewProcessor(rdb)
	generation := &worker.Generation{Posts: posts, Pipeline: pl}
	processor.Register(tasks.QueueBlogGenerate, generation.HandleBlogGeneration(processor))

	log.Println("Worker started, waiting for queue tasks...")
	processor.Listen(ctx, tasks.QueueBlogGenerate)
}
