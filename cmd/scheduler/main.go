package main

import (
	"context"
	"log"
	"time"

	"github.com/blogforge/blogforge-api/internal/config"
	"github.com/blogforge/blogforge-api/internal/platform"
	"github.com/blogforge/blogforge-api/models"
	"github.com/blogforge/blogforge-api/store"
	"github.com/robfig/cron/v3"
)

// The scheduler runs housekeeping: purging expired sessions and permanently
// deleting posts that have sat in the recently-deleted state past retention.
// Run a single instance to avoid duplicate purges.
func main() {
	cfg := config.Load()
	db := platform.NewDBConnection(cfg)
	posts := store.NewBlogPosts(db)
	ctx := context.Background()

	c := cron.New()

	_, err := c.AddFunc("@hourly", func() {
		res := db.Where("expires_at < ?", time.Now()).Delete(&models.Session{})
		if res.Error != nil {
			log.Printf("Error purging expired sessions: %v", res.Error)
			return
		}
		if res.RowsAffected > 0 {
			log.Printf("Purged %d expired sessions", res.RowsAffected)
		}
	})
	if err != nil {
		log.Fatalf("Error scheduling session purge: %v", err)
	}

	_, err = c.AddFunc("@daily", func() {
		cutoff := time.Now().Add(-cfg.DeletedRetention)
		purged, err := posts.PurgeDeletedBefore(ctx, cutoff)
		if err != nil {
			log.Printf("Error purging deleted blogs: %v", err)
			return
		}
		if purged > 0 {
			log.Printf("Permanently deleted %d blogs past retention", purged)
		}
	})
	if err != nil {
		log.Fatalf("Error scheduling blog purge: %v", err)
	}

	c.Start()
	defer c.Stop()

	log.Println("Scheduler started")
	select {}
}
