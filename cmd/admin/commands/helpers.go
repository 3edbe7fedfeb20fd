package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/abcode/codelens/internal/config"
	"github.com/abcode/codelens/internal/database"
	"github.com/abcode/codelens/internal/queue"
	"github.com/google/uuid"
)

// deps holds the connections shared by admin commands
type deps struct {
	db       *database.DB
	jobQueue queue.JobQueue
}

func (d *deps) close() {
	if d.jobQueue != nil {
		if err := d.jobQueue.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close RabbitMQ: %v\n", err)
		}
	}
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}
}

// connect loads configuration and opens the database and job queue
func connect() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	return &deps{db: db, jobQueue: jobQueue}, nil
}

// resolveUser accepts either a user UUID or an email address
func resolveUser(ctx context.Context, db *database.DB, userArg string) (uuid.UUID, error) {
	if id, err := uuid.Parse(userArg); err == nil {
		return id, nil
	}

	users := database.NewUserRepository(db)
	user, err := users.GetByEmail(ctx, userArg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to look up user %q: %w", userArg, err)
	}
	return user.ID, nil
}
