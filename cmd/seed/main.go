// Package main seeds a development database with a small example: the user
// alice owning a "Recipes" folder with a private TEXT note "Cake".
//
// It reads the same configuration as the server, so the usual flags and
// environment variables select the database.
//
// Usage:
//
//	go run ./cmd/seed -data-path ./data
//	SEED_PASSWORD=secret go run ./cmd/seed -db-driver postgres -db-dsn postgres://...
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/foldernotes/notes-server/internal/auth"
	"github.com/foldernotes/notes-server/internal/config"
	"github.com/foldernotes/notes-server/internal/domain"
	"github.com/foldernotes/notes-server/internal/logger"
	"github.com/foldernotes/notes-server/internal/service"
	"github.com/foldernotes/notes-server/internal/store"
	"github.com/foldernotes/notes-server/internal/store/sqlstore"
	"github.com/foldernotes/notes-server/internal/validation"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg := logger.New(logger.Config{Level: logger.ParseLevel(cfg.Logger.Level), Environment: cfg.App.Environment})
	ctx := context.Background()

	st, err := sqlstore.Open(ctx, sqlstore.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		ConnectAttempts: cfg.Database.ConnectAttempts,
		ConnectBackoff:  cfg.Database.ConnectBackoff,
	}, lg.Logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password = "alice-password"
	}

	alice, err := ensureUser(ctx, st, "alice", "Alice", password)
	if err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}
	actor := alice.Identity()

	v := validation.New()
	folders := service.NewFolderService(st, v, lg.Logger)
	notes := service.NewNoteService(st, v, lg.Logger)

	folder, err := folders.Create(ctx, actor, service.FolderRequest{Name: "Recipes"})
	if err != nil {
		log.Fatalf("Failed to create folder: %v", err)
	}

	body := "200g flour\n200g sugar\n4 eggs\n200g butter"
	note, err := notes.Create(ctx, actor, service.CreateNoteRequest{
		Type:     domain.NoteTypeText,
		Heading:  "Cake",
		FolderID: folder.ID,
		Body:     &body,
	})
	if err != nil {
		log.Fatalf("Failed to create note: %v", err)
	}

	fmt.Printf("Seeded user %q (id %d), folder %q (id %d), private note %q (id %d)\n",
		alice.Username, alice.ID, folder.Name, folder.ID, note.Heading, note.ID)
}

// ensureUser creates the account or returns the existing one.
func ensureUser(ctx context.Context, st store.Store, username, name, password string) (*domain.User, error) {
	existing, err := st.GetUserByUsername(ctx, username)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.NewArgon2Hasher(auth.DefaultArgon2Params).Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{Username: username, Name: name, PasswordHash: hash}
	if err := st.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
