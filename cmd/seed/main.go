// seed creates or updates the admin user and the stores it manages.
//
// Usage:
//
//	SEED_ADMIN_EMAIL=... SEED_ADMIN_PASSWORD=... SEED_STORES="cesoir:Ce Soir:cesoir@example.com,north:North" go run ./cmd/seed
//
// The remaining settings come from the same environment as the server.
package main

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/pettycash/internal/auth"
	"github.com/mamadbah2/pettycash/internal/config"
	"github.com/mamadbah2/pettycash/internal/domain/models"
	"github.com/mamadbah2/pettycash/internal/repository/mongodb"
	"github.com/mamadbah2/pettycash/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}
	log := logger.Must(logger.New(cfg.LogLevel)).Named("seed")
	defer func() { _ = log.Sync() }()

	email := strings.ToLower(strings.TrimSpace(os.Getenv("SEED_ADMIN_EMAIL")))
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD must be provided")
	}

	stores, err := parseStores(os.Getenv("SEED_STORES"))
	if err != nil {
		log.Fatal("invalid SEED_STORES", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	repo, err := mongodb.NewRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, log.Named("repo.mongo"))
	if err != nil {
		log.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() { _ = repo.Close(context.Background()) }()

	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Fatal("failed to ensure indexes", zap.Error(err))
	}

	ids := make([]string, 0, len(stores))
	for _, s := range stores {
		if err := repo.UpsertStore(ctx, s); err != nil {
			log.Fatal("failed to upsert store", zap.String("store", s.ID), zap.Error(err))
		}
		ids = append(ids, s.ID)
		log.Info("store saved", zap.String("store", s.ID))
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatal("failed to hash password", zap.Error(err))
	}

	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         "Administrator",
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Stores:       ids,
	}
	// Reuse the existing id so issued tokens and audit stamps stay valid.
	existing, err := repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		user.ID = existing.ID
		user.Name = existing.Name
	case !errors.Is(err, models.ErrNotFound):
		log.Fatal("failed to look up admin", zap.Error(err))
	}

	if err := repo.UpsertUser(ctx, user); err != nil {
		log.Fatal("failed to upsert admin", zap.Error(err))
	}
	log.Info("admin saved", zap.String("email", email), zap.String("id", user.ID), zap.Int("stores", len(ids)))
}

// parseStores reads "id:name[:email]" items separated by commas.
func parseStores(raw string) ([]models.Store, error) {
	var out []models.Store
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.SplitN(item, ":", 3)
		if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" || strings.TrimSpace(parts[1]) == "" {
			return nil, errors.New("each store needs at least id:name, got " + item)
		}
		s := models.Store{
			ID:     models.NormalizeStoreID(parts[0]),
			Name:   strings.TrimSpace(parts[1]),
			Active: true,
		}
		if len(parts) == 3 {
			s.Email = strings.TrimSpace(parts[2])
		}
		out = append(out, s)
	}
	return out, nil
}
