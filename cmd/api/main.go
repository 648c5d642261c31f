package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"shelterflow/animal"
	"shelterflow/auth"
	"shelterflow/center"
	"shelterflow/db"
	"shelterflow/specie"
)

const defaultTokenTTL = 24 * time.Hour

func main() {
	ctx := context.Background()

	connString := os.Getenv("DATABASE_URL")
	pool, err := db.NewPool(ctx, connString)
	if err != nil {
		log.Fatalf("bootstrap database pool: %v", err)
	}
	defer pool.Close()

	jwtSecret := os.Getenv("SHELTERFLOW_JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("SHELTERFLOW_JWT_SECRET must be set")
	}

	tokenTTL := defaultTokenTTL
	if raw := os.Getenv("SHELTERFLOW_TOKEN_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl < 0 {
			log.Fatalf("invalid SHELTERFLOW_TOKEN_TTL %q", raw)
		}
		tokenTTL = ttl
	}

	authService := auth.NewService(auth.NewRepository(pool), jwtSecret, tokenTTL)
	animalService := animal.NewService(animal.NewRepository(pool))
	specieService := specie.NewService(specie.NewRepository(pool))
	centerService := center.NewService(center.NewRepository(pool))

	server := NewServer(authService, animalService, specieService, centerService)

	addr := os.Getenv("SHELTERFLOW_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	log.Printf("shelterflow api listening on %s", addr)
	if err := http.ListenAndServe(addr, server); err != nil {
		log.Fatalf("http server: %v", err)
	}
}
