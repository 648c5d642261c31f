package test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"shelterflow/animal"
	"shelterflow/auth"
	"shelterflow/specie"
	"shelterflow/test/actors"
	"shelterflow/test/chaos"
	"shelterflow/test/infra"
	"shelterflow/test/oracles"
)

var (
	flDuration    = flag.Duration("duration", 60*time.Second, "how long to run stress")
	flConcurrency = flag.Int("concurrency", 8, "number of concurrent actors")
	flSeed        = flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flDSN         = flag.String("dsn", "", "existing Postgres DSN to reuse (avoids Docker)")
)

func TestShelterConcurrency(t *testing.T) {
	flag.Parse()
	seed := *flSeed
	rand.Seed(seed)

	var (
		pgC        *infra.PGContainer
		dsn        string
		err        error
		usedShared bool
	)
	ctx, cancel := context.WithTimeout(context.Background(), *flDuration+60*time.Second)
	defer cancel()

	switch {
	case *flDSN != "":
		dsn = *flDSN
		usedShared = true
		pgC = &infra.PGContainer{}
	case os.Getenv("SHELTERFLOW_TEST_PG_DSN") != "":
		dsn = os.Getenv("SHELTERFLOW_TEST_PG_DSN")
		usedShared = true
		pgC = &infra.PGContainer{}
	default:
		if dockerAvailable(ctx) {
			pgC, dsn, err = infra.StartPostgres16(ctx, "")
			if err != nil {
				t.Fatalf("start postgres: %v", err)
			}
		} else {
			dsn, err = infra.InitLocalDatabase(ctx)
			if err != nil {
				t.Fatalf("init local database: %v", err)
			}
			pgC = &infra.PGContainer{}
		}
	}
	defer pgC.Terminate(context.Background())

	pool, teardown, err := infra.ApplyMigrations(ctx, dsn, usedShared)
	if err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	defer pool.Close()
	defer func() {
		if err := teardown(context.Background()); err != nil {
			t.Logf("teardown warning: %v", err)
		}
	}()

	authSvc := auth.NewService(auth.NewRepository(pool), "stress-secret", time.Hour)
	animalSvc := animal.NewService(animal.NewRepository(pool))
	specieSvc := specie.NewService(specie.NewRepository(pool))

	seedData := mustSeed(t, ctx, pool, authSvc, specieSvc, animalSvc)

	g, ctx2 := errgroup.WithContext(ctx)
	stop := make(chan struct{})

	// registrars battling over the same login
	contestedLogin := fmt.Sprintf("contested-%d", rand.Int63())
	for i := 0; i < *flConcurrency; i++ {
		g.Go(func() error { return actors.Registrar(ctx2, authSvc, contestedLogin, stop) })
	}

	// owner mutating its animal, poacher trying to steal it
	g.Go(func() error { return actors.Owner(ctx2, animalSvc, seedData.ownerID, seedData.animalID, stop) })
	g.Go(func() error { return actors.Poacher(ctx2, animalSvc, seedData.rivalID, seedData.animalID, stop) })
	// breeders adding animals, some with missing species
	for i := 0; i < *flConcurrency/2; i++ {
		g.Go(func() error { return actors.Breeder(ctx2, animalSvc, seedData.ownerID, seedData.specieID, stop) })
	}
	// readers checking the price fallback stays intact
	g.Go(func() error { return actors.Lister(ctx2, animalSvc, stop) })
	// curator growing the reference data
	g.Go(func() error { return actors.Curator(ctx2, specieSvc, stop) })
	// chaos: kill random backend
	go chaos.TerminateRandomBackend(ctx2, pool, stop)

	deadline := time.Now().Add(*flDuration)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	var failed bool
loop:
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			name, row, err := oracles.Run(ctx2, pool)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					break loop
				}
				t.Fatalf("oracle error: %v", err)
			}
			if name != "" {
				failed = true
				dumpRecent(t, ctx2, pool)
				t.Fatalf("Oracle %s failed. First row: %s (seed=%d)", name, row, seed)
			}
		}
	}

	close(stop)
	if err := g.Wait(); err != nil && !failed {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("actors errored: %v", err)
		}
	}
}

func dockerAvailable(ctx context.Context) bool {
	if _, err := exec.LookPath("docker"); err != nil {
		return false
	}
	c := exec.CommandContext(ctx, "docker", "info")
	c.Stdout = io.Discard
	c.Stderr = io.Discard
	return c.Run() == nil
}

type seedIDs struct {
	ownerID  string
	rivalID  string
	specieID string
	animalID string
}

func mustSeed(t *testing.T, ctx context.Context, pool *pgxpool.Pool, authSvc *auth.Service, specieSvc *specie.Service, animalSvc *animal.Service) seedIDs {
	t.Helper()
	var s seedIDs

	owner, err := authSvc.Register(ctx, auth.RegisterRequest{
		Name:     "Owner Shelter",
		Login:    fmt.Sprintf("owner-%d", rand.Int63()),
		Password: "ownerpass",
		Address:  "1 Owner St",
	})
	if err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	s.ownerID = owner.ID

	rival, err := authSvc.Register(ctx, auth.RegisterRequest{
		Name:     "Rival Shelter",
		Login:    fmt.Sprintf("rival-%d", rand.Int63()),
		Password: "rivalpass",
		Address:  "2 Rival St",
	})
	if err != nil {
		t.Fatalf("seed rival: %v", err)
	}
	s.rivalID = rival.ID

	sp, err := specieSvc.Create(ctx, specie.CreateParams{
		Name:        fmt.Sprintf("dog-%d", rand.Int63()),
		Description: "stress dog",
		Price:       100,
	})
	if err != nil {
		t.Fatalf("seed specie: %v", err)
	}
	s.specieID = sp.ID

	a, err := animalSvc.Create(ctx, s.ownerID, animal.CreateParams{
		Name:   "Contested",
		Age:    3,
		Specie: s.specieID,
	})
	if err != nil {
		t.Fatalf("seed animal: %v", err)
	}
	s.animalID = a.ID

	return s
}

func dumpRecent(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()
	type dump struct {
		name string
		sql  string
	}
	dumps := []dump{
		{"centers", `SELECT id, name, login, created_at FROM centers ORDER BY created_at DESC LIMIT 50`},
		{"animals", `SELECT id, center_id, name, specie, age, price FROM animals ORDER BY updated_at DESC LIMIT 50`},
		{"species", `SELECT id, name, price FROM species ORDER BY created_at DESC LIMIT 50`},
		{"auth_events", `SELECT id, center_id, created_at FROM auth_events ORDER BY created_at DESC LIMIT 50`},
	}
	for _, d := range dumps {
		rows, err := pool.Query(ctx, d.sql)
		if err != nil {
			t.Logf("dump %s error: %v", d.name, err)
			continue
		}
		cols := rows.FieldDescriptions()
		t.Logf("-- %s --", d.name)
		for rows.Next() {
			vals, _ := rows.Values()
			buf := make([]any, 0, len(vals))
			for i := range vals {
				buf = append(buf, fmt.Sprintf("%s=%v", string(cols[i].Name), vals[i]))
			}
			t.Logf("%s", buf)
		}
		rows.Close()
	}
}
