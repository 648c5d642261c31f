package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"shelterflow/animal"
	"shelterflow/auth"
	"shelterflow/specie"
)

// Registrar hammers Register with the same login concurrently. Any outcome
// other than success or a duplicate-login conflict is a violation; the
// uniqueness oracle catches the case where more than one insert won.
func Registrar(ctx context.Context, svc *auth.Service, login string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		_, err := svc.Register(ctx, auth.RegisterRequest{
			Name:     "Race Shelter",
			Login:    login,
			Password: "supersafe",
			Address:  "1 Race Way",
		})
		if err != nil && !errors.Is(err, auth.ErrDuplicateLogin) && !transient(err) {
			return fmt.Errorf("registrar: %w", err)
		}
		time.Sleep(time.Duration(10+rand.Intn(20)) * time.Millisecond)
	}
}

// Owner applies sparse updates to its own animal. Unspecified fields must
// survive every merge; the oracles verify the record stays well-formed.
func Owner(ctx context.Context, svc *animal.Service, centerID, animalID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		age := rand.Intn(20)
		err := svc.Update(ctx, centerID, animalID, animal.UpdatePatch{Age: &age})
		if err != nil && !errors.Is(err, animal.ErrNotFound) && !transient(err) {
			return fmt.Errorf("owner update: %w", err)
		}
		time.Sleep(time.Duration(15+rand.Intn(30)) * time.Millisecond)
	}
}

// Poacher tries to mutate an animal it does not own. Any mutation that goes
// through is a hard violation of the ownership gate.
func Poacher(ctx context.Context, svc *animal.Service, centerID, animalID string, stop <-chan struct{}) error {
	name := "stolen"
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		err := svc.Update(ctx, centerID, animalID, animal.UpdatePatch{Name: &name})
		if err == nil {
			return fmt.Errorf("poacher: update of foreign animal succeeded")
		}
		if !errors.Is(err, animal.ErrNotOwner) && !errors.Is(err, animal.ErrNotFound) && !transient(err) {
			return fmt.Errorf("poacher update: %w", err)
		}

		err = svc.Delete(ctx, centerID, animalID)
		if err == nil {
			return fmt.Errorf("poacher: delete of foreign animal succeeded")
		}
		if !errors.Is(err, animal.ErrNotOwner) && !errors.Is(err, animal.ErrNotFound) && !transient(err) {
			return fmt.Errorf("poacher delete: %w", err)
		}
		time.Sleep(time.Duration(20+rand.Intn(40)) * time.Millisecond)
	}
}

// Lister reads the animal views and checks the price fallback holds under
// concurrent writes: every view must carry a positive effective price.
func Lister(ctx context.Context, svc *animal.Service, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		views, err := svc.List(ctx)
		if err != nil {
			if !transient(err) {
				return fmt.Errorf("lister: %w", err)
			}
		} else {
			for _, v := range views {
				if v.Price <= 0 {
					return fmt.Errorf("lister: view %s has no effective price", v.ID)
				}
			}
		}
		time.Sleep(time.Duration(25+rand.Intn(50)) * time.Millisecond)
	}
}

// Breeder adds animals referencing a known specie and occasionally a missing
// one, expecting the conflict error for the latter.
func Breeder(ctx context.Context, svc *animal.Service, centerID, specieID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		target := specieID
		wantConflict := rand.Intn(4) == 0
		if wantConflict {
			target = "no-such-specie"
		}
		_, err := svc.Create(ctx, centerID, animal.CreateParams{
			Name:   fmt.Sprintf("animal-%d", rand.Int63()),
			Age:    rand.Intn(15),
			Specie: target,
		})
		switch {
		case wantConflict && err == nil:
			return fmt.Errorf("breeder: create with missing specie succeeded")
		case wantConflict && !errors.Is(err, animal.ErrSpecieNotFound) && !transient(err):
			return fmt.Errorf("breeder: unexpected error for missing specie: %w", err)
		case !wantConflict && err != nil && !transient(err):
			return fmt.Errorf("breeder: %w", err)
		}
		time.Sleep(time.Duration(30+rand.Intn(60)) * time.Millisecond)
	}
}

// Curator adds species reference data.
func Curator(ctx context.Context, svc *specie.Service, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		_, err := svc.Create(ctx, specie.CreateParams{
			Name:        fmt.Sprintf("specie-%d", rand.Int63()),
			Description: "stress specie",
			Price:       float64(1 + rand.Intn(500)),
		})
		if err != nil && !transient(err) {
			return fmt.Errorf("curator: %w", err)
		}
		time.Sleep(time.Duration(50+rand.Intn(100)) * time.Millisecond)
	}
}

// transient reports whether the error looks like a connection-level failure,
// expected while chaos terminates backends.
func transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := err.Error()
	for _, needle := range []string{
		"terminating connection",
		"connection reset",
		"unexpected EOF",
		"conn closed",
		"closed pool",
		"failed to connect",
	} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
