package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestService_RegisterAndLogin(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret", 24*time.Hour)

	req := RegisterRequest{
		Name:     "North Shelter",
		Login:    "north",
		Password: "supersafe",
		Address:  "1 Shelter Way",
	}

	ctx := context.Background()
	center, err := svc.Register(ctx, req)
	if err != nil {
		t.Fatalf("register: unexpected error: %v", err)
	}

	if center.Login != req.Login {
		t.Fatalf("expected login %q got %q", req.Login, center.Login)
	}
	if center.PasswordHash == req.Password {
		t.Fatal("register: password stored in plaintext")
	}

	resp, err := svc.Login(ctx, LoginRequest{Login: req.Login, Password: req.Password})
	if err != nil {
		t.Fatalf("login: unexpected error: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("login: expected token, got empty string")
	}
	if resp.Center.ID != center.ID {
		t.Fatalf("login: expected center id %q got %q", center.ID, resp.Center.ID)
	}

	tokenCenterID, err := svc.VerifyToken(resp.Token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if tokenCenterID != center.ID {
		t.Fatalf("verify token: expected %q got %q", center.ID, tokenCenterID)
	}

	fetched, err := svc.GetCenterByID(ctx, tokenCenterID)
	if err != nil {
		t.Fatalf("get center by id: %v", err)
	}
	if fetched.Login != req.Login {
		t.Fatalf("expected login %q got %q", req.Login, fetched.Login)
	}
}

func TestService_LoginAppendsAuthEvent(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret", 24*time.Hour)

	ctx := context.Background()
	center, err := svc.Register(ctx, RegisterRequest{
		Name: "N", Login: "north", Password: "supersafe", Address: "A",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, LoginRequest{Login: "north", Password: "supersafe"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := svc.Login(ctx, LoginRequest{Login: "north", Password: "wrong-pass"}); err == nil {
		t.Fatal("expected failed login")
	}

	events, err := svc.AuthEvents(ctx, center.ID, 10)
	if err != nil {
		t.Fatalf("auth events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly one auth event, got %d", len(events))
	}
	if events[0].CenterID != center.ID {
		t.Fatalf("auth event center id mismatch: %q", events[0].CenterID)
	}
}

func TestService_RegisterValidation(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret", 24*time.Hour)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "North Shelter",
		Login:    "north",
		Password: "short",
		Address:  "1 Shelter Way",
	})
	if !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}

	if _, err := svc.Register(context.Background(), RegisterRequest{
		Login:    "",
		Password: "strongpassword",
	}); err == nil {
		t.Fatal("expected validation error for missing fields")
	}
}

func TestService_DuplicateLogin(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret", 24*time.Hour)

	req := RegisterRequest{
		Name:     "North Shelter",
		Login:    "north",
		Password: "strongpassword",
		Address:  "1 Shelter Way",
	}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	if _, err := svc.Register(context.Background(), req); !errors.Is(err, ErrDuplicateLogin) {
		t.Fatalf("expected ErrDuplicateLogin, got %v", err)
	}
}

func TestService_LoginInvalidCredentials(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret", 24*time.Hour)

	_, err := svc.Login(context.Background(), LoginRequest{
		Login:    "unknown",
		Password: "irrelevant",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestService_VerifyToken_Invalid(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret", 24*time.Hour)

	for _, token := range []string{"", "not-a-token", "aaa.bbb.ccc"} {
		if _, err := svc.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestService_VerifyToken_WrongSecret(t *testing.T) {
	repo := newFakeRepository()
	issuer := NewService(repo, "secret-one", 24*time.Hour)
	verifier := NewService(repo, "secret-two", 24*time.Hour)

	ctx := context.Background()
	if _, err := issuer.Register(ctx, RegisterRequest{
		Name: "N", Login: "north", Password: "supersafe", Address: "A",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	resp, err := issuer.Login(ctx, LoginRequest{Login: "north", Password: "supersafe"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := verifier.VerifyToken(resp.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for forged signature, got %v", err)
	}
}

func TestService_VerifyToken_Expired(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, "test-secret", time.Minute)
	svc.WithClock(func() time.Time { return time.Now().Add(-2 * time.Minute) })

	ctx := context.Background()
	if _, err := svc.Register(ctx, RegisterRequest{
		Name: "N", Login: "north", Password: "supersafe", Address: "A",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	resp, err := svc.Login(ctx, LoginRequest{Login: "north", Password: "supersafe"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := svc.VerifyToken(resp.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

type fakeRepository struct {
	centersByLogin map[string]Center
	centersByID    map[string]Center
	events         []AuthEvent
	nextID         int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		centersByLogin: make(map[string]Center),
		centersByID:    make(map[string]Center),
		nextID:         1,
	}
}

func (f *fakeRepository) CreateCenter(ctx context.Context, params CreateCenterParams) (Center, error) {
	if _, exists := f.centersByLogin[params.Login]; exists {
		return Center{}, ErrDuplicateLogin
	}

	id := params.ID
	if id == "" {
		id = fmt.Sprintf("center-%d", f.nextID)
		f.nextID++
	}

	center := Center{
		ID:           id,
		Name:         params.Name,
		Login:        params.Login,
		PasswordHash: params.PasswordHash,
		Address:      params.Address,
		CreatedAt:    time.Now().UTC(),
	}
	f.centersByLogin[center.Login] = center
	f.centersByID[center.ID] = center
	return center, nil
}

func (f *fakeRepository) GetCenterByLogin(ctx context.Context, login string) (Center, error) {
	center, ok := f.centersByLogin[login]
	if !ok {
		return Center{}, ErrCenterNotFound
	}
	return center, nil
}

func (f *fakeRepository) GetCenterByID(ctx context.Context, centerID string) (Center, error) {
	center, ok := f.centersByID[centerID]
	if !ok {
		return Center{}, ErrCenterNotFound
	}
	return center, nil
}

func (f *fakeRepository) InsertAuthEvent(ctx context.Context, eventID, centerID string) error {
	f.events = append(f.events, AuthEvent{
		ID:        eventID,
		CenterID:  centerID,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (f *fakeRepository) ListAuthEvents(ctx context.Context, centerID string, limit int) ([]AuthEvent, error) {
	out := make([]AuthEvent, 0, len(f.events))
	for _, ev := range f.events {
		if ev.CenterID == centerID {
			out = append(out, ev)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
