package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ikkim/store-rating-backend/internal/app/model"
	"github.com/ikkim/store-rating-backend/internal/app/repository"
	"github.com/ikkim/store-rating-backend/internal/authz"
	"github.com/ikkim/store-rating-backend/internal/db"
	"github.com/ikkim/store-rating-backend/internal/storage"
	"github.com/ikkim/store-rating-backend/pkg/util"
)

func TestMain(m *testing.M) {
	util.BcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type fixture struct {
	db      *gorm.DB
	users   repository.UserRepository
	stores  repository.StoreRepository
	ratings repository.RatingRepository
	stats   repository.StatsRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	return &fixture{
		db:      testDB,
		users:   repository.NewUserRepository(testDB),
		stores:  repository.NewStoreRepository(testDB),
		ratings: repository.NewRatingRepository(testDB),
		stats:   repository.NewStatsRepository(testDB),
	}
}

// user inserts a user whose password is "password123" and returns it with
// the matching actor.
func (f *fixture) user(t *testing.T, name string, role model.Role) (*model.User, authz.Actor) {
	t.Helper()
	hashed, err := util.HashPassword("password123")
	require.NoError(t, err)

	u := &model.User{
		Name:         name,
		Email:        fmt.Sprintf("%s@example.com", name),
		PasswordHash: hashed,
		Role:         role,
	}
	require.NoError(t, f.users.Create(u))
	return u, authz.Actor{ID: u.ID, Role: u.Role}
}

func (f *fixture) store(t *testing.T, name string, ownerID uint) *model.Store {
	t.Helper()
	s := &model.Store{Name: name, Address: name + " street", OwnerID: ownerID}
	require.NoError(t, f.stores.Create(s))
	return s
}

func (f *fixture) rating(t *testing.T, userID, storeID uint, score int, at time.Time) *model.Rating {
	t.Helper()
	r := &model.Rating{UserID: userID, StoreID: storeID, Score: score, CreatedAt: at, UpdatedAt: at}
	require.NoError(t, f.db.Create(r).Error)
	return r
}

type publishedEvent struct {
	storeID uint
	event   string
	score   int
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) PublishRating(storeID uint, event string, rating *model.Rating) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{storeID: storeID, event: event, score: rating.Score})
}

func (p *recordingPublisher) recorded() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

type fakeRevoker struct {
	revoked map[string]time.Duration
	err     error
}

func newFakeRevoker() *fakeRevoker {
	return &fakeRevoker{revoked: make(map[string]time.Duration)}
}

func (r *fakeRevoker) Revoke(_ context.Context, token string, ttl time.Duration) error {
	if r.err != nil {
		return r.err
	}
	r.revoked[token] = ttl
	return nil
}

func (r *fakeRevoker) IsRevoked(_ context.Context, token string) (bool, error) {
	_, ok := r.revoked[token]
	return ok, r.err
}

type stubPresigner struct {
	calls int
}

func (p *stubPresigner) PresignStoreImage(_ context.Context, storeID uint, filename, contentType string) (*storage.PresignedUpload, error) {
	p.calls++
	key := fmt.Sprintf("stores/%d/%s", storeID, filename)
	return &storage.PresignedUpload{
		UploadURL: "https://uploads.test/" + key,
		FileURL:   "https://cdn.test/" + key,
		Key:       key,
		ExpiresAt: time.Now().Add(time.Minute),
	}, nil
}
