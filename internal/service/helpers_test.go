package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/models"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/repo"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/testutil"
)

func newRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	return &repo.GormRepo{DB: testutil.NewDB(t)}
}

func seedUser(t *testing.T, r *repo.GormRepo, name, address string) *models.User {
	t.Helper()
	u := &models.User{
		Name:         name,
		Email:        uuid.NewString()[:8] + "@example.com",
		Phone:        "11 98888-0000",
		Address:      address,
		PasswordHash: "x",
	}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func seedGroup(t *testing.T, r *repo.GormRepo, name string, position int) *models.ProductGroup {
	t.Helper()
	g := &models.ProductGroup{Name: name, Position: position}
	require.NoError(t, r.CreateGroup(context.Background(), g))
	return g
}

func seedProduct(t *testing.T, r *repo.GormRepo, name string, price int64, available bool, group *uuid.UUID) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Description: name + " gelado", Price: price, Available: available, GroupID: group}
	require.NoError(t, r.CreateProduct(context.Background(), p))
	return p
}

type notice struct {
	Topic string
	Msg   any
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notice
}

func (f *fakeNotifier) Publish(_ context.Context, topic string, msg any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, notice{Topic: topic, Msg: msg})
}

func (f *fakeNotifier) Topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, n := range f.sent {
		out[i] = n.Topic
	}
	return out
}
