package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/classpulse/embedapi/internal/auth"
	"github.com/classpulse/embedapi/internal/config"
	"github.com/classpulse/embedapi/internal/db/models"
	"github.com/classpulse/embedapi/internal/powerbi"
	"github.com/classpulse/embedapi/internal/repository"
)

// memUserRepo is an in-memory UserRepository for handler tests.
type memUserRepo struct {
	users map[string]*models.User
}

func newMemUserRepo(users ...*models.User) *memUserRepo {
	r := &memUserRepo{users: make(map[string]*models.User)}
	for _, u := range users {
		r.users[u.Email] = u
	}
	return r
}

func (r *memUserRepo) Create(_ context.Context, user *models.User) error {
	r.users[user.Email] = user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := r.users[email]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

func (r *memUserRepo) Update(_ context.Context, user *models.User) error {
	r.users[user.Email] = user
	return nil
}

func (r *memUserRepo) TouchLastLogin(_ context.Context, _ string) error { return nil }

// stubBroker returns a canned embed session or a canned error.
type stubBroker struct {
	info *powerbi.EmbedInfo
	err  error

	// lastIdentity records what the handler passed down.
	lastIdentity auth.Identity
}

func (b *stubBroker) GetEmbedInfo(_ context.Context, identity auth.Identity) (*powerbi.EmbedInfo, error) {
	b.lastIdentity = identity
	if b.err != nil {
		return nil, b.err
	}
	return b.info, nil
}

func testConfig() *config.Config {
	return &config.Config{
		AllowedOrigins: []string{"http://localhost:4200"},
		JWT: config.JWTConfig{
			Secret:   "server-test-signing-key",
			Issuer:   "embedapi-test",
			Audience: "embedapi-test-clients",
			TTL:      time.Hour,
		},
		Cookie: config.CookieConfig{
			Name:   "token",
			Secure: true,
		},
		RevocationBackend: "memory",
	}
}

// testFixture bundles everything a handler test needs.
type testFixture struct {
	cfg       *config.Config
	issuer    *auth.Issuer
	validator *auth.Validator
	registry  *auth.MemoryRegistry
	users     *memUserRepo
}

// newTestFixture seeds one teacher and one student account, both with
// password "pw". Hashing uses the minimum cost to keep the suite fast.
func newTestFixture(t *testing.T) *testFixture {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)

	users := newMemUserRepo(
		&models.User{ID: "u-teacher", Email: "mentor@example.com", Role: "teacher", PasswordHash: string(hash)},
		&models.User{ID: "u-student", Email: "student@example.com", Role: "student", PasswordHash: string(hash)},
	)

	cfg := testConfig()
	issuer, err := auth.NewIssuer(users, cfg.JWT)
	require.NoError(t, err)
	registry := auth.NewMemoryRegistry()

	return &testFixture{
		cfg:       cfg,
		issuer:    issuer,
		validator: auth.NewValidator(registry, cfg.JWT),
		registry:  registry,
		users:     users,
	}
}

func (f *testFixture) router(broker EmbedBroker) http.Handler {
	return NewRouter(RouterOptions{
		Issuer:    f.issuer,
		Validator: f.validator,
		Registry:  f.registry,
		Broker:    broker,
		Cfg:       f.cfg,
	})
}

// login issues a token directly through the issuer, bypassing HTTP.
func (f *testFixture) login(email string) (string, *auth.Claims, error) {
	return f.issuer.Issue(context.Background(), email, "pw")
}

func jsonDecode(rec *httptest.ResponseRecorder, v any) error {
	return json.Unmarshal(rec.Body.Bytes(), v)
}
