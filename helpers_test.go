package auth_test

import (
	"context"
	"testing"
	"time"

	auth "github.com/fahoumeabdelali/cfpnc-auth"
	"github.com/fahoumeabdelali/cfpnc-auth/database"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

type testConfig struct {
	signingKey string
	issuer     string
	login      time.Duration
	remember   time.Duration
	reset      time.Duration
	scope      auth.PasswordUpdateScope
}

func newTestConfig() *testConfig {
	return &testConfig{
		signingKey: "test-signing-key",
		issuer:     "cfpnc-test",
		reset:      time.Hour,
		scope:      auth.PasswordUpdateAll,
	}
}

func (c *testConfig) GetSigningKey() string                            { return c.signingKey }
func (c *testConfig) GetIssuer() string                                { return c.issuer }
func (c *testConfig) GetTokenExpiration() time.Duration                { return c.login }
func (c *testConfig) GetExtendedTokenDuration() time.Duration          { return c.remember }
func (c *testConfig) GetResetTokenExpiration() time.Duration           { return c.reset }
func (c *testConfig) GetBcryptCost() int                               { return bcrypt.MinCost }
func (c *testConfig) GetPasswordUpdateScope() auth.PasswordUpdateScope { return c.scope }

var testGrants = map[string][]string{
	"admin":     {"users.read", "users.write", "roles.manage"},
	"formateur": {"users.read", "courses.write"},
	"stagiaire": {"courses.read"},
	"empty":     {},
}

func setupDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := database.Open(database.DriverSQLite, ":memory:", false)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, auth.CreateSchema(ctx, db))
	require.NoError(t, auth.SeedRoles(ctx, db, testGrants))

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func setupAuther(t *testing.T, cfg *testConfig) (*auth.Auther, auth.RepositoryManager) {
	t.Helper()

	db := setupDB(t)
	repo := auth.NewRepositoryManager(db)
	repo.MustValidate()

	return auth.NewAuthenticator(repo, cfg).WithLogger(auth.NopLogger{}), repo
}

// seedUser creates a user with password and links the given roles
func seedUser(t *testing.T, repo auth.RepositoryManager, numcin, email, password string, roles ...string) *auth.User {
	t.Helper()
	ctx := context.Background()

	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)

	user, err := repo.Users().Create(ctx, &auth.User{
		NumCIN:       numcin,
		Name:         "User " + numcin,
		Email:        email,
		PasswordHash: hash,
	})
	require.NoError(t, err)

	for _, name := range roles {
		role, err := repo.Roles().GetByName(ctx, name)
		require.NoError(t, err)
		require.NoError(t, repo.Users().AttachRole(ctx, user.ID, role.ID))
	}

	return user
}

// MockUserStore implements auth.UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) FindByNumCIN(ctx context.Context, numcin string) (*auth.User, error) {
	args := m.Called(ctx, numcin)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUserStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserStore) UpdateAllPasswords(ctx context.Context, passwordHash string) (int64, error) {
	args := m.Called(ctx, passwordHash)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserStore) UpdatePassword(ctx context.Context, numcin, passwordHash string) error {
	args := m.Called(ctx, numcin, passwordHash)
	return args.Error(0)
}

// assertAuthError checks err is a rich error with the given status and text code
func assertAuthError(t *testing.T, err error, status int, textCode string) {
	t.Helper()

	var richErr *goerrors.Error
	if assert.ErrorAs(t, err, &richErr) {
		assert.Equal(t, status, richErr.Code)
		if textCode != "" {
			assert.Equal(t, textCode, richErr.TextCode)
		}
	}
}
