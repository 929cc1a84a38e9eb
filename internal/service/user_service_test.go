package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	dom "Gatekeeper/internal/domain"
	"Gatekeeper/internal/repo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fakeUserRepo is an in-memory UserRepo enforcing username uniqueness the way
// the real table does: at insert time, never via a pre-check.
type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	byName map[string]dom.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byName: map[string]dom.User{}}
}

func (f *fakeUserRepo) Create(ctx context.Context, username, passwordHash string) (dom.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byName[username]; exists {
		return dom.User{}, repo.ErrDuplicateUsername
	}
	f.nextID++
	u := dom.User{ID: f.nextID, Username: username, PasswordHash: passwordHash}
	f.byName[username] = u
	return u, nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (dom.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byName[username]
	if !ok {
		return dom.User{}, repo.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (dom.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return dom.User{}, repo.ErrUserNotFound
}

func (f *fakeUserRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byName)
}

func newTestService(r repo.UserRepo) *UserService {
	return NewUserService(r, bcrypt.MinCost)
}

func TestRegister_EmptyFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		username string
		password string
		wantMsg  string
	}{
		{"empty username", "", "secret1", "Username is required."},
		{"blank username", "   ", "secret1", "Username is required."},
		{"empty password", "alice", "", "Password is required."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newFakeUserRepo()
			svc := newTestService(r)

			_, err := svc.Register(context.Background(), tt.username, tt.password)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantMsg, verr.Message)
			assert.Equal(t, 0, r.count(), "no record may be created on validation failure")
		})
	}
}

func TestRegister_Success(t *testing.T) {
	t.Parallel()

	r := newFakeUserRepo()
	svc := newTestService(r)

	u, err := svc.Register(context.Background(), "alice", "secret1")
	require.NoError(t, err)

	assert.Equal(t, "alice", u.Username)
	assert.NotZero(t, u.ID)
	assert.Equal(t, 1, r.count())

	// The stored hash must not be the plaintext and must verify against it.
	assert.NotEqual(t, "secret1", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret1")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret2")))
}

func TestRegister_DuplicateUsername(t *testing.T) {
	t.Parallel()

	r := newFakeUserRepo()
	svc := newTestService(r)

	_, err := svc.Register(context.Background(), "alice", "secret1")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "alice", "other")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "User alice is already registered.", verr.Message)
	assert.True(t, errors.Is(err, repo.ErrDuplicateUsername))
	assert.Equal(t, 1, r.count(), "exactly one record for the username")
}

func TestLogin_IncorrectUsername(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeUserRepo())

	_, err := svc.Login(context.Background(), "nobody", "whatever")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Incorrect username", verr.Message)
}

func TestLogin_IncorrectPassword(t *testing.T) {
	t.Parallel()

	r := newFakeUserRepo()
	svc := newTestService(r)
	_, err := svc.Register(context.Background(), "alice", "secret1")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "alice", "wrong")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Incorrect password.", verr.Message)
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	r := newFakeUserRepo()
	svc := newTestService(r)
	registered, err := svc.Register(context.Background(), "alice", "secret1")
	require.NoError(t, err)

	got, err := svc.Login(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, got.ID)
	assert.Equal(t, "alice", got.Username)
}

func TestRegister_ConcurrentSameUsername(t *testing.T) {
	t.Parallel()

	r := newFakeUserRepo()
	svc := newTestService(r)

	const n = 8
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Register(context.Background(), "alice", "secret1")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		if errors.Is(err, repo.ErrDuplicateUsername) {
			dup++
		}
	}
	assert.Equal(t, 1, ok, "exactly one registration wins")
	assert.Equal(t, n-1, dup)
	assert.Equal(t, 1, r.count())
}
