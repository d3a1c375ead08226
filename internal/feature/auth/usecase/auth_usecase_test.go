package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"employee_backend/internal/feature/auth/domain/entity"
	"employee_backend/internal/platform/hash"
	jwtauth "employee_backend/internal/platform/jwt"
	"employee_backend/internal/shared/apperr"
)

// mockUserRepository は UserRepository の関数フィールド型モックです。
type mockUserRepository struct {
	CreateFunc                func(ctx context.Context, user *entity.User) error
	FindByUsernameOrEmailFunc func(ctx context.Context, username, email string) (*entity.User, error)
	FindByUsernameFunc        func(ctx context.Context, username string) (*entity.User, error)
	FindByIDFunc              func(ctx context.Context, id string) (*entity.User, error)
}

func (m *mockUserRepository) Create(ctx context.Context, user *entity.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	user.ID = "generated-id"
	return nil // デフォルトは成功
}

func (m *mockUserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error) {
	if m.FindByUsernameOrEmailFunc != nil {
		return m.FindByUsernameOrEmailFunc(ctx, username, email)
	}
	return nil, ErrUserNotFound // デフォルトは未登録
}

func (m *mockUserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	if m.FindByUsernameFunc != nil {
		return m.FindByUsernameFunc(ctx, username)
	}
	return nil, ErrUserNotFound
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, ErrUserNotFound
}

// mockRevoker は TokenRevoker の関数フィールド型モックです。
type mockRevoker struct {
	RevokeFunc    func(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevokedFunc func(ctx context.Context, tokenID string) (bool, error)
}

func (m *mockRevoker) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if m.RevokeFunc != nil {
		return m.RevokeFunc(ctx, tokenID, expiresAt)
	}
	return nil
}

func (m *mockRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if m.IsRevokedFunc != nil {
		return m.IsRevokedFunc(ctx, tokenID)
	}
	return false, nil
}

// memoryUsers は本物のストアと同じく一意性を守る小さなインメモリ UserRepository です。
type memoryUsers struct {
	users []*entity.User
}

func (m *memoryUsers) Create(_ context.Context, user *entity.User) error {
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return ErrUserAlreadyExists
		}
	}
	user.ID = "id-" + user.Username
	cp := *user
	m.users = append(m.users, &cp)
	return nil
}

func (m *memoryUsers) FindByUsernameOrEmail(_ context.Context, username, email string) (*entity.User, error) {
	for _, u := range m.users {
		if u.Username == username || u.Email == email {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *memoryUsers) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *memoryUsers) FindByID(_ context.Context, id string) (*entity.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

const testSecret = "test-secret"

func newTestUsecase(users UserRepository, revoker TokenRevoker, now func() time.Time) *AuthUsecase {
	tokens := jwtauth.NewManager(testSecret, 24*time.Hour)
	if now != nil {
		tokens = tokens.WithClock(now)
	}
	if revoker == nil {
		revoker = &mockRevoker{}
	}
	return NewAuthUsecase(users, hash.NewBcrypt(bcrypt.MinCost), tokens, revoker)
}

func TestAuthUsecase_Signup(t *testing.T) {
	t.Run("successful signup hashes the password and normalizes identity", func(t *testing.T) {
		var stored *entity.User
		repo := &mockUserRepository{
			CreateFunc: func(ctx context.Context, user *entity.User) error {
				stored = user
				user.ID = "u1"
				return nil
			},
		}
		uc := newTestUsecase(repo, nil, nil)

		user, err := uc.Signup(context.Background(), "  Alice1 ", "Alice@Example.com", "secret1")

		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "u1", user.ID)
		assert.Equal(t, "alice1", stored.Username)
		assert.Equal(t, "alice@example.com", stored.Email)
		assert.NotEqual(t, "secret1", stored.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")))
	})

	t.Run("validation failures", func(t *testing.T) {
		tests := []struct {
			name     string
			username string
			email    string
			password string
			wantMsg  string
		}{
			{name: "missing username", username: " ", email: "a@b.com", password: "secret1", wantMsg: "username is required"},
			{name: "missing email", username: "alice1", email: "", password: "secret1", wantMsg: "email is required"},
			{name: "missing password", username: "alice1", email: "a@b.com", password: "", wantMsg: "password is required"},
			{name: "short username", username: "ab", email: "a@b.com", password: "secret1", wantMsg: "username must be at least 3 characters"},
			{name: "long username", username: strings.Repeat("a", 26), email: "a@b.com", password: "secret1", wantMsg: "username cannot exceed 25 characters"},
			{name: "non alphanumeric username", username: "alice_1", email: "a@b.com", password: "secret1", wantMsg: "username can only contain letters and numbers"},
			{name: "bad email", username: "alice1", email: "not-an-email", password: "secret1", wantMsg: "please enter a valid email address"},
			{name: "short password", username: "alice1", email: "a@b.com", password: "abc1", wantMsg: "password must be at least 6 characters"},
			{name: "password without digit", username: "alice1", email: "a@b.com", password: "secretpw", wantMsg: "password must contain at least one number"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				repo := &mockUserRepository{
					CreateFunc: func(ctx context.Context, user *entity.User) error {
						t.Fatal("Create must not be called")
						return nil
					},
				}
				uc := newTestUsecase(repo, nil, nil)

				_, err := uc.Signup(context.Background(), tt.username, tt.email, tt.password)

				require.Error(t, err)
				assert.True(t, apperr.Is(err, apperr.KindInvalidInput))
				assert.Equal(t, tt.wantMsg, err.Error())
			})
		}
	})

	t.Run("duplicate username or email is a conflict", func(t *testing.T) {
		users := &memoryUsers{}
		uc := newTestUsecase(users, nil, nil)

		_, err := uc.Signup(context.Background(), "alice1", "Alice@Example.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", users.users[0].Email)

		_, err = uc.Signup(context.Background(), "alice1", "other@example.com", "secret1")
		assert.ErrorIs(t, err, ErrIdentityTaken)
		assert.True(t, apperr.Is(err, apperr.KindConflict))

		_, err = uc.Signup(context.Background(), "bob22", "ALICE@example.com", "secret1")
		assert.ErrorIs(t, err, ErrIdentityTaken)

		assert.Len(t, users.users, 1, "no second record may be created")
	})

	t.Run("store-level unique violation maps to conflict", func(t *testing.T) {
		repo := &mockUserRepository{
			CreateFunc: func(ctx context.Context, user *entity.User) error {
				return ErrUserAlreadyExists
			},
		}
		uc := newTestUsecase(repo, nil, nil)

		_, err := uc.Signup(context.Background(), "alice1", "a@b.com", "secret1")

		assert.ErrorIs(t, err, ErrIdentityTaken)
		assert.ErrorIs(t, err, ErrUserAlreadyExists)
	})

	t.Run("store failure is internal", func(t *testing.T) {
		dbErr := errors.New("database error")
		repo := &mockUserRepository{
			FindByUsernameOrEmailFunc: func(ctx context.Context, username, email string) (*entity.User, error) {
				return nil, dbErr
			},
		}
		uc := newTestUsecase(repo, nil, nil)

		_, err := uc.Signup(context.Background(), "alice1", "a@b.com", "secret1")

		assert.True(t, apperr.Is(err, apperr.KindInternal))
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestAuthUsecase_Login(t *testing.T) {
	users := &memoryUsers{}
	uc := newTestUsecase(users, nil, nil)
	_, err := uc.Signup(context.Background(), "alice1", "alice@example.com", "secret1")
	require.NoError(t, err)

	t.Run("successful login issues a token for the user", func(t *testing.T) {
		res, err := uc.Login(context.Background(), " ALICE1 ", "secret1")

		require.NoError(t, err)
		assert.NotEmpty(t, res.Token)
		assert.Equal(t, "id-alice1", res.User.ID)
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), res.ExpiresAt, time.Minute)

		claims, err := jwtauth.NewManager(testSecret, 24*time.Hour).Verify(res.Token)
		require.NoError(t, err)
		assert.Equal(t, "id-alice1", claims.UserID)
	})

	t.Run("wrong password and unknown user are indistinguishable", func(t *testing.T) {
		_, errWrong := uc.Login(context.Background(), "alice1", "wrong-pass1")
		_, errUnknown := uc.Login(context.Background(), "nobody", "secret1")

		require.Error(t, errWrong)
		require.Error(t, errUnknown)
		assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(errWrong))
		assert.Equal(t, apperr.KindOf(errWrong), apperr.KindOf(errUnknown))
		assert.Equal(t, "invalid username or password", errWrong.Error())
		assert.Equal(t, errWrong.Error(), errUnknown.Error())
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := uc.Login(context.Background(), "", "secret1")
		assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

		_, err = uc.Login(context.Background(), "alice1", "")
		assert.True(t, apperr.Is(err, apperr.KindInvalidInput))
	})

	t.Run("store failure is internal", func(t *testing.T) {
		repo := &mockUserRepository{
			FindByUsernameFunc: func(ctx context.Context, username string) (*entity.User, error) {
				return nil, errors.New("connection reset")
			},
		}
		_, err := newTestUsecase(repo, nil, nil).Login(context.Background(), "alice1", "secret1")
		assert.True(t, apperr.Is(err, apperr.KindInternal))
	})
}

func TestAuthUsecase_Me(t *testing.T) {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	now := base
	clock := func() time.Time { return now }

	users := &memoryUsers{}
	uc := newTestUsecase(users, nil, clock)
	_, err := uc.Signup(context.Background(), "alice1", "alice@example.com", "secret1")
	require.NoError(t, err)
	res, err := uc.Login(context.Background(), "alice1", "secret1")
	require.NoError(t, err)

	t.Run("valid token resolves the user", func(t *testing.T) {
		now = base.Add(23 * time.Hour)
		user, err := uc.Me(context.Background(), res.Token)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "alice1", user.Username)
	})

	t.Run("expired token yields nil without error", func(t *testing.T) {
		now = base.Add(24*time.Hour + time.Second)
		user, err := uc.Me(context.Background(), res.Token)
		assert.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("missing, malformed and foreign tokens yield nil", func(t *testing.T) {
		now = base
		foreign, _, err := jwtauth.NewManager("other-secret", time.Hour).WithClock(clock).Issue("id-alice1")
		require.NoError(t, err)

		for _, tok := range []string{"", "garbage", foreign} {
			user, err := uc.Me(context.Background(), tok)
			assert.NoError(t, err)
			assert.Nil(t, user)
		}
	})

	t.Run("deleted subject yields nil", func(t *testing.T) {
		now = base
		tok, _, err := jwtauth.NewManager(testSecret, 24*time.Hour).WithClock(clock).Issue("ghost")
		require.NoError(t, err)

		user, err := uc.Me(context.Background(), tok)
		assert.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("revoked token yields nil", func(t *testing.T) {
		now = base
		revoker := &mockRevoker{
			IsRevokedFunc: func(ctx context.Context, tokenID string) (bool, error) { return true, nil },
		}
		user, err := newTestUsecase(users, revoker, clock).Me(context.Background(), res.Token)
		assert.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("store failure is an error", func(t *testing.T) {
		now = base
		repo := &mockUserRepository{
			FindByIDFunc: func(ctx context.Context, id string) (*entity.User, error) {
				return nil, errors.New("store down")
			},
		}
		user, err := newTestUsecase(repo, nil, clock).Me(context.Background(), res.Token)
		assert.Nil(t, user)
		assert.True(t, apperr.Is(err, apperr.KindInternal))
	})
}

func TestAuthUsecase_Logout(t *testing.T) {
	t.Run("no token is an invalid state", func(t *testing.T) {
		uc := newTestUsecase(&memoryUsers{}, nil, nil)

		err := uc.Logout(context.Background(), "")

		assert.ErrorIs(t, err, ErrNoActiveSession)
		assert.True(t, apperr.Is(err, apperr.KindInvalidState))
	})

	t.Run("verified token is revoked until expiry", func(t *testing.T) {
		var gotID string
		var gotExp time.Time
		revoker := &mockRevoker{
			RevokeFunc: func(ctx context.Context, tokenID string, expiresAt time.Time) error {
				gotID, gotExp = tokenID, expiresAt
				return nil
			},
		}
		users := &memoryUsers{}
		uc := newTestUsecase(users, revoker, nil)
		_, err := uc.Signup(context.Background(), "alice1", "alice@example.com", "secret1")
		require.NoError(t, err)
		res, err := uc.Login(context.Background(), "alice1", "secret1")
		require.NoError(t, err)

		require.NoError(t, uc.Logout(context.Background(), res.Token))

		assert.NotEmpty(t, gotID)
		assert.True(t, gotExp.Equal(res.ExpiresAt))
	})

	t.Run("revocation failure does not fail logout", func(t *testing.T) {
		revoker := &mockRevoker{
			RevokeFunc: func(ctx context.Context, tokenID string, expiresAt time.Time) error {
				return errors.New("redis down")
			},
		}
		tok, _, err := jwtauth.NewManager(testSecret, time.Hour).Issue("u1")
		require.NoError(t, err)

		assert.NoError(t, newTestUsecase(&memoryUsers{}, revoker, nil).Logout(context.Background(), tok))
	})

	t.Run("unverifiable token still logs out", func(t *testing.T) {
		revoker := &mockRevoker{
			RevokeFunc: func(ctx context.Context, tokenID string, expiresAt time.Time) error {
				t.Fatal("Revoke must not be called")
				return nil
			},
		}
		assert.NoError(t, newTestUsecase(&memoryUsers{}, revoker, nil).Logout(context.Background(), "garbage"))
	})
}
