package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"employee_backend/internal/feature/auth/domain/entity"
	jwtauth "employee_backend/internal/platform/jwt"
	"employee_backend/internal/shared/apperr"
	"employee_backend/internal/shared/validation"
)

// dummyHash はユーザが存在しないときの比較対象です。存在しないユーザ名と
// 誤ったパスワードで処理時間が変わらないようにします。
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// UserRepository はユーザエンティティの永続化層を抽象化します。
// Goの慣習に従い、インターフェースは提供側(adapters)ではなく利用側(usecase)で定義する。
type UserRepository interface {
	// Create は新しいユーザを保存し、IDとタイムスタンプを設定します。
	// ユーザ名またはメールアドレスが使用済みなら ErrUserAlreadyExists を返します。
	Create(ctx context.Context, user *entity.User) error

	// FindByUsernameOrEmail はユーザ名またはメールアドレスを持つユーザを返します。
	// どちらも未登録なら ErrUserNotFound を返します。
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error)

	// FindByUsername は(正規化済みの)ユーザ名でユーザを返します。
	FindByUsername(ctx context.Context, username string) (*entity.User, error)

	// FindByID はIDでユーザを返します。不正なIDは ErrUserNotFound になります。
	FindByID(ctx context.Context, id string) (*entity.User, error)
}

// PasswordHasher はパスワードのハッシュ化と照合を行います。
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// TokenIssuer はセッショントークンの署名と検証を行います。
type TokenIssuer interface {
	Issue(userID string) (string, time.Time, error)
	Verify(token string) (*jwtauth.Claims, error)
}

// TokenRevoker はログアウトで無効化したトークンを期限まで記録します。
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// LoginResult はログイン成功時の結果です。
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *entity.User
}

type signupInput struct {
	Username string `json:"username" validate:"required,min=3,max=25,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,containsany=0123456789"`
}

type loginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthUsecase はサインアップ、ログイン、ログイン中ユーザの取得、ログアウトを実装します。
type AuthUsecase struct {
	users   UserRepository
	hasher  PasswordHasher
	tokens  TokenIssuer
	revoked TokenRevoker
}

// NewAuthUsecase は AuthUsecase の新しいインスタンスを返します。
func NewAuthUsecase(users UserRepository, hasher PasswordHasher, tokens TokenIssuer, revoked TokenRevoker) *AuthUsecase {
	return &AuthUsecase{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		revoked: revoked,
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Signup はパスワードをハッシュ化してユーザを登録します。
func (u *AuthUsecase) Signup(ctx context.Context, username, email, password string) (*entity.User, error) {
	in := signupInput{
		Username: normalize(username),
		Email:    normalize(email),
		Password: password,
	}
	if msg := validation.Struct(in); msg != "" {
		return nil, apperr.InvalidInput("%s", msg)
	}

	existing, err := u.users.FindByUsernameOrEmail(ctx, in.Username, in.Email)
	switch {
	case err == nil && existing != nil:
		return nil, ErrIdentityTaken.WithCause(errors.New("precheck matched user " + existing.ID))
	case err != nil && !errors.Is(err, ErrUserNotFound):
		return nil, apperr.Internal(err, "failed to look up user")
	}

	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.Internal(err, "failed to hash password")
	}

	user := &entity.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hashed,
	}
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserAlreadyExists) {
			return nil, ErrIdentityTaken.WithCause(err)
		}
		return nil, apperr.Internal(err, "failed to create user")
	}
	return user, nil
}

// Login は資格情報を検証し、セッショントークンを発行します。
// 存在しないユーザ名も誤ったパスワードも同じ ErrInvalidCredentials を返します。
func (u *AuthUsecase) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	in := loginInput{Username: normalize(username), Password: password}
	if msg := validation.Struct(in); msg != "" {
		return nil, apperr.InvalidInput("%s", msg)
	}

	user, err := u.users.FindByUsername(ctx, in.Username)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, apperr.Internal(err, "failed to look up user")
	}

	passwordHash := dummyHash
	if err == nil {
		passwordHash = user.PasswordHash
	}
	// どちらの失敗でも bcrypt の照合を1回行う
	matched := u.hasher.Compare(passwordHash, in.Password)

	if err != nil {
		return nil, ErrInvalidCredentials.WithCause(err)
	}
	if !matched {
		return nil, ErrInvalidCredentials.WithCause(errors.New("password mismatch"))
	}

	token, expiresAt, err := u.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to issue token")
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Me はトークンのユーザを返します。失効を含むトークンの問題や、存在しなくなった
// ユーザは (nil, nil) になります。エラーを返すのはストア障害のときだけです。
func (u *AuthUsecase) Me(ctx context.Context, token string) (*entity.User, error) {
	if token == "" {
		return nil, nil
	}
	claims, err := u.tokens.Verify(token)
	if err != nil {
		slog.DebugContext(ctx, "session token rejected", "error", err)
		return nil, nil
	}

	if claims.TokenID != "" {
		revoked, err := u.revoked.IsRevoked(ctx, claims.TokenID)
		if err != nil {
			return nil, apperr.Internal(err, "failed to check token revocation")
		}
		if revoked {
			return nil, nil
		}
	}

	user, err := u.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to look up user")
	}
	return user, nil
}

// Logout はトークンのセッションを終了します。検証できないトークンも
// 消去対象のセッションとして扱い、検証できたものは期限まで失効させます。
func (u *AuthUsecase) Logout(ctx context.Context, token string) error {
	if token == "" {
		return ErrNoActiveSession
	}
	claims, err := u.tokens.Verify(token)
	if err != nil {
		slog.DebugContext(ctx, "logout with unverifiable token", "error", err)
		return nil
	}
	if claims.TokenID == "" {
		return nil
	}
	if err := u.revoked.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		slog.WarnContext(ctx, "failed to revoke token", "user_id", claims.UserID, "error", err)
	}
	return nil
}
