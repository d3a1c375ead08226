// Package resolver は auth 機能を GraphQL で公開します。
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/graphql-go/graphql"

	"employee_backend/internal/feature/auth/domain/entity"
	"employee_backend/internal/feature/auth/usecase"
	"employee_backend/internal/platform/gql"
)

// AuthUsecase はリゾルバが必要とする認証操作を定義します。
// Goの慣習に従い、インターフェースは提供側(usecase)ではなく利用側(resolver)で定義する。
type AuthUsecase interface {
	Signup(ctx context.Context, username, email, password string) (*entity.User, error)
	Login(ctx context.Context, username, password string) (*usecase.LoginResult, error)
	Me(ctx context.Context, token string) (*entity.User, error)
	Logout(ctx context.Context, token string) error
}

// LoginLimiter はクライアントごとにログイン試行を制限します。
type LoginLimiter interface {
	Allow(key string) (bool, time.Duration)
}

// CookieConfig はセッション cookie の設定です。
type CookieConfig struct {
	Name     string
	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration
}

// AuthResolver は signup、login、logout、me を解決します。
type AuthResolver struct {
	auth    AuthUsecase
	cookie  CookieConfig
	limiter LoginLimiter
	user    *graphql.Object
	authed  *graphql.Object
}

var _ gql.Module = (*AuthResolver)(nil)

// NewAuthResolver は AuthResolver の新しいインスタンスを返します。limiter は nil でも構いません。
func NewAuthResolver(auth AuthUsecase, cookie CookieConfig, limiter LoginLimiter) *AuthResolver {
	user := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"username":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"email":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"created_at": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"updated_at": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})
	payload := graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthPayload",
		Fields: graphql.Fields{
			"token": &graphql.Field{Type: graphql.String},
			"user":  &graphql.Field{Type: user},
		},
	})
	return &AuthResolver{auth: auth, cookie: cookie, limiter: limiter, user: user, authed: payload}
}

// userView はユーザの GraphQL 表現です。パスワードハッシュは含めません。
func userView(u *entity.User) map[string]any {
	if u == nil {
		return nil
	}
	return map[string]any{
		"id":         u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"created_at": gql.FormatTime(u.CreatedAt),
		"updated_at": gql.FormatTime(u.UpdatedAt),
	}
}

// Queries は auth のクエリフィールドを返します。
func (r *AuthResolver) Queries() graphql.Fields {
	return graphql.Fields{
		"me": &graphql.Field{
			Type:    r.user,
			Resolve: r.me,
		},
	}
}

// Mutations は auth のミューテーションフィールドを返します。
func (r *AuthResolver) Mutations() graphql.Fields {
	required := graphql.NewNonNull(graphql.String)
	return graphql.Fields{
		"signup": &graphql.Field{
			Type: r.user,
			Args: graphql.FieldConfigArgument{
				"username": &graphql.ArgumentConfig{Type: required},
				"email":    &graphql.ArgumentConfig{Type: required},
				"password": &graphql.ArgumentConfig{Type: required},
			},
			Resolve: r.signup,
		},
		"login": &graphql.Field{
			Type: r.authed,
			Args: graphql.FieldConfigArgument{
				"username": &graphql.ArgumentConfig{Type: required},
				"password": &graphql.ArgumentConfig{Type: required},
			},
			Resolve: r.login,
		},
		"logout": &graphql.Field{
			Type:    graphql.Boolean,
			Resolve: r.logout,
		},
	}
}

func (r *AuthResolver) signup(p graphql.ResolveParams) (any, error) {
	username, _ := gql.StringArg(p.Args, "username")
	email, _ := gql.StringArg(p.Args, "email")
	password, _ := gql.StringArg(p.Args, "password")

	user, err := r.auth.Signup(p.Context, username, email, password)
	if err != nil {
		return nil, gql.ResolverError(p.Context, "signup", err)
	}
	slog.InfoContext(p.Context, "user signup successful", "user_id", user.ID, "remote_addr", gql.FromContext(p.Context).RemoteAddr)
	return userView(user), nil
}

func (r *AuthResolver) login(p graphql.ResolveParams) (any, error) {
	username, _ := gql.StringArg(p.Args, "username")
	password, _ := gql.StringArg(p.Args, "password")
	rc := gql.FromContext(p.Context)

	if r.limiter != nil {
		if ok, retry := r.limiter.Allow(rc.RemoteAddr); !ok {
			slog.WarnContext(p.Context, "login rate limited", "remote_addr", rc.RemoteAddr, "retry_after", retry)
			return nil, &gql.Error{
				Message: fmt.Sprintf("too many login attempts, retry in %d seconds", int(math.Ceil(retry.Seconds()))),
				Code:    gql.CodeTooManyRequests,
			}
		}
	}

	res, err := r.auth.Login(p.Context, username, password)
	if err != nil {
		return nil, gql.ResolverError(p.Context, "login", err)
	}
	rc.Cookies.SetCookie(r.sessionCookie(res.Token, int(r.cookie.MaxAge.Seconds())))

	slog.InfoContext(p.Context, "user login successful", "user_id", res.User.ID, "remote_addr", rc.RemoteAddr)
	return map[string]any{
		"token": res.Token,
		"user":  userView(res.User),
	}, nil
}

func (r *AuthResolver) me(p graphql.ResolveParams) (any, error) {
	user, err := r.auth.Me(p.Context, gql.FromContext(p.Context).Token)
	if err != nil {
		return nil, gql.ResolverError(p.Context, "me", err)
	}
	if user == nil {
		return nil, nil
	}
	return userView(user), nil
}

func (r *AuthResolver) logout(p graphql.ResolveParams) (any, error) {
	rc := gql.FromContext(p.Context)
	if err := r.auth.Logout(p.Context, rc.Token); err != nil {
		return nil, gql.ResolverError(p.Context, "logout", err)
	}
	rc.Cookies.SetCookie(r.sessionCookie("", -1))
	slog.InfoContext(p.Context, "user logout successful", "remote_addr", rc.RemoteAddr)
	return true, nil
}

// sessionCookie はセッション cookie を生成します。ログアウトはログイン時の属性を MaxAge -1 で使います。
func (r *AuthResolver) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     r.cookie.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   r.cookie.Secure,
		SameSite: r.cookie.SameSite,
	}
}
