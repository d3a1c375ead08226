package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"employee_backend/internal/platform/gql"
	"employee_backend/internal/platform/http/handler"
	"employee_backend/internal/platform/storage"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type pingModule struct{}

func (pingModule) Queries() graphql.Fields {
	return graphql.Fields{
		"ping": &graphql.Field{
			Type:    graphql.String,
			Resolve: func(graphql.ResolveParams) (any, error) { return "pong", nil },
		},
		"clientAddr": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return gql.FromContext(p.Context).RemoteAddr, nil
			},
		},
	}
}

func (pingModule) Mutations() graphql.Fields { return nil }

func setup(t *testing.T, origins []string) *gin.Engine {
	t.Helper()
	return setupWithProxies(t, origins, nil)
}

func setupWithProxies(t *testing.T, origins, proxies []string) *gin.Engine {
	t.Helper()
	schema, err := gql.NewSchema(pingModule{})
	require.NoError(t, err)
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	r, err := NewRouter(
		gql.NewHandler(schema, gql.HandlerConfig{CookieName: "token", MaxUploadBytes: 1024}),
		handler.NewHealth(time.Second, handler.Check{Name: "storage", Ping: store.Ping}),
		handler.NewPhotos(store),
		origins,
		proxies,
	)
	require.NoError(t, err)
	return r
}

func TestRouter_Routes(t *testing.T) {
	t.Parallel()
	r := setup(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"health", http.MethodGet, "/healthz", "", http.StatusOK},
		{"health head", http.MethodHead, "/healthz", "", http.StatusOK},
		{"graphql get", http.MethodGet, "/graphql?query=%7Bping%7D", "", http.StatusOK},
		{"graphql post", http.MethodPost, "/graphql", `{"query":"{ ping }"}`, http.StatusOK},
		{"missing photo", http.MethodGet, "/uploads/employees/none.png", "", http.StatusNotFound},
		{"unknown route", http.MethodGet, "/employees", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRouter_CORSAllowsCredentials(t *testing.T) {
	t.Parallel()
	r := setup(t, []string{"http://localhost:4200"})

	req := httptest.NewRequest(http.MethodOptions, "/graphql", nil)
	req.Header.Set("Origin", "http://localhost:4200")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:4200", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRouter_CORSRejectsUnknownOrigin(t *testing.T) {
	t.Parallel()
	r := setup(t, []string{"http://localhost:4200"})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://evil.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_ServesStoredPhoto(t *testing.T) {
	t.Parallel()
	schema, err := gql.NewSchema(pingModule{})
	require.NoError(t, err)
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	stored, err := store.Save(context.Background(), "me.jpg", "image/jpeg", 3, strings.NewReader("jpg"))
	require.NoError(t, err)

	r, err := NewRouter(
		gql.NewHandler(schema, gql.HandlerConfig{CookieName: "token", MaxUploadBytes: 1024}),
		handler.NewHealth(time.Second),
		handler.NewPhotos(store),
		nil,
		nil,
	)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/"+stored, nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpg", w.Body.String())
}

func TestRouter_ClientAddress(t *testing.T) {
	t.Parallel()

	clientAddr := func(r *gin.Engine, forwarded string) string {
		req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ clientAddr }"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", forwarded)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var out struct {
			Data struct {
				ClientAddr string `json:"clientAddr"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		return out.Data.ClientAddr
	}

	// httptest のリクエスト元は 192.0.2.1
	t.Run("forwarding headers are ignored by default", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "192.0.2.1", clientAddr(setup(t, nil), "203.0.113.7"))
	})

	t.Run("trusted proxy forwards the client address", func(t *testing.T) {
		t.Parallel()
		r := setupWithProxies(t, nil, []string{"192.0.2.0/24"})
		assert.Equal(t, "203.0.113.7", clientAddr(r, "203.0.113.7"))
	})
}

func TestNewRouter_InvalidTrustedProxy(t *testing.T) {
	t.Parallel()
	schema, err := gql.NewSchema(pingModule{})
	require.NoError(t, err)

	_, err = NewRouter(
		gql.NewHandler(schema, gql.HandlerConfig{CookieName: "token", MaxUploadBytes: 1024}),
		handler.NewHealth(time.Second),
		handler.NewPhotos(nil),
		nil,
		[]string{"not-an-ip"},
	)
	assert.Error(t, err)
}
