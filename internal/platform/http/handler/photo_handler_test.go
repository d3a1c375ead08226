package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"employee_backend/internal/platform/storage"
)

type mockPhotoOpener struct {
	OpenFunc func(ctx context.Context, stored string) (*storage.Object, error)
}

func (m *mockPhotoOpener) Open(ctx context.Context, stored string) (*storage.Object, error) {
	return m.OpenFunc(ctx, stored)
}

func photoRouter(opener PhotoOpener) *gin.Engine {
	r := gin.New()
	r.GET("/uploads/*filepath", NewPhotos(opener).Serve)
	return r
}

func TestPhotos_Serve(t *testing.T) {
	t.Parallel()

	var requested string
	modTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	r := photoRouter(&mockPhotoOpener{
		OpenFunc: func(_ context.Context, stored string) (*storage.Object, error) {
			requested = stored
			return &storage.Object{
				Body:        io.NopCloser(strings.NewReader("pngbytes")),
				ContentType: "image/png",
				Size:        8,
				ModTime:     modTime,
			}, nil
		},
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/employees/employee_photo-1-2.png", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "uploads/employees/employee_photo-1-2.png", requested)
	assert.Equal(t, "pngbytes", w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, modTime.Format(http.TimeFormat), w.Header().Get("Last-Modified"))
}

func TestPhotos_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing", storage.ErrNotFound, http.StatusNotFound},
		{"outside the photo directory", storage.ErrInvalidPath, http.StatusNotFound},
		{"storage failure", errors.New("bucket unreachable"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := photoRouter(&mockPhotoOpener{
				OpenFunc: func(context.Context, string) (*storage.Object, error) { return nil, tt.err },
			})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/employees/x.png", nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestPhotos_LocalStorage(t *testing.T) {
	t.Parallel()

	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	stored, err := store.Save(context.Background(), "face.png", "image/png", 4, strings.NewReader("\x89PNG"))
	require.NoError(t, err)

	r := photoRouter(store)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/"+stored, nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "\x89PNG", w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
}
