package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vidshare/internal/core/domain"
	"vidshare/internal/core/ports"
	"vidshare/internal/core/services"
	"vidshare/internal/infrastructure/middleware"
	"vidshare/internal/infrastructure/monitoring"
	"vidshare/internal/infrastructure/repositories"
	"vidshare/internal/infrastructure/repositories/memory"
	"vidshare/internal/infrastructure/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	testSecret   = "handler-secret"
	adminEmail   = "admin@example.com"
	adminPass    = "password123"
	guestEmail   = "guest@example.com"
	cookieName   = "auth_token"
	presignedURL = "https://media.s3.ap-northeast-1.amazonaws.com/signed?X-Amz-Signature=abc"
)

// fakePresigner signs nothing; it echoes the key into the URLs.
type fakePresigner struct {
	err error
}

func (f *fakePresigner) PresignPut(ctx context.Context, key, contentType string, expires time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return presignedURL + "&key=" + key, nil
}

func (f *fakePresigner) PublicURL(key string) string {
	return storage.PublicObjectURL("", "media", "ap-northeast-1", key)
}

type testServer struct {
	router http.Handler
	auth   ports.AuthService
	users  ports.UserRepository
}

func newTestServer(t *testing.T, presigner ports.ObjectPresigner) *testServer {
	t.Helper()
	ctx := context.Background()
	users := memory.NewMemoryUserRepository()
	videos := memory.NewMemoryVideoRepository()

	hash := func(pw string) (string, error) {
		digest, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
		return string(digest), err
	}
	require.NoError(t, repositories.Seed(ctx, users, videos, hash, repositories.SeedOptions{
		AdminEmail:    adminEmail,
		AdminPassword: adminPass,
		SampleVideos:  5,
	}, nil))

	guestDigest, err := hash(adminPass)
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, &domain.User{Email: guestEmail, PasswordHash: guestDigest, Role: domain.RoleGuest}))

	auth := services.NewAuthService(testSecret, time.Hour, users)
	router := NewRouter(RouterConfig{
		AuthService:   auth,
		VideoService:  services.NewVideoService(videos, users, auth),
		UploadService: services.NewUploadService(auth, presigner, 5*time.Minute, nil),
		Cookie:        middleware.NewSessionCookie(cookieName, "", false, time.Hour, testSecret),
		Metrics:       monitoring.NewPrometheusCollector(prometheus.NewRegistry()),
		Health:        monitoring.NewHealthChecker(),
		Logger:        zap.NewNop(),
	})

	return &testServer{router: router, auth: auth, users: users}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(req)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func withCookie(c *http.Cookie) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(c) }
}

func withBearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

// loginCookie signs the seeded admin in and returns the session cookie.
func (s *testServer) loginCookie(t *testing.T) *http.Cookie {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{"email": adminEmail, "password": adminPass})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatal("login did not set the session cookie")
	return nil
}

func (s *testServer) guestToken(t *testing.T) string {
	t.Helper()
	guest, err := s.users.GetByEmail(context.Background(), guestEmail)
	require.NoError(t, err)
	token, err := s.auth.IssueCredential(guest.ID)
	require.NoError(t, err)
	return token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestLogin(t *testing.T) {
	s := newTestServer(t, &fakePresigner{})

	t.Run("seeded admin", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{"email": adminEmail, "password": adminPass})
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			User struct {
				ID    int64  `json:"id"`
				Email string `json:"email"`
				Role  string `json:"role"`
			} `json:"user"`
		}
		decode(t, w, &body)
		assert.Equal(t, adminEmail, body.User.Email)
		assert.Equal(t, "admin", body.User.Role)
		assert.NotContains(t, w.Body.String(), "password")
		assert.NotContains(t, w.Body.String(), "token")

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, cookieName, cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{"email": adminEmail, "password": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"Invalid credentials"}`, w.Body.String())
		assert.Empty(t, w.Result().Cookies())
	})

	t.Run("unknown email", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{"email": "nobody@example.com", "password": adminPass})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"Invalid credentials"}`, w.Body.String())
	})

	t.Run("non-admin is refused", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{"email": guestEmail, "password": adminPass})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"Only administrators can login"}`, w.Body.String())
		assert.Empty(t, w.Result().Cookies(), "no credential issued")
	})

	t.Run("malformed body", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/auth/login", "{not json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMeAndLogout(t *testing.T) {
	s := newTestServer(t, &fakePresigner{})

	w := s.do(t, http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	cookie := s.loginCookie(t)
	w = s.do(t, http.MethodGet, "/api/v1/auth/me", nil, withCookie(cookie))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), adminEmail)

	w = s.do(t, http.MethodGet, "/api/v1/auth/me", nil, withBearer(s.guestToken(t)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"guest"`)

	w = s.do(t, http.MethodPost, "/api/v1/auth/logout", nil, withCookie(cookie))
	assert.Equal(t, http.StatusNoContent, w.Code)
	cleared := w.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, cookieName, cleared[0].Name)
	assert.Equal(t, -1, cleared[0].MaxAge)
}

func TestVideos_PublicReads(t *testing.T) {
	s := newTestServer(t, &fakePresigner{})

	var list []domain.Video
	w := s.do(t, http.MethodGet, "/api/v1/videos", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	require.Len(t, list, 5)
	assert.Equal(t, "Tears of Steel", list[0].Title)
	require.NotNil(t, list[0].User)
	assert.Equal(t, adminEmail, list[0].User.Email)

	// same list regardless of auth state
	w = s.do(t, http.MethodGet, "/api/v1/videos", nil, withCookie(s.loginCookie(t)))
	require.Equal(t, http.StatusOK, w.Code)
	var authed []domain.Video
	decode(t, w, &authed)
	assert.Len(t, authed, 5)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/videos/%d", list[0].ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/videos/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Video not found"}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/videos/abc", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVideos_MutationsRequireAdmin(t *testing.T) {
	s := newTestServer(t, &fakePresigner{})
	input := gin.H{"video": gin.H{"title": "t", "video_url": "v", "thumbnail_url": "th"}}

	w := s.do(t, http.MethodDelete, "/api/v1/videos/1", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())

	guest := withBearer(s.guestToken(t))
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodDelete, "/api/v1/videos/1", nil, guest).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/api/v1/videos", input, guest).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPatch, "/api/v1/videos/1", input, guest).Code)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/videos/1", nil).Code, "video 1 survives")
}

func TestVideos_AdminCRUD(t *testing.T) {
	s := newTestServer(t, &fakePresigner{})
	admin := withCookie(s.loginCookie(t))

	w := s.do(t, http.MethodPost, "/api/v1/videos", gin.H{"video": gin.H{
		"title":         "Launch",
		"description":   "Day one",
		"video_url":     "https://cdn.example.com/videos/a/launch.mp4",
		"thumbnail_url": "https://cdn.example.com/thumbnails/a/launch.jpg",
	}}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created domain.Video
	decode(t, w, &created)
	assert.Equal(t, "Launch", created.Title)
	require.NotNil(t, created.User)
	assert.Equal(t, adminEmail, created.User.Email)

	path := fmt.Sprintf("/api/v1/videos/%d", created.ID)

	w = s.do(t, http.MethodPatch, path, gin.H{"title": "Launch (bare body)"}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated domain.Video
	decode(t, w, &updated)
	assert.Equal(t, "Launch (bare body)", updated.Title)
	assert.Equal(t, "Day one", updated.Description)

	w = s.do(t, http.MethodPut, path, gin.H{"video": gin.H{"thumbnail_url": ""}}, admin)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{"error":"Validation failed","errors":[{"field":"thumbnail_url","message":"can't be blank"}]}`, w.Body.String())

	w = s.do(t, http.MethodDelete, path, nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Video deleted successfully"}`, w.Body.String())

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, path, nil, admin).Code)
}

func TestVideos_CreateValidation(t *testing.T) {
	s := newTestServer(t, &fakePresigner{})
	admin := withCookie(s.loginCookie(t))

	w := s.do(t, http.MethodPost, "/api/v1/videos", gin.H{"video": gin.H{"description": "no title"}}, admin)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body struct {
		Error  string `json:"error"`
		Errors []struct {
			Field string `json:"field"`
		} `json:"errors"`
	}
	decode(t, w, &body)
	assert.Equal(t, "Validation failed", body.Error)
	assert.Len(t, body.Errors, 3)
}

func TestPresign(t *testing.T) {
	s := newTestServer(t, &fakePresigner{})
	admin := withCookie(s.loginCookie(t))

	t.Run("video grant", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/uploads/presign", gin.H{"upload": gin.H{
			"filename": "clip.mp4", "contentType": "video/mp4", "fileType": "video",
		}}, admin)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var grant presignResponse
		decode(t, w, &grant)
		assert.True(t, strings.HasPrefix(grant.Key, "videos/"))
		assert.True(t, strings.HasSuffix(grant.Key, "/clip.mp4"))
		assert.Contains(t, grant.UploadURL, "X-Amz-Signature")
		assert.Equal(t, "https://media.s3.ap-northeast-1.amazonaws.com/"+grant.Key, grant.FileURL)
		assert.Equal(t, 300, grant.ExpiresIn)
	})

	t.Run("thumbnail grant with bare body", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/uploads/presign", gin.H{
			"filename": "poster.jpg", "contentType": "image/jpeg", "fileType": "thumbnail",
		}, admin)
		require.Equal(t, http.StatusOK, w.Code)
		var grant presignResponse
		decode(t, w, &grant)
		assert.True(t, strings.HasPrefix(grant.Key, "thumbnails/"))
	})

	t.Run("audio is rejected", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/uploads/presign", gin.H{"upload": gin.H{
			"filename": "song.mp3", "contentType": "audio/mpeg", "fileType": "audio",
		}}, admin)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.JSONEq(t, `{"error":"file_type must be either 'video' or 'thumbnail'"}`, w.Body.String())
	})

	t.Run("missing content type", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/uploads/presign", gin.H{"upload": gin.H{"filename": "clip.mp4"}}, admin)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("anonymous", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/uploads/presign", gin.H{"upload": gin.H{
			"filename": "clip.mp4", "contentType": "video/mp4",
		}})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("guest", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/uploads/presign", gin.H{"upload": gin.H{
			"filename": "clip.mp4", "contentType": "video/mp4",
		}}, withBearer(s.guestToken(t)))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestPresign_ServerErrors(t *testing.T) {
	body := gin.H{"upload": gin.H{"filename": "clip.mp4", "contentType": "video/mp4"}}

	t.Run("storage not configured", func(t *testing.T) {
		s := newTestServer(t, nil)
		w := s.do(t, http.MethodPost, "/api/v1/uploads/presign", body, withCookie(s.loginCookie(t)))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Server configuration error"}`, w.Body.String())
	})

	t.Run("presign failure hides detail", func(t *testing.T) {
		s := newTestServer(t, &fakePresigner{err: fmt.Errorf("NoCredentialProviders: secret AKIA...")})
		w := s.do(t, http.MethodPost, "/api/v1/uploads/presign", body, withCookie(s.loginCookie(t)))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Upstream service error"}`, w.Body.String())
	})
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, &fakePresigner{})

	w := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
}

func TestWithCORS(t *testing.T) {
	h := WithCORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), []string{"https://admin.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "https://admin.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
