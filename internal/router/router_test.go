package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/game-storefront/internal/config"
	"github.com/iliyamo/game-storefront/internal/handler"
	"github.com/iliyamo/game-storefront/internal/media"
	"github.com/iliyamo/game-storefront/internal/middleware"
	"github.com/iliyamo/game-storefront/internal/service"
)

type testServer struct {
	e             *echo.Echo
	root          string
	adminPassword string
}

func newTestServer(t *testing.T, legacy bool) *testServer {
	t.Helper()
	log, hook := logtest.NewNullLogger()
	db := newMemDB()
	users, games, purchases := memUsers{db}, memGames{db}, memPurchases{db}

	require.NoError(t, service.EnsureAdmin(context.Background(), users, bcrypt.MinCost, log))
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	adminPassword, _ := entry.Data["password"].(string)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	cache := middleware.NewResponseCache(config.CacheConfig{
		Enabled: true, Methods: map[string]bool{http.MethodGet: true}, TTL: time.Minute, Prefix: "catalog",
	}, rdb, log)

	root := t.TempDir()
	public := filepath.Join(root, "public")
	require.NoError(t, os.MkdirAll(public, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(public, "index.html"), []byte("<html>spa</html>"), 0o644))

	files := media.NewStore(root)
	identity := service.NewIdentityService(users, service.IdentityConfig{
		Secret: "router-test", BcryptCost: bcrypt.MinCost, SessionTTL: time.Hour, LongTTL: config.LongLivedTokenTTL,
	}, log)
	catalog := service.NewCatalogService(games, purchases, files, cache, log)
	ledger := service.NewPurchaseLedger(games, purchases, nil, log)

	e := New(Deps{
		Auth:               handler.NewAuthHandler(identity, log),
		Games:              handler.NewGameHandler(catalog, log),
		Purchases:          handler.NewPurchaseHandler(ledger, legacy, log),
		Upload:             handler.NewUploadHandler(files, log),
		Authenticator:      identity,
		Cache:              cache,
		Log:                log,
		TrustLegacyHeaders: legacy,
		UploadRoot:         root,
		PublicDir:          public,
	})
	return &testServer{e: e, root: root, adminPassword: adminPassword}
}

func (s *testServer) do(t *testing.T, method, path string, body any, header map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func (s *testServer) createGame(t *testing.T, fields map[string]string, files map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, name := range files {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte("bytes of " + name))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/games", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func bearer(tok string) map[string]string { return map[string]string{"Authorization": "Bearer " + tok} }

func registration(email string) map[string]string {
	return map[string]string{
		"username": "player", "email": email, "phone": "555", "country": "NL", "gender": "f", "password": "pw",
	}
}

func TestStorefrontScenario(t *testing.T) {
	s := newTestServer(t, false)

	// Register and log in: the login returns the persisted registration token.
	rec, body := s.do(t, http.MethodPost, "/api/register", registration("a@x.com"), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	t1 := body["token"].(string)
	userID := body["userId"].(float64)

	rec, body = s.do(t, http.MethodPost, "/api/login", map[string]string{"email": "a@x.com", "password": "pw"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, t1, body["token"])
	assert.Equal(t, userID, body["userId"])

	rec, body = s.do(t, http.MethodPost, "/api/register", registration("a@x.com"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "conflict", body["kind"])

	// Create a game and read it back through the cache.
	rec, body = s.createGame(t,
		map[string]string{"title": "Foo", "description": "A game", "price": "9.99"},
		map[string]string{media.FieldGameFile: "foo.zip"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	gameID := body["id"].(float64)
	assert.Equal(t, 9.99, body["price"])
	assert.Equal(t, []any{}, body["screenshotsUrl"])
	fileURL := body["gameFileUrl"].(string)
	assert.True(t, strings.HasPrefix(fileURL, "/games/"))

	rec, _ = s.do(t, http.MethodGet, fileURL, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bytes of foo.zip", rec.Body.String())

	rec, _ = s.do(t, http.MethodGet, "/api/games/1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	rec, _ = s.do(t, http.MethodGet, "/api/games/1", nil, nil)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))

	// Buy once, then again.
	rec, body = s.do(t, http.MethodPost, "/api/buy-game", map[string]any{"gameId": gameID}, bearer(t1))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, body["message"])

	rec, body = s.do(t, http.MethodPost, "/api/buy-game", map[string]any{"gameId": "1"}, bearer(t1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "conflict", body["kind"])

	rec, _ = s.do(t, http.MethodPost, "/api/buy-game", map[string]any{"gameId": 1}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body = s.do(t, http.MethodPost, "/api/buy-game", map[string]any{"gameId": 42}, bearer(t1))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", body["kind"])

	rec, body = s.do(t, http.MethodPost, "/api/buy-game", map[string]any{}, bearer(t1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", body["kind"])

	rec, body = s.do(t, http.MethodGet, "/api/my-games", nil, bearer(t1))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["isPurchased"])
	owned := body["games"].([]any)
	require.Len(t, owned, 1)
	assert.Equal(t, "/images/unavailable_image.png", owned[0].(map[string]any)["imageUrl"])

	rec, body = s.do(t, http.MethodGet, "/api/user", nil, bearer(t1))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@x.com", body["email"])
	assert.Len(t, body["purchasedGames"], 1)

	// Delete: the game and every purchase of it disappear.
	rec, _ = s.do(t, http.MethodDelete, "/api/games/1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/games/1", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/games", nil, nil)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec, body = s.do(t, http.MethodGet, "/api/my-games", nil, bearer(t1))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["isPurchased"])
	assert.Equal(t, []any{}, body["games"])

	rec, _ = s.do(t, http.MethodDelete, "/api/games/1", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// The user row is untouched.
	rec, _ = s.do(t, http.MethodPost, "/api/login", map[string]string{"email": "a@x.com", "password": "pw"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDistinctRegistrations(t *testing.T) {
	s := newTestServer(t, false)
	_, a := s.do(t, http.MethodPost, "/api/register", registration("one@x.com"), nil)
	_, b := s.do(t, http.MethodPost, "/api/register", registration("two@x.com"), nil)
	assert.NotEqual(t, a["userId"], b["userId"])
	assert.NotEqual(t, a["token"], b["token"])

	rec, body := s.do(t, http.MethodPost, "/api/register", map[string]string{"email": "three@x.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", body["kind"])
}

func TestLoginErrors(t *testing.T) {
	s := newTestServer(t, false)
	s.do(t, http.MethodPost, "/api/register", registration("a@x.com"), nil)

	rec, body := s.do(t, http.MethodPost, "/api/login", map[string]string{"email": "no@x.com", "password": "pw"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "not_found", body["kind"])

	rec, body = s.do(t, http.MethodPost, "/api/login", map[string]string{"email": "a@x.com", "password": "bad"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "auth", body["kind"])
}

func TestAdminFlow(t *testing.T) {
	s := newTestServer(t, false)
	_, reg := s.do(t, http.MethodPost, "/api/register", registration("a@x.com"), nil)
	userToken := reg["token"].(string)

	// A regular user is refused on the admin login even with the right password.
	rec, body := s.do(t, http.MethodPost, "/api/admin-login", map[string]string{"username": "player", "password": "pw"}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, false, body["isAdmin"])

	rec, body = s.do(t, http.MethodPost, "/api/admin-login", map[string]string{"username": "admin", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "auth", body["kind"])

	rec, body = s.do(t, http.MethodPost, "/api/admin-login", map[string]string{"username": "nobody", "password": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "not_found", body["kind"])

	rec, body = s.do(t, http.MethodPost, "/api/admin-login", map[string]string{"username": "admin", "password": s.adminPassword}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["isAdmin"])
	assert.Equal(t, "admin@example.com", body["email"])
	adminToken := body["token"].(string)

	rec, _ = s.do(t, http.MethodGet, "/api/admin/games", nil, bearer(userToken))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/admin/games", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/admin/games?target_user_id=2", nil, bearer(adminToken))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"games":[]}`, rec.Body.String())

	rec, _ = s.do(t, http.MethodGet, "/api/admin/purchased-games", nil, bearer(adminToken))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"games":[]}`, rec.Body.String())

	// Headers alone do not grant admin access outside legacy mode.
	rec, _ = s.do(t, http.MethodGet, "/api/admin/purchased-games", nil, map[string]string{"is_admin": "true", "user_id": "1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/users", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var users []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 2)
	assert.Equal(t, "admin", users[0]["username"])
	assert.NotContains(t, users[1], "password")
}

func TestTokenEndpoints(t *testing.T) {
	s := newTestServer(t, false)
	_, reg := s.do(t, http.MethodPost, "/api/register", registration("a@x.com"), nil)
	tok := reg["token"].(string)

	rec, _ := s.do(t, http.MethodPost, "/api/token/refresh", map[string]string{}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/token/refresh", map[string]string{"token": "junk"}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body := s.do(t, http.MethodPost, "/api/token/refresh", map[string]string{"token": tok}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["token"])

	rec, _ = s.do(t, http.MethodGet, "/api/user", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/user", nil, bearer("junk"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLegacyHeaderMode(t *testing.T) {
	s := newTestServer(t, true)

	rec, body := s.do(t, http.MethodGet, "/api/my-games", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", body["kind"])

	rec, body = s.do(t, http.MethodGet, "/api/my-games", nil, map[string]string{"user_id": "1", "game_id": "3"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["isPurchased"])

	rec, _ = s.do(t, http.MethodGet, "/api/my-games", nil, map[string]string{"user_id": "1", "game_id": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/admin/games", nil, map[string]string{"user_id": "1", "is_admin": "false"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/admin/games", nil, map[string]string{"is_admin": "true"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/admin/games", nil, map[string]string{"user_id": "1", "is_admin": "true", "target_user_id": "1"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiscEndpoints(t *testing.T) {
	s := newTestServer(t, false)

	rec, _ := s.do(t, http.MethodGet, "/api/status", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Server is running", rec.Body.String())

	rec, body := s.do(t, http.MethodPost, "/api/upload", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", body["kind"])

	rec, body = s.createGame(t, map[string]string{"title": "Foo", "description": "d", "price": "abc"},
		map[string]string{media.FieldGameFile: "foo.zip"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", body["kind"])

	rec, _ = s.do(t, http.MethodGet, "/api/games/abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/some/client/route", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<html>spa</html>", rec.Body.String())

	rec, _ = s.do(t, http.MethodGet, "/api/unknown", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storefront_http_requests_total")
}
