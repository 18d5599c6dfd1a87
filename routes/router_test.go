package routes_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cspring/microblog/config"
	"github.com/cspring/microblog/middleware"
	"github.com/cspring/microblog/models"
	"github.com/cspring/microblog/routes"
	"github.com/cspring/microblog/utils"
)

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	tmp := t.TempDir()

	cfg := config.AppConfig{
		AppPort:         "3000",
		SessionSecret:   "test-secret",
		SessionTTLHours: 1,
		SQLitePath:      filepath.Join(tmp, "test.db"),
		GinMode:         "test",
		GinPath:         filepath.Join(tmp, "gin.log"),
		AllowedOrigins:  []string{"*"},
		ViewsGlob:       "../views/*.tmpl",
		LogLevel:        "error",
		LogMaxSizeMB:    1,
		LogMaxBackups:   1,
		LogMaxAgeDays:   1,
	}
	config.SetForTesting(cfg)
	require.NoError(t, utils.InitLogger(cfg))

	db, err := gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}, &models.Comment{}, &models.PageView{}))

	return routes.SetupRouter(db), db
}

func createUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	u := models.User{Username: username, ExternalIDHash: "hash-" + username, MemberSince: time.Now()}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func sessionCookie(t *testing.T, user models.User) *http.Cookie {
	t.Helper()
	sess := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		LoggedIn:  true,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, utils.SaveSession(sess, time.Hour))
	token, err := utils.SignSessionID(sess.ID, time.Hour)
	require.NoError(t, err)
	return &http.Cookie{Name: middleware.SessionCookieName, Value: token}
}

func doRequest(r *gin.Engine, method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHomePageRenders(t *testing.T) {
	r, db := newTestRouter(t)
	createUser(t, db, "alice")
	require.NoError(t, db.Create(&models.Post{
		Title: "Hello", Content: "body", Username: "alice", Timestamp: time.Now(), LikedBy: models.UsernameSet{},
	}).Error)

	w := doRequest(r, http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Hello")
	assert.Contains(t, w.Body.String(), "alice")
}

func TestCreatePostRequiresLogin(t *testing.T) {
	r, _ := newTestRouter(t)

	form := url.Values{"title": {"Hi"}, "content": {"body"}}
	w := doRequest(r, http.MethodPost, "/posts", form)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestCreatePostLoggedIn(t *testing.T) {
	r, db := newTestRouter(t)
	alice := createUser(t, db, "alice")

	form := url.Values{"title": {"Hi"}, "content": {"line one\nline two"}}
	w := doRequest(r, http.MethodPost, "/posts", form, sessionCookie(t, alice))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	var post models.Post
	require.NoError(t, db.Where("title = ?", "Hi").First(&post).Error)
	assert.Equal(t, "alice", post.Username)
	assert.Equal(t, "line one\nline two", post.Content)
}

func TestLikeEndpointContract(t *testing.T) {
	r, db := newTestRouter(t)
	createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	post := models.Post{Title: "Hello", Content: "b", Username: "alice", Timestamp: time.Now(), LikedBy: models.UsernameSet{}}
	require.NoError(t, db.Create(&post).Error)

	cookie := sessionCookie(t, bob)
	w := doRequest(r, http.MethodPost, "/like/1", nil, cookie)

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Success bool `json:"success"`
		Likes   int  `json:"likes"`
		Liked   bool `json:"liked"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.True(t, body.Liked)
	assert.Equal(t, 1, body.Likes)

	// second toggle removes the like
	w = doRequest(r, http.MethodPost, "/like/1", nil, cookie)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.False(t, body.Liked)
	assert.Equal(t, 0, body.Likes)
}

func TestLikeOwnPostFails(t *testing.T) {
	r, db := newTestRouter(t)
	alice := createUser(t, db, "alice")
	post := models.Post{Title: "Hello", Content: "b", Username: "alice", Timestamp: time.Now(), LikedBy: models.UsernameSet{}}
	require.NoError(t, db.Create(&post).Error)

	w := doRequest(r, http.MethodPost, "/like/1", nil, sessionCookie(t, alice))

	var body struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
}

func TestDeleteRequiresAuth(t *testing.T) {
	r, db := newTestRouter(t)
	createUser(t, db, "alice")
	post := models.Post{Title: "Hello", Content: "b", Username: "alice", Timestamp: time.Now(), LikedBy: models.UsernameSet{}}
	require.NoError(t, db.Create(&post).Error)

	w := doRequest(r, http.MethodPost, "/delete/1", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestDeleteByNonAuthorRedirectsToError(t *testing.T) {
	r, db := newTestRouter(t)
	createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	post := models.Post{Title: "Hello", Content: "b", Username: "alice", Timestamp: time.Now(), LikedBy: models.UsernameSet{}}
	require.NoError(t, db.Create(&post).Error)

	w := doRequest(r, http.MethodPost, "/delete/1", nil, sessionCookie(t, bob))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/error", w.Header().Get("Location"))

	var count int64
	db.Model(&models.Post{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAvatarEndpoint(t *testing.T) {
	r, db := newTestRouter(t)
	createUser(t, db, "alice")

	w := doRequest(r, http.MethodGet, "/avatar/alice", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", w.Body.String()[:4])
}

func TestAvatarUnknownUserRedirects(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/avatar/ghost", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/error", w.Header().Get("Location"))
}

func TestRegisterAndLoginFlow(t *testing.T) {
	r, db := newTestRouter(t)

	w := doRequest(r, http.MethodPost, "/register", url.Values{"username": {"alice"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	var user models.User
	require.NoError(t, db.Where("username = ?", "alice").First(&user).Error)

	// duplicate username bounces back with an error
	w = doRequest(r, http.MethodPost, "/register", url.Values{"username": {"alice"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/register?error=")

	// login with an unknown name redirects with an error
	w = doRequest(r, http.MethodPost, "/login", url.Values{"username": {"ghost"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/login?error=")

	// login with the registered name succeeds
	w = doRequest(r, http.MethodPost, "/login", url.Values{"username": {"alice"}})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	found := false
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookieName && c.Value != "" {
			found = true
		}
	}
	assert.True(t, found, "expected a session cookie after login")
}

func TestProfileRequiresLogin(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/profile", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestProfileShowsOwnPosts(t *testing.T) {
	r, db := newTestRouter(t)
	alice := createUser(t, db, "alice")
	createUser(t, db, "bob")
	require.NoError(t, db.Create(&models.Post{Title: "mine", Content: "b", Username: "alice", Timestamp: time.Now(), LikedBy: models.UsernameSet{}}).Error)
	require.NoError(t, db.Create(&models.Post{Title: "theirs", Content: "b", Username: "bob", Timestamp: time.Now(), LikedBy: models.UsernameSet{}}).Error)

	w := doRequest(r, http.MethodGet, "/profile", nil, sessionCookie(t, alice))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mine")
	assert.NotContains(t, w.Body.String(), "theirs")
}

func TestSortPostsFragment(t *testing.T) {
	r, db := newTestRouter(t)
	createUser(t, db, "alice")
	require.NoError(t, db.Create(&models.Post{Title: "Popular", Content: "b", Username: "alice", Timestamp: time.Now(), Likes: 2, LikedBy: models.UsernameSet{"bob", "carol"}}).Error)

	w := doRequest(r, http.MethodGet, "/sortPosts?sortBy=likes", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		HTML string `json:"html"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.HTML, "Popular")
	assert.Contains(t, body.HTML, "like-button")
}

func TestPostPageAndComments(t *testing.T) {
	r, db := newTestRouter(t)
	createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	post := models.Post{Title: "Hello", Content: "b", Username: "alice", Timestamp: time.Now(), LikedBy: models.UsernameSet{}}
	require.NoError(t, db.Create(&post).Error)

	w := doRequest(r, http.MethodPost, "/post/1/comments", url.Values{"content": {"great post"}}, sessionCookie(t, bob))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/post/1", w.Header().Get("Location"))

	w = doRequest(r, http.MethodGet, "/post/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "great post")
}

func TestMissingPostRedirects(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/post/99", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/error", w.Header().Get("Location"))
}

func TestLogoutClearsSession(t *testing.T) {
	r, db := newTestRouter(t)
	alice := createUser(t, db, "alice")
	cookie := sessionCookie(t, alice)

	w := doRequest(r, http.MethodGet, "/logout", nil, cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	// the old cookie no longer resolves to a logged-in user
	w = doRequest(r, http.MethodGet, "/profile", nil, cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestStatsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	// generate a page view
	doRequest(r, http.MethodGet, "/", nil)

	w := doRequest(r, http.MethodGet, "/stats", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Total int64 `json:"total"`
		Paths []struct {
			Path  string `json:"path"`
			Count int64  `json:"count"`
		} `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.GreaterOrEqual(t, body.Total, int64(1))
	require.NotEmpty(t, body.Paths)
	assert.Equal(t, "/", body.Paths[0].Path)
}
