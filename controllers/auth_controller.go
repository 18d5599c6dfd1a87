package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/cspring/microblog/config"
	"github.com/cspring/microblog/middleware"
	"github.com/cspring/microblog/models"
	"github.com/cspring/microblog/services"
	"github.com/cspring/microblog/utils"
)

// AuthController handles login, registration, logout, and the external
// identity handshake.
type AuthController struct {
	identity *services.IdentityService
}

// NewAuthController creates an AuthController.
func NewAuthController(identity *services.IdentityService) *AuthController {
	return &AuthController{identity: identity}
}

// LoginPage renders the combined login/register form with an optional login
// error from the query string.
func (a *AuthController) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "loginRegister.tmpl", gin.H{
		"LoginError": c.Query("error"),
		"User":       middleware.UserFrom(c),
	})
}

// RegisterPage renders the same form with an optional registration error.
func (a *AuthController) RegisterPage(c *gin.Context) {
	c.HTML(http.StatusOK, "loginRegister.tmpl", gin.H{
		"RegError": c.Query("error"),
		"User":     middleware.UserFrom(c),
	})
}

// RegisterUsernamePage renders the username pick form shown after a first
// external login.
func (a *AuthController) RegisterUsernamePage(c *gin.Context) {
	c.HTML(http.StatusOK, "registerUsername.tmpl", gin.H{
		"RegError": c.Query("error"),
		"User":     middleware.UserFrom(c),
	})
}

// ErrorPage renders the generic error view.
func (a *AuthController) ErrorPage(c *gin.Context) {
	c.HTML(http.StatusOK, "error.tmpl", gin.H{
		"User": middleware.UserFrom(c),
	})
}

// Login establishes a session for an existing username (username-only mode).
func (a *AuthController) Login(c *gin.Context) {
	username := c.PostForm("username")
	user, err := a.identity.LoginByUsername(username)
	if err != nil {
		c.Redirect(http.StatusFound, "/login?error="+url.QueryEscape("Invalid username"))
		return
	}
	if err := a.establishSession(c, user.ID); err != nil {
		c.Redirect(http.StatusFound, "/error")
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// Register creates a local account. When the session holds a pending external
// identity hash the account is bound to it; otherwise a placeholder identity
// is generated for username-only accounts. Serves both POST /register and
// POST /registerUsername.
func (a *AuthController) Register(c *gin.Context) {
	username := c.PostForm("username")
	pendingHash := ""
	if sess := middleware.SessionFrom(c); sess != nil {
		pendingHash = sess.PendingExternalIDHash
	}

	user, err := a.identity.RegisterLocalUser(username, pendingHash)
	if err != nil {
		if errors.Is(err, services.ErrConflict) {
			c.Redirect(http.StatusFound, "/register?error="+url.QueryEscape("Username or identity already taken"))
			return
		}
		c.Redirect(http.StatusFound, "/error")
		return
	}
	if err := a.establishSession(c, user.ID); err != nil {
		c.Redirect(http.StatusFound, "/error")
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// Logout destroys the session. A failing destroy is the one fatal error of
// the session layer and surfaces as the error page.
func (a *AuthController) Logout(c *gin.Context) {
	if sess := middleware.SessionFrom(c); sess != nil {
		if err := utils.DestroySession(sess.ID); err != nil {
			utils.Sugar.Errorf("session destroy failed: %v", err)
			c.Redirect(http.StatusFound, "/error")
			return
		}
	}
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}

// ExternalLogin redirects to the external identity provider's consent page.
func (a *AuthController) ExternalLogin(c *gin.Context) {
	oc, err := a.oauthConfig()
	if err != nil {
		utils.Sugar.Errorf("external login unavailable: %v", err)
		c.Redirect(http.StatusFound, "/error")
		return
	}
	state := uuid.NewString()
	utils.SaveState(state, 10*time.Minute)
	c.Redirect(http.StatusFound, oc.AuthCodeURL(state, oauth2.AccessTypeOffline))
}

// ExternalCallback completes the handshake: it exchanges the code, hashes the
// provider subject id, and either logs the user in or parks the hash in the
// session and sends them to pick a username. The account is not created here.
func (a *AuthController) ExternalCallback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" || !utils.ConsumeState(state) {
		c.Redirect(http.StatusFound, "/error")
		return
	}

	oc, err := a.oauthConfig()
	if err != nil {
		c.Redirect(http.StatusFound, "/error")
		return
	}
	token, err := oc.Exchange(context.Background(), code)
	if err != nil {
		utils.Sugar.Warnf("oauth code exchange failed: %v", err)
		c.Redirect(http.StatusFound, "/error")
		return
	}
	subjectID, err := fetchExternalSubject(token)
	if err != nil {
		utils.Sugar.Warnf("oauth userinfo fetch failed: %v", err)
		c.Redirect(http.StatusFound, "/error")
		return
	}

	user, hash, err := a.identity.CompleteExternalLogin(subjectID)
	switch {
	case err == nil:
		if err := a.establishSession(c, user.ID); err != nil {
			c.Redirect(http.StatusFound, "/error")
			return
		}
		c.Redirect(http.StatusFound, "/")
	case errors.Is(err, services.ErrNotFound):
		if err := a.pendSession(c, hash); err != nil {
			c.Redirect(http.StatusFound, "/error")
			return
		}
		c.Redirect(http.StatusFound, "/registerUsername")
	default:
		c.Redirect(http.StatusFound, "/error")
	}
}

// establishSession marks the request's session as logged in for userID,
// creating the session record when none exists yet.
func (a *AuthController) establishSession(c *gin.Context, userID uint) error {
	sess := middleware.SessionFrom(c)
	if sess == nil {
		sess = &models.Session{ID: uuid.NewString()}
	}
	sess.UserID = userID
	sess.LoggedIn = true
	sess.PendingExternalIDHash = ""
	return a.saveSession(c, sess)
}

// pendSession stores the external identity hash for the registration handoff
// without logging anyone in.
func (a *AuthController) pendSession(c *gin.Context, hash string) error {
	sess := middleware.SessionFrom(c)
	if sess == nil {
		sess = &models.Session{ID: uuid.NewString()}
	}
	sess.PendingExternalIDHash = hash
	return a.saveSession(c, sess)
}

func (a *AuthController) saveSession(c *gin.Context, sess *models.Session) error {
	ttl := time.Duration(config.Get().SessionTTLHours) * time.Hour
	if err := utils.SaveSession(sess, ttl); err != nil {
		return err
	}
	token, err := utils.SignSessionID(sess.ID, ttl)
	if err != nil {
		return err
	}
	c.SetCookie(middleware.SessionCookieName, token, int(ttl.Seconds()), "/", "", false, true)
	c.Set(middleware.ContextSessionKey, sess)
	return nil
}

func (a *AuthController) oauthConfig() (*oauth2.Config, error) {
	cfg := config.Get()
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		return nil, fmt.Errorf("external identity provider not configured")
	}
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  fmt.Sprintf("%s/auth/external/callback", cfg.OAuthRedirectBase),
		Scopes:       []string{"openid", "profile", "email"},
		Endpoint:     google.Endpoint,
	}, nil
}

// fetchExternalSubject resolves the provider's opaque subject identifier for
// the exchanged token. Only the id is used; profile details stay with the
// provider.
func fetchExternalSubject(token *oauth2.Token) (string, error) {
	req, _ := http.NewRequest(http.MethodGet, "https://www.googleapis.com/oauth2/v2/userinfo", nil)
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("userinfo request failed: %s", resp.Status)
	}

	var payload struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if payload.ID == "" {
		return "", fmt.Errorf("userinfo response missing subject id")
	}
	return payload.ID, nil
}
