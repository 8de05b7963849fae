package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"internship-backend/internal/shared/auth"
	"internship-backend/internal/shared/server/respond"
	"internship-backend/internal/shared/telemetry"
	"internship-backend/internal/users"
)

// GoogleService handles Google OAuth flows. Sign-up data chosen before the
// redirect (the student's institution) travels inside the signed state token.
type GoogleService struct {
	oauthConfig *oauth2.Config
	signer      *auth.Signer
	users       *users.Service
	uiRedirect  string
	stateTTL    time.Duration

	// fetchIdentity exchanges the authorization code for the user's profile.
	fetchIdentity func(ctx context.Context, code string) (users.ExternalIdentity, error)
}

// NewGoogleService builds a GoogleService.
func NewGoogleService(clientID, clientSecret, redirectURL, uiRedirect string, signer *auth.Signer, userSvc *users.Service) *GoogleService {
	s := &GoogleService{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		signer:     signer,
		users:      userSvc,
		uiRedirect: uiRedirect,
		stateTTL:   5 * time.Minute,
	}
	s.fetchIdentity = s.exchange
	return s
}

// RegisterRoutes attaches Google auth routes.
func (s *GoogleService) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/auth/google/start", s.start)
	rg.GET("/auth/google/callback", s.callback)
}

func (s *GoogleService) configured() bool {
	return s.oauthConfig.ClientID != "" && s.oauthConfig.ClientSecret != "" && s.oauthConfig.RedirectURL != ""
}

func (s *GoogleService) start(c *gin.Context) {
	if !s.configured() {
		respond.Error(c, http.StatusInternalServerError, "auth_not_configured", "Google auth not configured", nil)
		return
	}

	var institutionID *int64
	if raw := c.Query("institutionId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid institutionId", nil)
			return
		}
		institutionID = &id
	}

	state, err := s.signer.SignState(institutionID, uuid.NewString(), s.stateTTL)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start sign-in", nil)
		return
	}
	c.Redirect(http.StatusFound, s.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline))
}

func (s *GoogleService) callback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "missing state or code", nil)
		return
	}

	claims, err := s.signer.VerifyState(state)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid or expired state", nil)
		return
	}

	ctx := c.Request.Context()
	ident, err := s.fetchIdentity(ctx, code)
	if err != nil {
		respond.Error(c, http.StatusBadGateway, "auth_failed", "failed to fetch user profile", nil)
		return
	}
	if ident.Email == "" {
		respond.Error(c, http.StatusBadGateway, "auth_failed", "invalid user profile", nil)
		return
	}

	user, created, err := s.users.SignIn(ctx, ident, claims.InstitutionID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to sign in", nil)
		return
	}
	if created {
		telemetry.Info("auth.student_registered", map[string]any{
			"user_id":        user.ID,
			"institution_id": claims.InstitutionID,
		})
	}

	token, err := s.signer.SignSession(user.Actor(), user.Email)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to issue token", nil)
		return
	}

	redirectURL, err := appendToken(s.uiRedirect, token)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to redirect", nil)
		return
	}
	c.Redirect(http.StatusFound, redirectURL)
}

type googleUserInfo struct {
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

func (s *GoogleService) exchange(ctx context.Context, code string) (users.ExternalIdentity, error) {
	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return users.ExternalIdentity{}, fmt.Errorf("exchange code: %w", err)
	}
	client := s.oauthConfig.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return users.ExternalIdentity{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return users.ExternalIdentity{}, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return users.ExternalIdentity{}, err
	}
	return users.ExternalIdentity{Email: info.Email, FirstName: info.GivenName, LastName: info.FamilyName}, nil
}

// appendToken puts the session token in the URL fragment so it never reaches
// server logs of the UI host.
func appendToken(rawURL, token string) (string, error) {
	if rawURL == "" {
		return "", errors.New("redirect url required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	u.Fragment = "token=" + token
	return u.String(), nil
}
