package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/bustanapp/bustan/config"
	"github.com/bustanapp/bustan/middleware"
	"github.com/bustanapp/bustan/models"
	"github.com/bustanapp/bustan/store"
	"github.com/bustanapp/bustan/utils"
)

// AuthController handles sign-in, sign-out and identity endpoints.
type AuthController struct {
	db       *gorm.DB
	students *store.StudentStore
}

// NewAuthController creates a new controller instance.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db, students: store.NewStudentStore(db)}
}

func tokenTTL() time.Duration {
	return time.Duration(config.Get().TokenTTLHours) * time.Hour
}

// Login authenticates a username/password pair and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}

	var user models.User
	if err := a.db.Where("username = ?", strings.TrimSpace(req.Username)).First(&user).Error; err != nil {
		// Same message for unknown user and wrong password.
		utils.Error(ctx, http.StatusUnauthorized, 40111, "invalid username or password")
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "invalid username or password")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, tokenTTL())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": user})
}

// Logout revokes the presented token until its natural expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusBadRequest, 40011, "missing bearer token")
		return
	}
	tokenStr := strings.TrimSpace(parts[1])

	claims, err := utils.ParseToken(tokenStr)
	if err == nil && claims.ExpiresAt != nil {
		utils.BlacklistToken(tokenStr, claims.ExpiresAt.Time)
	}

	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the signed-in account; student accounts include the resolved
// class/section profile.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var user models.User
	if err := a.db.First(&user, "id = ?", userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
		return
	}

	payload := gin.H{"user": user}
	if user.Role == models.RoleStudent {
		if info, err := a.students.FindInfo(ctx.Request.Context(), userID); err == nil {
			payload["student"] = info
		}
	}

	utils.Success(ctx, payload)
}

// OAuthRedirect generates a provider-specific authorization URL for staff
// sign-in.
func (a *AuthController) OAuthRedirect(ctx *gin.Context) {
	provider := ctx.Param("provider")
	cfg, err := oauthConfig(provider)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40012, err.Error())
		return
	}

	state := uuid.NewString()
	utils.SaveState(state, 10*time.Minute)

	url := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
	utils.Success(ctx, gin.H{"authorization_url": url, "state": state})
}

// OAuthCallback exchanges the authorization code for an identity. Only
// pre-provisioned admin accounts may enter this way; students always use
// their issued credentials.
func (a *AuthController) OAuthCallback(ctx *gin.Context) {
	provider := ctx.Param("provider")
	code := ctx.Query("code")
	state := ctx.Query("state")

	if code == "" || state == "" {
		utils.Error(ctx, http.StatusBadRequest, 40013, "missing code or state")
		return
	}
	if !utils.ConsumeState(state) {
		utils.Error(ctx, http.StatusBadRequest, 40014, "invalid or expired state")
		return
	}

	cfg, err := oauthConfig(provider)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40012, err.Error())
		return
	}

	token, err := cfg.Exchange(ctx.Request.Context(), code)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40015, "failed to exchange code")
		return
	}

	identity, err := fetchOAuthIdentity(ctx.Request.Context(), provider, cfg, token)
	if err != nil || identity.Email == "" {
		utils.Error(ctx, http.StatusBadRequest, 40016, "failed to fetch provider identity")
		return
	}

	var user models.User
	if err := a.db.Where("email = ? AND role = ?", identity.Email, models.RoleAdmin).First(&user).Error; err != nil {
		utils.Error(ctx, http.StatusForbidden, 40302, "no staff account for this identity")
		return
	}

	if user.Provider == "" {
		a.db.Model(&user).Updates(map[string]interface{}{"provider": provider, "provider_id": identity.ID})
	}

	jwtToken, err := utils.GenerateToken(user.ID, user.Username, user.Role, tokenTTL())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"token": jwtToken, "user": user})
}

type oauthIdentity struct {
	ID    string
	Email string
	Name  string
}

func oauthConfig(provider string) (*oauth2.Config, error) {
	cfg := config.Get()
	switch strings.ToLower(provider) {
	case "google":
		if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
			return nil, fmt.Errorf("google oauth not configured")
		}
		return &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  fmt.Sprintf("%s/api/v1/auth/oauth/google/callback", cfg.OAuthRedirectBase),
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		}, nil
	case "github":
		if cfg.GitHubClientID == "" || cfg.GitHubClientSecret == "" {
			return nil, fmt.Errorf("github oauth not configured")
		}
		return &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  fmt.Sprintf("%s/api/v1/auth/oauth/github/callback", cfg.OAuthRedirectBase),
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func fetchOAuthIdentity(ctx context.Context, provider string, cfg *oauth2.Config, token *oauth2.Token) (*oauthIdentity, error) {
	client := cfg.Client(ctx, token)

	var url string
	switch strings.ToLower(provider) {
	case "google":
		url = "https://www.googleapis.com/oauth2/v2/userinfo"
	case "github":
		url = "https://api.github.com/user"
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider userinfo returned status %d", resp.StatusCode)
	}

	var raw struct {
		ID    json.Number `json:"id"`
		Email string      `json:"email"`
		Name  string      `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	return &oauthIdentity{ID: raw.ID.String(), Email: raw.Email, Name: raw.Name}, nil
}

// getUserID extracts the authenticated user id placed by AuthRequired.
func getUserID(ctx *gin.Context) (string, bool) {
	id := ctx.GetString(middleware.ContextUserIDKey)
	return id, id != ""
}
