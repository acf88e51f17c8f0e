package handlers

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/teamwiki/authd/internal/auth"
	"github.com/teamwiki/authd/internal/config"
	"github.com/teamwiki/authd/internal/core"
	"github.com/teamwiki/authd/internal/models"
	"github.com/teamwiki/authd/internal/services"
	"github.com/teamwiki/authd/internal/store"
	"github.com/teamwiki/authd/internal/tasks"
	"github.com/teamwiki/authd/internal/util"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// Session value keys.
const (
	SessionUserID = "user_id"
	SessionTeamID = "team_id"
)

// Redirect notices surfaced to the client. Auth failures collapse into
// a single generic notice; only suspension is reported distinctly.
const (
	NoticeAuthError    = "auth-error"
	NoticeSuspended    = "suspended"
	NoticeExpiredToken = "expired-token"
	NoticeResetSuccess = "password-reset-success"
)

// PasswordHandler owns the password sign-in, reset request, and reset
// callback endpoints.
type PasswordHandler struct {
	verifier    *auth.Verifier
	provisioner *services.Provisioner
	reset       *services.ResetService
	issuer      *services.SessionIssuer
	scheduler   tasks.Scheduler
	store       *store.Store
	cfg         *config.Config
	metrics     core.Recorder
}

func NewPasswordHandler(
	verifier *auth.Verifier,
	provisioner *services.Provisioner,
	reset *services.ResetService,
	issuer *services.SessionIssuer,
	scheduler tasks.Scheduler,
	s *store.Store,
	cfg *config.Config,
	m core.Recorder,
) *PasswordHandler {
	return &PasswordHandler{
		verifier:    verifier,
		provisioner: provisioner,
		reset:       reset,
		issuer:      issuer,
		scheduler:   scheduler,
		store:       s,
		cfg:         cfg,
		metrics:     m,
	}
}

// SignIn handles POST /auth/password.
//
// Field validation fails fast with a stable error code before any
// credential or storage work. Credential mismatches of every kind
// collapse into the auth-error notice.
func (h *PasswordHandler) SignIn(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	client := c.PostForm("client")
	if client == "" {
		client = config.ClientWeb
	}
	redirectTo := c.PostForm("redirect_to")

	if !isValidEmail(email) {
		c.JSON(http.StatusBadRequest, gin.H{
			"ok":    false,
			"error": "validation_error",
		})
		return
	}
	if password == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"ok":    false,
			"error": "param_required",
		})
		return
	}

	start := time.Now()
	result, err := h.verifier.Verify(c.Request.Context(), email, password)
	if err != nil {
		log.Printf("[Auth] Credential verification failed: %v", err)
		h.metrics.RecordDatabaseQueryError("verify_credentials")
		c.JSON(http.StatusInternalServerError, gin.H{
			"ok":    false,
			"error": "internal_error",
		})
		return
	}

	h.metrics.RecordLogin(string(result.Outcome))
	defer func() { h.metrics.RecordLoginDuration(time.Since(start)) }()

	switch result.Outcome {
	case auth.OutcomeVerified:
		team, err := h.store.GetTeamByID(result.User.TeamID)
		if err != nil {
			log.Printf("[Auth] Team lookup failed for user %s: %v", result.User.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"ok":    false,
				"error": "internal_error",
			})
			return
		}
		h.establishSession(c, result.User, team, client, redirectTo, false, false)

	case auth.OutcomeBootstrap:
		h.bootstrapSignIn(c, email, password, client, redirectTo)

	case auth.OutcomeSuspended:
		c.Redirect(http.StatusFound, noticeURL(NoticeSuspended))

	default:
		c.Redirect(http.StatusFound, noticeURL(NoticeAuthError))
	}
}

// bootstrapSignIn provisions the first account for the configured admin
// identity and signs it in. Concurrent first logins converge on one set
// of rows; the provisioner resolves constraint conflicts internally.
func (h *PasswordHandler) bootstrapSignIn(c *gin.Context, email, password, client, redirectTo string) {
	secretHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[Auth] Password hashing failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"ok":    false,
			"error": "internal_error",
		})
		return
	}

	normalized := models.NormalizeEmail(email)
	result, err := h.provisioner.Provision(
		c.Request.Context(),
		store.TeamDescriptor{
			Name:      h.cfg.DefaultTeamName,
			Domain:    baseHost(h.cfg.BaseURL),
			Subdomain: h.cfg.DefaultTeamSubdomain,
		},
		store.UserDescriptor{
			Email: normalized,
			Name:  displayNameFromEmail(normalized),
		},
		store.AuthenticationDescriptor{
			Provider:       config.ProviderPassword,
			ProviderUserID: normalized,
			SecretHash:     string(secretHash),
		},
	)
	if err != nil {
		log.Printf("[Auth] Bootstrap provisioning failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"ok":    false,
			"error": "internal_error",
		})
		return
	}

	h.establishSession(
		c, result.User, result.Team, client, redirectTo, result.IsNewUser, result.IsNewTeam,
	)
}

// RequestReset handles POST /auth/password.reset.
//
// The outward response is identical for known-eligible, unknown, and
// ineligible emails: a success notice. Only the presence of a scheduled
// notification differs, and that is not observable by the caller.
func (h *PasswordHandler) RequestReset(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	if !isValidEmail(email) {
		c.JSON(http.StatusBadRequest, gin.H{
			"ok":    false,
			"error": "validation_error",
		})
		return
	}

	user, err := h.store.GetUserByEmail(models.NormalizeEmail(email))
	if errors.Is(err, store.ErrRecordNotFound) {
		c.Redirect(http.StatusFound, noticeURL(NoticeResetSuccess))
		return
	}
	if err != nil {
		log.Printf("[Auth] User lookup failed: %v", err)
		h.metrics.RecordDatabaseQueryError("reset_user_lookup")
		c.JSON(http.StatusInternalServerError, gin.H{
			"ok":    false,
			"error": "internal_error",
		})
		return
	}

	if user.Suspended {
		c.Redirect(http.StatusFound, noticeURL(NoticeResetSuccess))
		return
	}

	token, err := h.reset.Issue(c.Request.Context(), user)
	if errors.Is(err, services.ErrResetNotEligible) {
		c.Redirect(http.StatusFound, noticeURL(NoticeResetSuccess))
		return
	}
	if err != nil {
		log.Printf("[Auth] Reset token issuance failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"ok":    false,
			"error": "internal_error",
		})
		return
	}

	// Enqueue failure is logged and swallowed: the queue owns delivery,
	// and the request outcome must not depend on it.
	payload := tasks.ResetPasswordEmailPayload{
		Email:    user.Email,
		Name:     user.Name,
		TeamName: h.teamName(user),
		ResetURL: h.cfg.BaseURL + "/auth/password.callback?token=" + url.QueryEscape(token),
	}
	if err := h.scheduler.ScheduleResetPasswordEmail(c.Request.Context(), payload); err != nil {
		log.Printf("[Auth] Scheduling reset notification failed: %v", err)
	}

	c.Redirect(http.StatusFound, noticeURL(NoticeResetSuccess))
}

// ResetCallback handles GET /auth/password.callback.
//
// Invalid and expired tokens share the expired-token notice; the
// distinction lives in the service error taxonomy and metrics only.
func (h *PasswordHandler) ResetCallback(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"ok":    false,
			"error": "validation_error",
		})
		return
	}

	user, err := h.reset.Verify(c.Request.Context(), token)
	switch {
	case errors.Is(err, services.ErrInvalidToken), errors.Is(err, services.ErrExpiredToken):
		c.Redirect(http.StatusFound, noticeURL(NoticeExpiredToken))
		return
	case errors.Is(err, services.ErrUserSuspended):
		c.Redirect(http.StatusFound, noticeURL(NoticeSuspended))
		return
	case err != nil:
		log.Printf("[Auth] Reset token verification failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"ok":    false,
			"error": "internal_error",
		})
		return
	}

	team, err := h.store.GetTeamByID(user.TeamID)
	if err != nil {
		log.Printf("[Auth] Team lookup failed for user %s: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"ok":    false,
			"error": "internal_error",
		})
		return
	}

	h.establishSession(c, user, team, config.ClientWeb, "", false, false)
}

// establishSession writes the session values and redirects to the
// artifact target. Session persistence failure is fatal to the request.
// A caller-supplied redirect overrides the default web target only when
// it passes the open-redirect check; desktop clients always follow the
// custom-scheme redirect.
func (h *PasswordHandler) establishSession(
	c *gin.Context,
	user *models.User,
	team *models.Team,
	client string,
	redirectTo string,
	isNewUser, isNewTeam bool,
) {
	artifact, err := h.issuer.Establish(
		c.Request.Context(), user, team, client, isNewUser, isNewTeam,
	)
	if err != nil {
		log.Printf("[Auth] Session establishment failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"ok":    false,
			"error": "internal_error",
		})
		return
	}

	session := sessions.Default(c)
	session.Set(SessionUserID, artifact.UserID)
	session.Set(SessionTeamID, artifact.TeamID)
	if err := session.Save(); err != nil {
		log.Printf("[Auth] Session save failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"ok":    false,
			"error": "internal_error",
		})
		return
	}

	target := artifact.RedirectURL
	if client != config.ClientDesktop && redirectTo != "" &&
		util.IsRedirectSafe(redirectTo, h.cfg.BaseURL) {
		target = redirectTo
	}
	c.Redirect(http.StatusFound, target)
}

// teamName resolves the user's team name for notification copy, falling
// back to the configured app name.
func (h *PasswordHandler) teamName(user *models.User) string {
	team, err := h.store.GetTeamByID(user.TeamID)
	if err != nil {
		return h.cfg.AppName
	}
	return team.Name
}

func isValidEmail(email string) bool {
	return email != "" && strings.Contains(email, "@")
}

func noticeURL(notice string) string {
	return "/?notice=" + notice
}

// baseHost extracts the host from the configured base URL for use as
// the default team domain.
func baseHost(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return baseURL
	}
	return u.Hostname()
}

// displayNameFromEmail derives a placeholder display name from the
// local part of an email address.
func displayNameFromEmail(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
