package services

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/teamwiki/authd/internal/config"
	"github.com/teamwiki/authd/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// SessionArtifact carries everything the session transport needs to
// establish a signed-in session: the identifiers to store and the
// redirect target to send the client to.
type SessionArtifact struct {
	UserID      string
	TeamID      string
	RedirectURL string
	IsNewUser   bool
	IsNewTeam   bool
}

// SessionIssuer converts a verified (user, team) pair into a session
// artifact. Web clients get a same-site path; desktop clients get a
// custom-scheme redirect carrying a short-lived signed transfer token.
type SessionIssuer struct {
	desktopScheme string
	transferKey   []byte
	transferTTL   time.Duration
}

func NewSessionIssuer(cfg *config.Config) *SessionIssuer {
	return &SessionIssuer{
		desktopScheme: cfg.DesktopRedirectScheme,
		transferKey:   []byte(cfg.TransferTokenSecret),
		transferTTL:   cfg.TransferTokenTTL,
	}
}

// Establish produces the session artifact for a signed-in user. No
// retries: any failure here is fatal to the request.
func (i *SessionIssuer) Establish(
	ctx context.Context,
	user *models.User,
	team *models.Team,
	client string,
	isNewUser, isNewTeam bool,
) (*SessionArtifact, error) {
	artifact := &SessionArtifact{
		UserID:    user.ID,
		TeamID:    team.ID,
		IsNewUser: isNewUser,
		IsNewTeam: isNewTeam,
	}

	switch client {
	case config.ClientDesktop:
		token, err := i.signTransferToken(user, team)
		if err != nil {
			return nil, fmt.Errorf("transfer token signing failed: %w", err)
		}
		artifact.RedirectURL = fmt.Sprintf(
			"%s://auth?token=%s", i.desktopScheme, url.QueryEscape(token),
		)
	default:
		if isNewUser {
			artifact.RedirectURL = "/welcome"
		} else {
			artifact.RedirectURL = "/home"
		}
	}

	return artifact, nil
}

// signTransferToken mints the short-lived token the desktop app
// exchanges for its own session.
func (i *SessionIssuer) signTransferToken(user *models.User, team *models.Team) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"team": team.ID,
		"type": "transfer",
		"iat":  now.Unix(),
		"exp":  now.Add(i.transferTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.transferKey)
}
