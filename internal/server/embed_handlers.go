package server

import (
	"context"
	"net/http"
	"time"

	"github.com/classpulse/embedapi/internal/auth"
	"github.com/classpulse/embedapi/internal/powerbi"
)

// EmbedBroker exchanges an authenticated identity for a role-scoped embed
// session. Satisfied by *powerbi.Client; faked in tests.
type EmbedBroker interface {
	GetEmbedInfo(ctx context.Context, identity auth.Identity) (*powerbi.EmbedInfo, error)
}

// EmbedTokenResponse is the body of GET /embed/getEmbedToken.
type EmbedTokenResponse struct {
	AccessToken string    `json:"accessToken"`
	EmbedURL    string    `json:"embedUrl"`
	Expiry      time.Time `json:"expiry"`
	DatasetID   string    `json:"datasetId"`
}

// HandleGetEmbedToken brokers a Power BI embed token for the authenticated
// caller. The caller never sees the service principal's credentials or app
// token; only the short-lived, RLS-scoped embed token crosses this boundary.
func HandleGetEmbedToken(broker EmbedBroker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated")
			return
		}

		info, err := broker.GetEmbedInfo(r.Context(), identity)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, EmbedTokenResponse{
			AccessToken: info.AccessToken,
			EmbedURL:    info.EmbedURL,
			Expiry:      info.Expiry,
			DatasetID:   info.DatasetID,
		})
	}
}
