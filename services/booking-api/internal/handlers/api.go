// Package handlers exposes the booking API over HTTP. Every tenant-scoped
// route reads the tenant from the verified access token only.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/apptbook/libs/auth"
	"github.com/md-rashed-zaman/apptbook/libs/httpx"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/accounts"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/apperr"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/booking"
	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/catalog"
)

type API struct {
	accounts     *accounts.Service
	catalog      *catalog.Catalog
	booking      *booking.Engine
	issuer       *auth.Issuer
	logger       *slog.Logger
	cookieSecure bool
}

func NewAPI(acc *accounts.Service, cat *catalog.Catalog, eng *booking.Engine, issuer *auth.Issuer, logger *slog.Logger, cookieSecure bool) *API {
	return &API{
		accounts:     acc,
		catalog:      cat,
		booking:      eng,
		issuer:       issuer,
		logger:       logger,
		cookieSecure: cookieSecure,
	}
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		a.logger.Error("request failed",
			"err", err,
			"request_id", httpx.RequestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
		)
	}
	httpx.WriteMessage(w, apperr.HTTPStatus(kind), apperr.Message(err))
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.InvalidInput("Request body too large")
		}
		return apperr.InvalidInput("Invalid JSON body")
	}
	return nil
}
