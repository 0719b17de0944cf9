package restapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cbmason/trainspotting/internal/logging"
	"github.com/cbmason/trainspotting/internal/models"
)

func (api *RestAPI) sendResponse(w http.ResponseWriter, r *http.Request, response models.ResponseModel) {
	setJSONResponseType(&w)
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
}

func (api *RestAPI) sendNotFound(w http.ResponseWriter, r *http.Request) {
	api.sendError(w, r, http.StatusNotFound, "resource not found")
}

func (api *RestAPI) sendUnauthorized(w http.ResponseWriter, r *http.Request) {
	api.sendError(w, r, http.StatusUnauthorized, "permission denied")
}

func setJSONResponseType(w *http.ResponseWriter) {
	(*w).Header().Set("Content-Type", "application/json")
}

func (api *RestAPI) sendError(w http.ResponseWriter, r *http.Request, code int, message string) {
	setJSONResponseType(&w)
	w.WriteHeader(code)

	response := models.ResponseModel{
		Code:        code,
		CurrentTime: models.ResponseCurrentTime(api.Clock),
		Text:        message,
		Version:     2,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.LogError(api.Logger, "failed to encode error response", err,
			slog.String("method", r.Method), slog.String("path", r.URL.Path))
	}
}

// serverErrorResponse logs err and reports a 500. Headers may already be
// written when encoding fails midway; the status is then left as is.
func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(api.Logger, "internal server error", err,
		slog.String("method", r.Method), slog.String("path", r.URL.Path))
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
