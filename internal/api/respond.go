package api

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/chainballot/chainballot/internal/apperrors"
)

type errorResponse struct {
	Error string `json:"error"`
	//Ambiguous marks outcomes the ledger may still have committed
	Ambiguous bool `json:"ambiguous,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeError maps the error taxonomy onto response codes. Raw internal
// detail never reaches the client.
func writeError(w http.ResponseWriter, err error) {
	kind := apperrors.KindOf(err)

	switch kind {
	case apperrors.KindValidation, apperrors.KindResultsNotYetAvailable:
		writeErrorMessage(w, http.StatusBadRequest, errorMessage(err))
	case apperrors.KindAuthorization:
		writeErrorMessage(w, http.StatusForbidden, errorMessage(err))
	case apperrors.KindPreconditionFailed:
		writeErrorMessage(w, http.StatusConflict, errorMessage(err))
	case apperrors.KindNotFound:
		writeErrorMessage(w, http.StatusNotFound, errorMessage(err))
	case apperrors.KindLedgerUnavailable, apperrors.KindTransactionRejected:
		writeErrorMessage(w, http.StatusBadGateway, errorMessage(err))
	case apperrors.KindConfirmationTimeout:
		writeJSON(w, http.StatusGatewayTimeout, errorResponse{
			Error:     "the ledger did not confirm in time, the outcome is unknown",
			Ambiguous: true,
		})
	case apperrors.KindReconciliationRequired:
		writeErrorMessage(w, http.StatusInternalServerError, errorMessage(err))
	default:
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
	}
}

// errorMessage exposes only the taxonomy-level message, not the
// wrapped storage or rpc detail.
func errorMessage(err error) string {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr.Msg
	}

	return "internal error"
}

func parseJSONBody(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(out); err != nil {
		return apperrors.Wrap(apperrors.KindValidation, "invalid JSON body", err)
	}

	return nil
}
