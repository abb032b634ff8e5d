package api

import (
	"net/http"
	"strings"

	auth "github.com/chainballot/chainballot/internal/auth"
)

type authedHandler func(w http.ResponseWriter, r *http.Request, userId uint64)

// requireUser resolves the bearer token to a user id before the handler
// runs. Role checks stay with the coordinator, this only establishes
// identity.
func requireUser(service *auth.Service, next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeErrorMessage(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		userId, err := service.VerifyToken(token)
		if err != nil {
			writeErrorMessage(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		next(w, r, userId)
	}
}
