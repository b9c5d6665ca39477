package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

const (
	bearerScheme    = "Bearer "
	errCodeInvalid  = -32600
	errUnauthorized = "Unauthorized"
)

// bearerAuth is chi middleware that admits requests carrying
// "Authorization: Bearer <secret>". Rejected requests receive a JSON-RPC
// error object with HTTP 401.
func bearerAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if validToken(secret, r.Header.Get("Authorization")) {
				next.ServeHTTP(w, r)
				return
			}
			writeRPCError(w, http.StatusUnauthorized, errCodeInvalid, errUnauthorized)
		})
	}
}

func writeRPCError(w http.ResponseWriter, status, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Version string `json:"jsonrpc"`
		Error   struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		ID any `json:"id"`
	}{
		Version: "2.0",
		Error: struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}{code, msg},
	})
}

// validToken never accepts an unset secret.
func validToken(secret, header string) bool {
	token, ok := strings.CutPrefix(header, bearerScheme)
	if !ok || secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}
