// Package handler exposes the catalog, checkout and token operations over
// JSON/HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/dukerupert/larder/internal/auth"
	"github.com/dukerupert/larder/internal/model"
)

const (
	maxBodyBytes = 1 << 20

	// ClientIDHeader carries the websocket client id of the caller so its own
	// writes are not pushed back to it.
	ClientIDHeader = "X-Client-ID"
)

func parseIDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, errors.New("id must be positive")
	}
	return id, nil
}

// decodeJSON reads the request body into v. An empty body leaves v as is.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func subscriptionID(r *http.Request) int64 {
	return auth.SubscriptionID(r.Context())
}

func clientID(r *http.Request) string {
	return r.Header.Get(ClientIDHeader)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeResponse writes an envelope: 200 when it succeeded, 500 otherwise.
func writeResponse[T any](w http.ResponseWriter, resp model.Response[T]) {
	status := http.StatusOK
	if !resp.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, resp)
}
