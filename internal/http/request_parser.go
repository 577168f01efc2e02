package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"allowance/internal/services"
)

// HeaderOwnerID identifies whose records a request reads and writes.
const HeaderOwnerID = "X-Owner-ID"

const maxBodyBytes = 64 << 10

var errBadRequest = errors.New("bad request")

type sessionKey struct{}

// withSession resolves the owner header into a services.Session. Requests
// without one are rejected before reaching a handler.
func withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := services.NewSession(sanitizeInput(r.Header.Get(HeaderOwnerID)))
		if err != nil {
			ErrorResponse(http.StatusBadRequest, "missing "+HeaderOwnerID+" header").Write(w)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(r *http.Request) services.Session {
	sess, _ := r.Context().Value(sessionKey{}).(services.Session)
	return sess
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields
// and oversized bodies.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty body", errBadRequest)
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: body too large", errBadRequest)
		default:
			return fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
		}
	}
	if dec.More() {
		return fmt.Errorf("%w: body must contain a single object", errBadRequest)
	}
	return nil
}

// sanitizeInput strips control characters and surrounding whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
