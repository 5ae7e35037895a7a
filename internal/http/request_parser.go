package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

const (
	// HeaderOwnerID carries the trusted owner identity.
	HeaderOwnerID = "X-Owner-ID"

	maxOwnerIDLength = 128
	maxBodyBytes     = 1 << 20
)

// badRequestError marks input that could not be read at all, as opposed to
// input that was read and failed validation.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

// ownerFromRequest returns the sanitized owner header.
func ownerFromRequest(r *http.Request) (string, error) {
	owner := sanitizeInput(r.Header.Get(HeaderOwnerID))
	switch {
	case owner == "":
		return "", badRequest("missing %s header", HeaderOwnerID)
	case len(owner) > maxOwnerIDLength:
		return "", badRequest("%s header too long", HeaderOwnerID)
	}
	return owner, nil
}

// decodeJSON reads a single JSON object into dst. Validation errors raised by
// field decoders (amounts, dates) are returned as is; anything else is a bad request.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case core.IsValidation(err):
			return err
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		case errors.As(err, &tooLarge):
			return badRequest("request body exceeds %d bytes", tooLarge.Limit)
		default:
			return badRequest("malformed JSON body: %v", err)
		}
	}
	if dec.More() {
		return badRequest("request body must hold a single JSON object")
	}
	return nil
}

// parseRefDate reads the optional date query parameter. Nil means today.
func parseRefDate(r *http.Request) (*time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get("date"))
	if v == "" {
		return nil, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return nil, badRequest("invalid date %q: want YYYY-MM-DD", v)
	}
	return &d.Time, nil
}

// parseListQuery maps list filters: type, active, category_id and order.
func parseListQuery(r *http.Request) (store.Query, error) {
	values := r.URL.Query()
	var q store.Query

	if v := strings.TrimSpace(values.Get("type")); v != "" {
		t := core.CategoryType(strings.ToLower(v))
		if !t.IsValid() {
			return q, badRequest("invalid type %q: want income or expense", v)
		}
		q.Type = t
	}
	if v := strings.TrimSpace(values.Get("active")); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return q, badRequest("invalid active flag %q", v)
		}
		q.ActiveOnly = active
	}
	if v := sanitizeInput(values.Get("category_id")); v != "" {
		q.CategoryID = &v
	}
	switch v := strings.ToLower(strings.TrimSpace(values.Get("order"))); v {
	case "":
	case string(store.Ascending), string(store.Descending):
		q.Order = store.Order(v)
	default:
		return q, badRequest("invalid order %q: want asc or desc", v)
	}
	return q, nil
}
