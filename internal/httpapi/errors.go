package httpapi

import (
	"errors"
	"net/http"

	"feedback-go/internal/feedback"
)

var errBadRequest = errors.New("invalid request body")

// errorMappings translates a domain error into a status and a metrics reason.
// Order matters: the specific edit errors come before ErrEditNotPermitted.
var errorMappings = []struct {
	target error
	status int
	reason string
}{
	{errBadRequest, http.StatusBadRequest, "bad_request"},
	{feedback.ErrInvalidTopic, http.StatusBadRequest, "invalid_topic"},
	{feedback.ErrInvalidExpiry, http.StatusBadRequest, "invalid_expiry"},
	{feedback.ErrEmptyBody, http.StatusBadRequest, "empty_body"},
	{feedback.ErrAnonymousOwner, http.StatusUnauthorized, "anonymous_owner"},
	{feedback.ErrAnonymousEditor, http.StatusUnauthorized, "anonymous_editor"},
	{feedback.ErrSignatureRequired, http.StatusForbidden, "signature_required"},
	{feedback.ErrNotOwner, http.StatusForbidden, "not_owner"},
	{feedback.ErrInboxNotEmpty, http.StatusConflict, "inbox_not_empty"},
	{feedback.ErrEditNotPermitted, http.StatusForbidden, "edit_not_permitted"},
	{feedback.ErrInboxNotFound, http.StatusNotFound, "not_found"},
	{feedback.ErrInboxExpired, http.StatusGone, "expired"},
}

// classify returns the HTTP status, the client-facing message and the
// metrics reason for err. Unknown errors become a bare 500.
func classify(err error) (status int, message string, reason string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, "request body too large", "too_large"
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.target.Error(), m.reason
		}
	}
	return http.StatusInternalServerError, "internal error", ""
}
