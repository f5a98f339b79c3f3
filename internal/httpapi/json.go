package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"feedback-go/internal/feedback"
)

type inboxResponse struct {
	ID                string    `json:"id"`
	Topic             string    `json:"topic"`
	CreatedAt         time.Time `json:"created_at"`
	ExpiresAt         time.Time `json:"expires_at"`
	RequiresSignature bool      `json:"requires_signature"`
	Expired           bool      `json:"expired"`
}

type ownerInboxResponse struct {
	inboxResponse
	OwnerSignature string            `json:"owner_signature"`
	Messages       []messageResponse `json:"messages"`
}

type messageResponse struct {
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
	Signature *string   `json:"signature"`
}

type createInboxRequest struct {
	Topic             string `json:"topic"`
	RequiresSignature *bool  `json:"requires_signature"`
	ExpiresInHours    *int   `json:"expires_in_hours"`
	credentials
}

type editTopicRequest struct {
	Topic string `json:"topic"`
	credentials
}

type postMessageRequest struct {
	Body string `json:"body"`
	credentials
}

type credentials struct {
	Username string `json:"username"`
	Secret   string `json:"secret"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// newInboxResponse renders a view. now decides the expired flag.
func newInboxResponse(v *feedback.InboxView, now time.Time) any {
	public := inboxResponse{
		ID:                v.Inbox.ID(),
		Topic:             v.Inbox.Topic(),
		CreatedAt:         v.Inbox.CreatedAt(),
		ExpiresAt:         v.Inbox.ExpiresAt(),
		RequiresSignature: v.Inbox.RequiresSignature(),
		Expired:           v.Inbox.IsExpired(now),
	}
	if !v.IsOwnerView() {
		return public
	}

	msgs := make([]messageResponse, len(v.Messages))
	for i, m := range v.Messages {
		msgs[i] = newMessageResponse(m)
	}
	return ownerInboxResponse{
		inboxResponse:  public,
		OwnerSignature: v.Inbox.OwnerSignature(),
		Messages:       msgs,
	}
}

func newMessageResponse(m feedback.Message) messageResponse {
	resp := messageResponse{Body: m.Body, Timestamp: m.Timestamp}
	if m.IsSigned() {
		sig := m.Signature
		resp.Signature = &sig
	}
	return resp
}

// decodeJSON reads at most limit bytes of JSON from r into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
