package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"feedback-go/internal/feedback"
)

func (s *Server) listInboxes(w http.ResponseWriter, r *http.Request) {
	scope, err := feedback.ParseListScope(r.URL.Query().Get("scope"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	views, err := s.service.ListInboxes(r.Context(), s.identify(r, nil), scope)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	now := s.service.Now()
	resp := make([]any, len(views))
	for i, v := range views {
		resp[i] = newInboxResponse(v, now)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) readInbox(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.ReadInbox(r.Context(), chi.URLParam(r, "id"), s.identify(r, nil))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newInboxResponse(view, s.service.Now()))
}

func (s *Server) createInbox(w http.ResponseWriter, r *http.Request) {
	var req createInboxRequest
	if err := decodeJSON(w, r, s.opts.MaxBodyBytes, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	requiresSignature := true
	if req.RequiresSignature != nil {
		requiresSignature = *req.RequiresSignature
	}
	hours := s.opts.DefaultExpiresInHours
	if req.ExpiresInHours != nil {
		hours = *req.ExpiresInHours
	}

	view, err := s.service.CreateInbox(r.Context(), req.Topic, s.identify(r, &req.credentials), requiresSignature, hours)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.metrics.inboxCreated()
	w.Header().Set("Location", "/inboxes/"+view.Inbox.ID())
	writeJSON(w, http.StatusCreated, newInboxResponse(view, s.service.Now()))
}

func (s *Server) editInboxTopic(w http.ResponseWriter, r *http.Request) {
	var req editTopicRequest
	if err := decodeJSON(w, r, s.opts.MaxBodyBytes, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	view, err := s.service.EditInboxTopic(r.Context(), chi.URLParam(r, "id"), req.Topic, s.identify(r, &req.credentials))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newInboxResponse(view, s.service.Now()))
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	var req postMessageRequest
	if err := decodeJSON(w, r, s.opts.MaxBodyBytes, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	msg, err := s.service.PostMessage(r.Context(), chi.URLParam(r, "id"), req.Body, s.identify(r, &req.credentials))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.metrics.messagePosted(msg.IsSigned())
	writeJSON(w, http.StatusCreated, newMessageResponse(msg))
}
