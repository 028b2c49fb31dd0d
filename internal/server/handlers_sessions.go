package server

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/export"
	"github.com/jonathan/resume-builder/internal/fields"
	"github.com/jonathan/resume-builder/internal/rendering"
	"github.com/jonathan/resume-builder/internal/server/middleware"
	"github.com/jonathan/resume-builder/internal/types"
)

// ---------------------------------------------------------------------
// Builder session handlers
// ---------------------------------------------------------------------

// sessionIDs returns the caller and the {id} path value, writing the
// error response when either is missing.
func sessionIDs(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid session ID")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, id, true
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req types.CreateSessionRequest
	if r.ContentLength != 0 && !decodeAndValidate(w, r, s.validator, &req) {
		return
	}

	sess, err := s.deps.Sessions.Create(r.Context(), userID, req.Template, req.JobDescription)
	if err != nil {
		statusErrorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := sessionIDs(w, r)
	if !ok {
		return
	}
	sess, err := s.deps.Sessions.Get(userID, id)
	if err != nil {
		statusErrorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := sessionIDs(w, r)
	if !ok {
		return
	}
	if err := s.deps.Sessions.Delete(userID, id); err != nil {
		statusErrorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelectTemplate(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := sessionIDs(w, r)
	if !ok {
		return
	}
	var req types.SelectTemplateRequest
	if !decodeAndValidate(w, r, s.validator, &req) {
		return
	}
	sess, err := s.deps.Sessions.SelectTemplate(userID, id, req.Template)
	if err != nil {
		statusErrorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, sess)
}

// jobDescription resolves the request to text. Pasted text wins over a
// saved posting, which wins over a URL.
func (s *Server) jobDescription(r *http.Request, userID uuid.UUID, req types.JobDescriptionRequest) (string, error) {
	switch {
	case req.JobDescription != "":
		return req.JobDescription, nil
	case req.JobPostingID != "":
		postingID, err := uuid.Parse(req.JobPostingID)
		if err != nil {
			return "", &ErrValidation{Field: "job_posting_id", Message: "must be a UUID"}
		}
		return s.deps.Postings.Description(r.Context(), userID, postingID)
	default:
		return s.deps.Jobs(r.Context(), req.JobURL)
	}
}

// handleSetJobDescription stores the job description, fetching it first
// when only a URL is given, and optionally runs generation right away.
func (s *Server) handleSetJobDescription(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := sessionIDs(w, r)
	if !ok {
		return
	}
	var req types.JobDescriptionRequest
	if !decodeAndValidate(w, r, s.validator, &req) {
		return
	}

	text, err := s.jobDescription(r, userID, req)
	if err != nil {
		statusErrorResponse(w, err)
		return
	}

	sess, err := s.deps.Sessions.SetJobDescription(userID, id, text)
	if err != nil {
		statusErrorResponse(w, err)
		return
	}
	if !req.Generate {
		jsonResponse(w, http.StatusOK, sess)
		return
	}
	s.runTurn(w, r, userID, id, "", true)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := sessionIDs(w, r)
	if !ok {
		return
	}
	s.runTurn(w, r, userID, id, "", true)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := sessionIDs(w, r)
	if !ok {
		return
	}
	var req types.ChatRequest
	if !decodeAndValidate(w, r, s.validator, &req) {
		return
	}
	s.runTurn(w, r, userID, id, req.Message, false)
}

func (s *Server) runTurn(w http.ResponseWriter, r *http.Request, userID, id uuid.UUID, message string, first bool) {
	var (
		result *types.TurnResult
		err    error
	)
	if first {
		result, err = s.deps.Sessions.Generate(r.Context(), userID, id)
	} else {
		result, err = s.deps.Sessions.Chat(r.Context(), userID, id, message)
	}
	if err != nil {
		statusErrorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, result)
}

// handleChatStream runs a chat turn and reports it as server-sent events:
// pending, then reply or error, then complete.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := sessionIDs(w, r)
	if !ok {
		return
	}
	var req types.ChatRequest
	if !decodeAndValidate(w, r, s.validator, &req) {
		return
	}
	if _, err := s.deps.Sessions.Get(userID, id); err != nil {
		statusErrorResponse(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := sse.WriteEvent(eventPending, map[string]string{"session_id": id.String()}); err != nil {
		log.Printf("[sse] session %s: client went away: %v", id, err)
		return
	}

	result, err := s.deps.Sessions.Chat(r.Context(), userID, id, req.Message)
	if err != nil {
		sse.WriteError(HTTPStatus(err), err.Error())
		sse.WriteComplete(id.String(), "failed")
		return
	}
	if err := sse.WriteEvent(eventReply, result); err != nil {
		log.Printf("[sse] session %s: client went away: %v", id, err)
		return
	}
	sse.WriteComplete(id.String(), "ok")
}

func (s *Server) handleDismissError(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := sessionIDs(w, r)
	if !ok {
		return
	}
	if err := s.deps.Sessions.DismissError(userID, id); err != nil {
		statusErrorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePreview serves the current document as HTML. ?standalone=true
// wraps the fragment in a full page.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := sessionIDs(w, r)
	if !ok {
		return
	}
	html, err := s.deps.Sessions.Preview(userID, id)
	if err != nil {
		statusErrorResponse(w, err)
		return
	}
	if standalone, _ := strconv.ParseBool(r.URL.Query().Get("standalone")); standalone {
		if html, err = export.WrapDocument("Resume preview", html); err != nil {
			statusErrorResponse(w, err)
			return
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

func (s *Server) handlePreviews(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := sessionIDs(w, r)
	if !ok {
		return
	}
	previews, err := s.deps.Sessions.Previews(r.Context(), userID, id)
	if err != nil {
		statusErrorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"previews": previews})
}

func (s *Server) handlePDF(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := sessionIDs(w, r)
	if !ok {
		return
	}
	if s.deps.PDF == nil {
		errorResponse(w, http.StatusServiceUnavailable, "PDF export is not configured")
		return
	}
	sess, err := s.deps.Sessions.Get(userID, id)
	if err != nil {
		statusErrorResponse(w, err)
		return
	}
	if sess.Resume == nil || sess.HTML == "" {
		errorResponse(w, http.StatusConflict, "resume has not been generated yet")
		return
	}

	title := "Resume"
	if name := rendering.MergeIdentity(sess.Resume.PersonalInfo, sess.Identity).Name; name != fields.PlaceholderName {
		title = name + " - Resume"
	}
	doc, err := export.WrapDocument(title, sess.HTML)
	if err != nil {
		statusErrorResponse(w, err)
		return
	}
	pdf, err := s.deps.PDF.RenderPDF(r.Context(), doc)
	if err != nil {
		log.Printf("[export] session %s: %v", id, err)
		errorResponse(w, http.StatusBadGateway, "failed to render PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "resume.pdf"))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (s *Server) handleATS(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := sessionIDs(w, r)
	if !ok {
		return
	}
	sess, err := s.deps.Sessions.Get(userID, id)
	if err != nil {
		statusErrorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"ats_score": sess.ATS})
}

// handleListSnapshots lists the caller's saved turns, newest first.
func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if s.deps.Snapshots == nil {
		jsonResponse(w, http.StatusOK, map[string]any{"snapshots": []any{}})
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 1 {
			errorResponse(w, http.StatusBadRequest, "Invalid limit")
			return
		}
	}
	snaps, err := s.deps.Snapshots.ListSnapshots(r.Context(), userID, limit)
	if err != nil {
		statusErrorResponse(w, fmt.Errorf("failed to list snapshots: %w", err))
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"snapshots": snaps})
}
