package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/profile"
	"github.com/jonathan/resume-builder/internal/server/middleware"
	"github.com/jonathan/resume-builder/internal/types"
)

// ProfileResponse is a stored profile record with the identity extracted from it.
type ProfileResponse struct {
	Profile  json.RawMessage `json:"profile"`
	Identity types.Identity  `json:"identity"`
}

func newProfileResponse(raw []byte) ProfileResponse {
	return ProfileResponse{Profile: raw, Identity: profile.Extract(raw)}
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	raw, err := s.deps.Profiles.Get(r.Context(), userID)
	if err != nil {
		statusErrorResponse(w, err)
		return
	}
	if raw == nil {
		errorResponse(w, http.StatusNotFound, "Profile not found")
		return
	}
	jsonResponse(w, http.StatusOK, newProfileResponse(raw))
}

// handlePutProfile stores the request body as the caller's profile record.
// ?source= tags where it came from (manual, linkedin or github).
func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	source := r.URL.Query().Get("source")
	switch source {
	case "":
		source = db.ProfileSourceManual
	case db.ProfileSourceManual, db.ProfileSourceLinkedIn, db.ProfileSourceGitHub:
	default:
		errorResponse(w, http.StatusBadRequest, "Invalid profile source")
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.deps.Profiles.Put(r.Context(), userID, raw, source); err != nil {
		statusErrorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, newProfileResponse(raw))
}

func (s *Server) handleImportGitHub(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req types.GitHubImportRequest
	if !decodeAndValidate(w, r, s.validator, &req) {
		return
	}
	raw, err := s.deps.Profiles.ImportGitHub(r.Context(), userID, req.Username)
	if err != nil {
		statusErrorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, newProfileResponse(raw))
}
