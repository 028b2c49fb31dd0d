package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/pdftext"
	"github.com/jonathan/resume-builder/internal/server/middleware"
	"github.com/jonathan/resume-builder/internal/types"
)

// ---------------------------------------------------------------------
// Job posting handlers
// ---------------------------------------------------------------------

// JobPostingList is one page of a user's saved postings.
type JobPostingList struct {
	JobPostings []db.JobPosting `json:"job_postings"`
	Total       int             `json:"total"`
	Limit       int             `json:"limit"`
	Offset      int             `json:"offset"`
}

// jobPostingIDs returns the caller and the {id} path value, writing the
// error response when either is missing.
func jobPostingIDs(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid job posting ID")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, id, true
}

// handleListJobPostings lists the caller's postings, optionally filtered
// by ?job_type= and paged with ?limit= and ?offset=.
func (s *Server) handleListJobPostings(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	query := r.URL.Query()
	opts := db.ListJobPostingsOptions{JobType: query.Get("job_type")}
	for name, dst := range map[string]*int{"limit": &opts.Limit, "offset": &opts.Offset} {
		v := query.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errorResponse(w, http.StatusBadRequest, "Invalid "+name)
			return
		}
		*dst = n
	}

	postings, total, err := s.deps.Postings.List(r.Context(), userID, opts)
	if err != nil {
		statusErrorResponse(w, err)
		return
	}
	limit, offset := db.ClampPage(opts.Limit, opts.Offset)
	jsonResponse(w, http.StatusOK, JobPostingList{JobPostings: postings, Total: total, Limit: limit, Offset: offset})
}

func (s *Server) handleCreateJobPosting(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req types.JobPostingRequest
	if !decodeAndValidate(w, r, s.validator, &req) {
		return
	}
	posting, err := s.deps.Postings.Create(r.Context(), userID, req)
	if err != nil {
		statusErrorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, posting)
}

func (s *Server) handleGetJobPosting(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := jobPostingIDs(w, r)
	if !ok {
		return
	}
	posting, err := s.deps.Postings.Get(r.Context(), userID, id)
	if err != nil {
		statusErrorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, posting)
}

func (s *Server) handleUpdateJobPosting(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := jobPostingIDs(w, r)
	if !ok {
		return
	}
	var req types.JobPostingRequest
	if !decodeAndValidate(w, r, s.validator, &req) {
		return
	}
	posting, err := s.deps.Postings.Update(r.Context(), userID, id, req)
	if err != nil {
		statusErrorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, posting)
}

func (s *Server) handleDeleteJobPosting(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := jobPostingIDs(w, r)
	if !ok {
		return
	}
	if err := s.deps.Postings.Delete(r.Context(), userID, id); err != nil {
		statusErrorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------
// Resume upload
// ---------------------------------------------------------------------

// uploadFormOverhead is the multipart framing allowed on top of the file.
const uploadFormOverhead = 1 << 20

// handleUploadResume accepts a multipart "pdf" field and returns the text
// of the document.
func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, pdftext.MaxUploadBytes+uploadFormOverhead)
	file, header, err := r.FormFile("pdf")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorResponse(w, http.StatusBadRequest, "File too large (max 10MB)")
			return
		}
		errorResponse(w, http.StatusBadRequest, "No PDF file uploaded")
		return
	}
	defer func() { _ = file.Close() }()
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	if header.Size > pdftext.MaxUploadBytes {
		errorResponse(w, http.StatusBadRequest, "File too large (max 10MB)")
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, pdftext.MaxUploadBytes+1))
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "Failed to read upload")
		return
	}
	if len(data) > pdftext.MaxUploadBytes {
		errorResponse(w, http.StatusBadRequest, "File too large (max 10MB)")
		return
	}
	if !pdftext.IsPDF(data) {
		errorResponse(w, http.StatusBadRequest, "Only PDF files are allowed")
		return
	}

	doc, err := s.deps.ExtractPDF(data)
	if err != nil {
		statusErrorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, types.UploadResponse{
		Filename:   header.Filename,
		Size:       int64(len(data)),
		Pages:      doc.Pages,
		Text:       doc.Text,
		UploadedAt: time.Now().UTC(),
	})
}
