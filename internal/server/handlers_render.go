package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/resume-builder/internal/parsing"
	"github.com/jonathan/resume-builder/internal/profile"
	"github.com/jonathan/resume-builder/internal/rendering"
	"github.com/jonathan/resume-builder/internal/types"
)

// RenderResponse is the result of a stateless render.
type RenderResponse struct {
	Template types.TemplateSelector `json:"template"`
	HTML     string                 `json:"html"`
	Reply    string                 `json:"reply"`
	ATS      *types.ATSScore        `json:"ats_score,omitempty"`
	Warnings []string               `json:"warnings,omitempty"`
}

func (s *Server) handleListTemplates(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]any{"templates": types.Templates})
}

// handleRender maps an agent response and a profile record to HTML without
// touching any session.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req types.RenderRequest
	if !decodeAndValidate(w, r, s.validator, &req) {
		return
	}
	selector, err := types.ParseTemplateSelector(req.Template)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := parsing.ParseAgentReply(req.AgentResponse)
	if err != nil {
		var perr *parsing.ParseError
		if errors.As(err, &perr) {
			// The client sent the payload, so a bad one is its error.
			errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		statusErrorResponse(w, err)
		return
	}

	html, err := rendering.Render(reply.Resume, profile.Extract(req.Profile), selector)
	if err != nil {
		statusErrorResponse(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, RenderResponse{
		Template: selector,
		HTML:     html,
		Reply:    reply.Message,
		ATS:      reply.ATS,
		Warnings: reply.Warnings,
	})
}
