package server

import (
	"net/http"

	"github.com/jonathan/talent-pipeline/internal/query"
	"github.com/jonathan/talent-pipeline/internal/recruitment"
	"github.com/jonathan/talent-pipeline/internal/types"
)

// handleApply finds or creates the profile before creating the application.
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req types.ApplyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		serviceError(w, err)
		return
	}
	app, err := s.service.Apply(r.Context(), actor(r), req)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, app)
}

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	var req types.ApplyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		serviceError(w, err)
		return
	}
	app, err := s.service.CreateApplication(r.Context(), actor(r), req)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, app)
}

// handleListApplications filters by query parameters, e.g.
// ?employee_mode=contract&contract_start_from=2024-01-01&hired=false
func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	opts, err := query.FromValues(r.URL.Query())
	if err != nil {
		serviceError(w, err)
		return
	}
	apps, err := s.service.ListApplications(r.Context(), opts)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, orEmpty(apps))
}

func (s *Server) handleListApplicationsByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		errorResponse(w, http.StatusBadRequest, "email query parameter is required")
		return
	}
	apps, err := s.service.ListApplicationsByEmail(r.Context(), email)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, orEmpty(apps))
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		serviceError(w, err)
		return
	}
	app, err := s.service.GetApplication(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, app)
}

func (s *Server) handleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		serviceError(w, err)
		return
	}
	var patch types.ApplicationPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		serviceError(w, err)
		return
	}
	app, err := s.service.UpdateApplication(r.Context(), actor(r), id, patch)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, app)
}

func (s *Server) handleArchiveApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		serviceError(w, err)
		return
	}
	app, err := s.service.ArchiveApplication(r.Context(), actor(r), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, app)
}

func (s *Server) handleMoveStage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		serviceError(w, err)
		return
	}
	var req types.MoveStageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		serviceError(w, err)
		return
	}
	app, err := s.service.MoveStage(r.Context(), recruitment.MoveStageInput{
		ApplicationID:   id,
		TargetStageID:   req.StageID,
		Actor:           actor(r),
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, app)
}

func (s *Server) handleMarkHired(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		serviceError(w, err)
		return
	}
	var req types.HireRequest
	if err := decodeJSON(w, r, &req); err != nil {
		serviceError(w, err)
		return
	}
	app, err := s.service.MarkHired(r.Context(), recruitment.MarkHiredInput{
		ApplicationID:   id,
		JoiningDate:     req.JoiningDate,
		Actor:           actor(r),
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, app)
}

func (s *Server) handleMarkCanceled(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		serviceError(w, err)
		return
	}
	var req types.CancelRequest
	if err := decodeJSON(w, r, &req); err != nil {
		serviceError(w, err)
		return
	}
	app, err := s.service.MarkCanceled(r.Context(), recruitment.MarkCanceledInput{
		ApplicationID:   id,
		Reason:          req.Reason,
		Actor:           actor(r),
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, app)
}

func (s *Server) handleStartOnboarding(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		serviceError(w, err)
		return
	}
	app, err := s.service.StartOnboarding(r.Context(), actor(r), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, app)
}

func (s *Server) handleSetOfferLetterStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		serviceError(w, err)
		return
	}
	var req types.OfferStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		serviceError(w, err)
		return
	}
	app, err := s.service.SetOfferLetterStatus(r.Context(), actor(r), id, req.Status)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, app)
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		serviceError(w, err)
		return
	}
	emp, err := s.service.Convert(r.Context(), actor(r), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, emp)
}

// orEmpty keeps empty lists encoding as [] rather than null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
