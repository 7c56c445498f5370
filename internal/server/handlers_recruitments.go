package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/jonathan/talent-pipeline/internal/types"
)

// RecruitmentResponse pairs a recruitment with its ordered stages.
type RecruitmentResponse struct {
	Recruitment *types.Recruitment `json:"recruitment"`
	Stages      []types.Stage      `json:"stages"`
}

func (s *Server) handleCreateRecruitment(w http.ResponseWriter, r *http.Request) {
	var req types.CreateRecruitmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		serviceError(w, err)
		return
	}
	rec, stages, err := s.service.CreateRecruitment(r.Context(), req)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, RecruitmentResponse{Recruitment: rec, Stages: stages})
}

func (s *Server) handleListRecruitments(w http.ResponseWriter, r *http.Request) {
	list, err := s.service.ListRecruitments(r.Context())
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, orEmpty(list))
}

func (s *Server) handleGetRecruitment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		serviceError(w, err)
		return
	}
	rec, stages, err := s.service.GetRecruitment(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, RecruitmentResponse{Recruitment: rec, Stages: stages})
}

func (s *Server) handleReorderStage(w http.ResponseWriter, r *http.Request) {
	recruitmentID, err := pathID(r, "id")
	if err != nil {
		serviceError(w, err)
		return
	}
	stageID, err := pathID(r, "stage_id")
	if err != nil {
		serviceError(w, err)
		return
	}
	var req types.ReorderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		serviceError(w, err)
		return
	}
	if err := s.service.ReorderStage(r.Context(), recruitmentID, stageID, req.ApplicationIDs); err != nil {
		serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddSurveyQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		serviceError(w, err)
		return
	}
	var req types.CreateSurveyQuestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		serviceError(w, err)
		return
	}
	q, err := s.service.AddSurveyQuestion(r.Context(), id, req)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, q)
}

func (s *Server) handleListSurveyQuestions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		serviceError(w, err)
		return
	}
	qs, err := s.service.ListSurveyQuestions(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, orEmpty(qs))
}

// handleHistory streams the audit trail of a candidate or application as a JSON array,
// fetching pages lazily. Errors after the first entry truncate the response.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entity := types.EntityType(r.PathValue("entity"))
	if entity != types.EntityCandidate && entity != types.EntityApplication {
		errorResponse(w, http.StatusBadRequest, "entity must be candidate or application")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		serviceError(w, err)
		return
	}

	enc := json.NewEncoder(w)
	started := false
	for entry, err := range s.service.History(r.Context(), entity, id) {
		if err != nil {
			if !started {
				serviceError(w, err)
				return
			}
			log.Printf("[server] history of %s %s truncated: %v", entity, id, err)
			return
		}
		if !started {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("["))
			started = true
		} else {
			_, _ = w.Write([]byte(","))
		}
		if err := enc.Encode(entry); err != nil {
			log.Printf("[server] error encoding history entry: %v", err)
			return
		}
	}
	if !started {
		jsonResponse(w, http.StatusOK, []types.AuditEntry{})
		return
	}
	_, _ = w.Write([]byte("]\n"))
}

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	if s.employees == nil {
		errorResponse(w, http.StatusNotImplemented, "employee registry not configured")
		return
	}
	list, err := s.employees.ListEmployees(r.Context())
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, orEmpty(list))
}

func (s *Server) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	if s.employees == nil {
		errorResponse(w, http.StatusNotImplemented, "employee registry not configured")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		serviceError(w, err)
		return
	}
	emp, err := s.employees.GetEmployee(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	if emp == nil {
		errorResponse(w, http.StatusNotFound, "employee not found")
		return
	}
	jsonResponse(w, http.StatusOK, emp)
}
