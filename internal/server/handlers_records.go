package server

import (
	"net/http"
	"strconv"

	"github.com/jonathan/talent-pipeline/internal/types"
)

func (s *Server) handleScheduleInterview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		serviceError(w, err)
		return
	}
	var req types.ScheduleInterviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		serviceError(w, err)
		return
	}
	iv, err := s.service.ScheduleInterview(r.Context(), actor(r), id, req)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, iv)
}

func (s *Server) handleListInterviews(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		serviceError(w, err)
		return
	}
	ivs, err := s.service.ListInterviews(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, orEmpty(ivs))
}

func (s *Server) handleCompleteInterview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		serviceError(w, err)
		return
	}
	iv, err := s.service.CompleteInterview(r.Context(), actor(r), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, iv)
}

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		serviceError(w, err)
		return
	}
	var req types.AddNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		serviceError(w, err)
		return
	}
	note, err := s.service.AddNote(r.Context(), actor(r), id, req)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, note)
}

// handleListNotes returns the notes of an application; ?candidate_view=true keeps only
// the notes the candidate may see.
func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		serviceError(w, err)
		return
	}
	candidateView := false
	if v := r.URL.Query().Get("candidate_view"); v != "" {
		if candidateView, err = strconv.ParseBool(v); err != nil {
			errorResponse(w, http.StatusBadRequest, "candidate_view must be a boolean")
			return
		}
	}
	notes, err := s.service.ListNotes(r.Context(), id, candidateView)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, orEmpty(notes))
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		serviceError(w, err)
		return
	}
	if err := s.service.DeleteNote(r.Context(), actor(r), id); err != nil {
		serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubmitSurveyAnswer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		serviceError(w, err)
		return
	}
	var req types.SurveyAnswerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		serviceError(w, err)
		return
	}
	ans, err := s.service.SubmitSurveyAnswer(r.Context(), id, req)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, ans)
}

func (s *Server) handleListSurveyAnswers(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		serviceError(w, err)
		return
	}
	answers, err := s.service.ListSurveyAnswers(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, orEmpty(answers))
}
