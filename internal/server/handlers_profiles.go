package server

import (
	"net/http"

	"github.com/jonathan/talent-pipeline/internal/types"
)

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req types.CreateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		serviceError(w, err)
		return
	}
	c, err := s.service.CreateProfile(r.Context(), actor(r), req)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, c)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		serviceError(w, err)
		return
	}
	c, err := s.service.GetProfile(r.Context(), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

func (s *Server) handleGetProfileByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		errorResponse(w, http.StatusBadRequest, "email query parameter is required")
		return
	}
	c, err := s.service.GetProfileByEmail(r.Context(), email)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		serviceError(w, err)
		return
	}
	var patch types.ProfilePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		serviceError(w, err)
		return
	}
	c, err := s.service.UpdateProfile(r.Context(), actor(r), id, patch)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

func (s *Server) handleArchiveProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		serviceError(w, err)
		return
	}
	c, err := s.service.ArchiveProfile(r.Context(), actor(r), id)
	if err != nil {
		serviceError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, c)
}
