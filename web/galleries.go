package web

import (
	"net/http"
)

func (s *Server) listGalleries(w http.ResponseWriter, r *http.Request) {
	galleries, err := s.board.ListGalleries(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, galleries)
}

func (s *Server) getGallery(w http.ResponseWriter, r *http.Request) {
	g, err := s.board.GetGallery(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) galleryPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.board.GalleryPosts(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

type applicationRequest struct {
	Country     string `json:"country"`
	Description string `json:"description"`
}

func (s *Server) applyForGallery(w http.ResponseWriter, r *http.Request) {
	var req applicationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.badRequest(w, "malformed application")
		return
	}

	app, err := s.board.ApplyForGallery(r.Context(), sessionFrom(r), req.Country, req.Description)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}
