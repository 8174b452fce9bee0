package web

import (
	"net/http"
)

func (s *Server) adminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.board.Stats(r.Context(), sessionFrom(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) adminApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.board.PendingApplications(r.Context(), sessionFrom(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (s *Server) approveApplication(w http.ResponseWriter, r *http.Request) {
	g, err := s.board.ApproveApplication(r.Context(), sessionFrom(r), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) rejectApplication(w http.ResponseWriter, r *http.Request) {
	if err := s.board.RejectApplication(r.Context(), sessionFrom(r), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type adminsRequest struct {
	Admin1 string `json:"admin1"`
	Admin2 string `json:"admin2"`
}

func (s *Server) assignAdmins(w http.ResponseWriter, r *http.Request) {
	var req adminsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.badRequest(w, "malformed admin assignment")
		return
	}

	g, err := s.board.AssignAdmins(r.Context(), sessionFrom(r), r.PathValue("id"), req.Admin1, req.Admin2)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	if err := s.board.DeletePost(r.Context(), sessionFrom(r), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) adminPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.board.AdminPosts(r.Context(), sessionFrom(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) adminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.board.AdminUsers(r.Context(), sessionFrom(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
