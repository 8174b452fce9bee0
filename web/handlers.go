package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/inho1628/korea-community-website/board"
	"github.com/inho1628/korea-community-website/media"
	"github.com/inho1628/korea-community-website/model"
)

type loginRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Country  string `json:"country"`
	Password string `json:"password,omitempty"` // administrators only
}

type loginResponse struct {
	User      model.User      `json:"user"`
	Token     string          `json:"token"`
	ExpiresAt model.Timestamp `json:"expiresAt"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.badRequest(w, "malformed login request")
		return
	}

	var (
		user    model.User
		session model.Session
		err     error
	)
	if req.Password != "" {
		user, session, err = s.board.AdminLogin(r.Context(), req.Email, req.Password)
	} else {
		user, session, err = s.board.Login(r.Context(), req.Name, req.Email, req.Country)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt.Or(time.Now()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{User: user, Token: session.Token, ExpiresAt: session.ExpiresAt})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if token := requestToken(r); token != "" {
		if err := s.board.Logout(r.Context(), token); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	s.clearCookie(w, sessionCookie)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	user, err := s.board.CurrentUser(r.Context(), sessionFrom(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	posts, err := s.board.ListPosts(r.Context(), q.Get("category"), q.Get("galleryId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	var in board.PostInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.badRequest(w, "malformed post")
		return
	}

	post, err := s.board.CreatePost(r.Context(), sessionFrom(r), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

type postResponse struct {
	Post     board.PostView      `json:"post"`
	Comments []board.CommentView `json:"comments"`
	Liked    bool                `json:"liked"`
}

func (s *Server) viewPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	post, err := s.board.ViewPost(ctx, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	comments, err := s.board.ListComments(ctx, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	liked, err := s.board.HasLikedPost(ctx, sessionFrom(r), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, postResponse{Post: post, Comments: comments, Liked: liked})
}

type likeResponse struct {
	Likes int    `json:"likes"`
	Error string `json:"error,omitempty"`
}

func (s *Server) writeLike(w http.ResponseWriter, r *http.Request, likes int, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, likeResponse{Likes: likes})
	case errors.Is(err, board.ErrAlreadyLiked):
		writeJSON(w, http.StatusConflict, likeResponse{Likes: likes, Error: err.Error()})
	default:
		s.fail(w, r, err)
	}
}

func (s *Server) likePost(w http.ResponseWriter, r *http.Request) {
	likes, err := s.board.LikePost(r.Context(), sessionFrom(r), r.PathValue("id"))
	s.writeLike(w, r, likes, err)
}

func (s *Server) likeComment(w http.ResponseWriter, r *http.Request) {
	likes, err := s.board.LikeComment(r.Context(), sessionFrom(r), r.PathValue("id"))
	s.writeLike(w, r, likes, err)
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	comments, err := s.board.ListComments(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

type commentRequest struct {
	Content  string `json:"content"`
	Nickname string `json:"nickname"`
}

func (s *Server) submitComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.badRequest(w, "malformed comment")
		return
	}

	comment, err := s.board.SubmitComment(r.Context(), sessionFrom(r), r.PathValue("id"), req.Content, req.Nickname)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) postMedia(w http.ResponseWriter, r *http.Request) {
	m, err := s.board.PostMedia(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) hotFeed(w http.ResponseWriter, r *http.Request) {
	limit := s.hotFeedSize
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.badRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	feed, err := s.board.HotFeed(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

type resolvedMedia struct {
	media.Link
	HTML string `json:"html"`
}

func (s *Server) resolveMedia(w http.ResponseWriter, r *http.Request) {
	link := s.board.ResolveMediaLink(r.URL.Query().Get("url"))
	rendered, err := media.Render(link)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resolvedMedia{Link: link, HTML: string(rendered)})
}
