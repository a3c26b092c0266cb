package mock

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Messages returned by the story API. Clients compare them literally.
const (
	MsgCreated        = "Successfully created!"
	MsgEdited         = "Successfully edited"
	MsgDeleted        = "Deleted successfully!"
	MsgNoSpoilers     = "No spoilers..."
	MsgUnableToDelete = "Unable to delete this story spoiler!"
	MsgInvalidLogin   = "Invalid username or password!"
)

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type storyRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	URL         string  `json:"url"`
}

type ctxKey struct{}

// routes mounts the story API.
func (s *Server) routes(r chi.Router) {
	r.Use(s.countRequests)

	r.Post("/api/User/Authentication", s.authenticate)

	r.Route("/api/Story", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Post("/Create", s.createStory)
		r.Get("/All", s.listStories)
		r.Put("/Edit/", s.editStory)
		r.Put("/Edit/{id}", s.editStory)
		r.Delete("/Delete/", s.deleteStory)
		r.Delete("/Delete/{id}", s.deleteStory)
	})
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		s.loggers.Debugf("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

// authMiddleware rejects story calls without a bearer token issued by this
// server.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header || token == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		s.mu.RLock()
		user, ok := s.tokens[token]
		s.mu.RUnlock()
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, "body", "A non-empty request body is required.")
		return
	}

	s.mu.Lock()
	password, ok := s.users[req.Username]
	if !ok || password != req.Password {
		s.mu.Unlock()
		writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": MsgInvalidLogin})
		return
	}
	token := uuid.NewString()
	s.tokens[token] = req.Username
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{
		"username":    req.Username,
		"accessToken": token,
	})
}

func (s *Server) createStory(w http.ResponseWriter, r *http.Request) {
	var req storyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, "body", "A non-empty request body is required.")
		return
	}
	if req.Title == nil || *req.Title == "" {
		validationError(w, "Title", "The Title field is required.")
		return
	}
	if req.Description == nil || *req.Description == "" {
		validationError(w, "Description", "The Description field is required.")
		return
	}

	story := s.stories.create(userFrom(r), *req.Title, *req.Description, req.URL)
	writeJSON(w, http.StatusCreated, map[string]string{
		"storyId": story.ID,
		"msg":     MsgCreated,
	})
}

func (s *Server) listStories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stories.list())
}

func (s *Server) editStory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req storyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		validationError(w, "body", "A non-empty request body is required.")
		return
	}

	title, description := "", ""
	if req.Title != nil {
		title = *req.Title
	}
	if req.Description != nil {
		description = *req.Description
	}
	if id == "" || !s.stories.update(id, title, description, req.URL) {
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": MsgNoSpoilers})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"msg": MsgEdited})
}

func (s *Server) deleteStory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if id == "" || !s.stories.delete(id) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": MsgUnableToDelete})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"msg": MsgDeleted})
}

// validationError writes a 400 in the API's model-validation format.
func validationError(w http.ResponseWriter, field, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"title":  "One or more validation errors occurred.",
		"status": http.StatusBadRequest,
		"errors": map[string][]string{
			field: {message},
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}
