package httpapi

import (
	"net/http"

	"github.com/lucasvieira/questify/internal/server/models"
	"github.com/lucasvieira/questify/internal/server/services"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user,omitempty"`
}

type createMissionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Reward      int    `json:"reward"`
}

type completeMissionResponse struct {
	XPAwarded int `json:"xp_awarded"`
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "OK"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := parseJSONBody(r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid JSON")
		return
	}

	user, err := s.users.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "user registered", "user_id", user.ID)
	s.writeJSON(w, r, http.StatusCreated, map[string]any{"user": user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := parseJSONBody(r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid JSON")
		return
	}

	pair, user, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, tokenResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := parseJSONBody(r, &req); err != nil || req.RefreshToken == "" {
		s.writeError(w, r, http.StatusBadRequest, "invalid JSON")
		return
	}

	pair, err := s.users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, tokenResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.users.GetProfile(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, profile)
}

func (s *Server) handleListMissions(w http.ResponseWriter, r *http.Request) {
	missions, err := s.missions.List(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, missions)
}

func (s *Server) handleCreateMission(w http.ResponseWriter, r *http.Request) {
	var req createMissionRequest
	if err := parseJSONBody(r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid JSON")
		return
	}

	mission, err := s.missions.Create(r.Context(), userIDFromContext(r.Context()), services.CreateMissionInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Reward:      req.Reward,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusCreated, mission)
}

func (s *Server) handleCompleteMission(w http.ResponseWriter, r *http.Request) {
	missionID := r.PathValue("id")
	if missionID == "" {
		s.writeError(w, r, http.StatusBadRequest, "mission id is required")
		return
	}

	userID := userIDFromContext(r.Context())
	xp, err := s.progression.CompleteMission(r.Context(), userID, missionID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "mission completed", "user_id", userID, "mission_id", missionID, "xp", xp)
	s.writeJSON(w, r, http.StatusOK, completeMissionResponse{XPAwarded: xp})
}

func (s *Server) handleDeleteMission(w http.ResponseWriter, r *http.Request) {
	missionID := r.PathValue("id")
	if missionID == "" {
		s.writeError(w, r, http.StatusBadRequest, "mission id is required")
		return
	}

	err := s.missions.Delete(r.Context(), userIDFromContext(r.Context()), missionID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleRebuildStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.progression.RebuildStats(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, stats)
}
