package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/speakably/speakably-backend/internal/application/command"
	"github.com/speakably/speakably-backend/internal/application/query"
	"github.com/speakably/speakably-backend/internal/domain/shared"
	"github.com/speakably/speakably-backend/pkg/logger"
)

// maxBodyBytes caps request bodies; no endpoint accepts large payloads.
const maxBodyBytes = 64 << 10

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps domain error kinds to HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		writeJSONError(w, http.StatusForbidden, "forbidden", err.Error())
	case shared.IsAlreadyExists(err):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	case shared.IsStorageUnavailable(err):
		s.logger.Error("storage unavailable", logger.Err(err), logger.String("request_id", getRequestID(r.Context())))
		writeJSONError(w, http.StatusServiceUnavailable, "storage_unavailable", "Storage is temporarily unavailable")
	default:
		s.logger.Error("request failed",
			logger.Err(err),
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

// decodeBody decodes a JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", "Request body is required")
		} else {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body: "+err.Error())
		}
		return false
	}
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":    "Speakably API",
		"version": "v1",
		"endpoints": map[string]string{
			"health":      "/health",
			"languages":   "/api/v1/languages",
			"leaderboard": "/api/v1/leaderboard",
			"profile":     "/api/v1/profiles/me",
		},
	}

	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, http.StatusOK, status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": s.Uptime().String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type registerRequest struct {
	Username           string `json:"username"`
	Email              string `json:"email"`
	Password           string `json:"password"`
	SelectedLanguageID string `json:"selected_language_id,omitempty"`
	Proficiency        string `json:"proficiency,omitempty"`
}

// handleRegister handles POST /api/v1/auth/register
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.RegisterLearner.Handle(r.Context(), command.RegisterLearnerCommand{
		Username:           req.Username,
		Email:              req.Email,
		Password:           req.Password,
		SelectedLanguageID: req.SelectedLanguageID,
		Proficiency:        req.Proficiency,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"user_id":  result.UserID,
		"username": result.Username,
		"email":    result.Email,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListLanguages handles GET /api/v1/languages
func (s *Server) handleListLanguages(w http.ResponseWriter, r *http.Request) {
	languages, err := s.deps.GetCatalog.ListLanguages(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"languages": languages})
}

// handleListUnits handles GET /api/v1/languages/{id}/units
func (s *Server) handleListUnits(w http.ResponseWriter, r *http.Request) {
	units, err := s.deps.GetCatalog.ListUnits(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"units": units})
}

// handleListLessons handles GET /api/v1/units/{id}/lessons
func (s *Server) handleListLessons(w http.ResponseWriter, r *http.Request) {
	lessons, err := s.deps.GetLessons.Handle(r.Context(), query.GetLessonsQuery{
		UnitID: r.PathValue("id"),
		UserID: currentUserID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"lessons": lessons})
}

// handleListExercises handles GET /api/v1/lessons/{id}/exercises
func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	exercises, err := s.deps.GetCatalog.ListExercises(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"exercises": exercises})
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type completeLessonRequest struct {
	XPEarned int `json:"xp_earned,omitempty"`
}

type completeLessonResponse struct {
	Outcome            string `json:"outcome"`
	LessonID           string `json:"lesson_id"`
	XPEarned           int    `json:"xp_earned"`
	TotalXP            int    `json:"total_xp"`
	CurrentStreak      int    `json:"current_streak"`
	StreakExtended     bool   `json:"streak_extended"`
	StreakReset        bool   `json:"streak_reset"`
	DailyGoalCompleted int    `json:"daily_goal_completed"`
	DailyGoalTarget    int    `json:"daily_goal_target"`
	GoalJustReached    bool   `json:"goal_just_reached"`
}

// handleCompleteLesson handles POST /api/v1/lessons/{id}/complete
func (s *Server) handleCompleteLesson(w http.ResponseWriter, r *http.Request) {
	// Body is optional: an empty body means "use the lesson reward".
	var req completeLessonRequest
	if r.ContentLength > 0 {
		if !decodeBody(w, r, &req) {
			return
		}
	}

	result, err := s.deps.CompleteLesson.Handle(r.Context(), command.CompleteLessonCommand{
		UserID:   currentUserID(r.Context()),
		LessonID: r.PathValue("id"),
		XPEarned: req.XPEarned,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, completeLessonResponse{
		Outcome:            string(result.Outcome),
		LessonID:           result.LessonID,
		XPEarned:           result.XPEarned,
		TotalXP:            result.TotalXP,
		CurrentStreak:      result.CurrentStreak,
		StreakExtended:     result.StreakExtended,
		StreakReset:        result.StreakReset,
		DailyGoalCompleted: result.DailyGoalCompleted,
		DailyGoalTarget:    result.DailyGoalTarget,
		GoalJustReached:    result.GoalJustReached,
	})
}

// handleGetProfile handles GET /api/v1/profiles/me
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.deps.GetProfile.Handle(r.Context(), query.GetProfileQuery{
		UserID:      currentUserID(r.Context()),
		RecentLimit: getQueryParamInt(r, "recent", 10),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// handleGetDailyProgress handles GET /api/v1/profiles/me/daily
func (s *Server) handleGetDailyProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := s.deps.GetDailyProgress.Handle(r.Context(), query.GetDailyProgressQuery{
		UserID: currentUserID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, progress)
}

type updatePreferencesRequest struct {
	SelectedLanguageID *string `json:"selected_language_id,omitempty"`
	Proficiency        *string `json:"proficiency,omitempty"`
	DailyGoalTarget    *int    `json:"daily_goal_target,omitempty"`
	DailyReminder      *bool   `json:"daily_reminder,omitempty"`
	ReminderTime       *string `json:"reminder_time,omitempty"`
}

// handleUpdatePreferences handles PATCH /api/v1/profiles/me/preferences
func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req updatePreferencesRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.UpdatePreferences.Handle(r.Context(), command.UpdatePreferencesCommand{
		UserID:             currentUserID(r.Context()),
		SelectedLanguageID: req.SelectedLanguageID,
		Proficiency:        req.Proficiency,
		DailyGoalTarget:    req.DailyGoalTarget,
		DailyReminder:      req.DailyReminder,
		ReminderTime:       req.ReminderTime,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":              result.UserID,
		"selected_language_id": result.SelectedLanguageID,
		"proficiency":          result.Proficiency,
		"daily_goal_target":    result.DailyGoalTarget,
		"daily_reminder":       result.DailyReminder,
		"reminder_time":        result.ReminderTime,
	})
}

// handleResetProgress handles POST /api/v1/profiles/reset
func (s *Server) handleResetProgress(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.ResetProgress.Handle(r.Context(), command.ResetProgressCommand{
		UserID: currentUserID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":  result.UserID,
		"reset_at": result.ResetAt,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetLeaderboard handles GET /api/v1/leaderboard?range=week&limit=20
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetLeaderboard.Handle(r.Context(), query.GetLeaderboardQuery{
		Range:            getQueryParam(r, "range", "week"),
		Limit:            getQueryParamInt(r, "limit", 20),
		RequestingUserID: currentUserID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListNotifications handles GET /api/v1/notifications
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetNotifications.Handle(r.Context(), query.GetNotificationsQuery{
		UserID:     currentUserID(r.Context()),
		OnlyUnread: getQueryParamBool(r, "unread"),
		Limit:      getQueryParamInt(r, "limit", 20),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleMarkNotificationRead handles POST /api/v1/notifications/{id}/read
func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	err := s.deps.MarkNotificationRead.Handle(r.Context(), command.MarkNotificationReadCommand{
		UserID:         currentUserID(r.Context()),
		NotificationID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

// handleMarkAllNotificationsRead handles POST /api/v1/notifications/read-all
func (s *Server) handleMarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	err := s.deps.MarkNotificationRead.Handle(r.Context(), command.MarkNotificationReadCommand{
		UserID: currentUserID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

// ══════════════════════════════════════════════════════════════════════════════
// COMMUNITY HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListCommunities handles GET /api/v1/communities
func (s *Server) handleListCommunities(w http.ResponseWriter, r *http.Request) {
	communities, err := s.deps.GetCommunities.List(r.Context(), currentUserID(r.Context()), getQueryParamInt(r, "limit", 50))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"communities": communities})
}

// handleJoinCommunity handles POST /api/v1/communities/{id}/join
func (s *Server) handleJoinCommunity(w http.ResponseWriter, r *http.Request) {
	err := s.deps.JoinCommunity.Handle(r.Context(), command.JoinCommunityCommand{
		CommunityID: r.PathValue("id"),
		UserID:      currentUserID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "joined"})
}

// handleListPosts handles GET /api/v1/communities/{id}/posts
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.deps.GetCommunities.ListPosts(r.Context(), r.PathValue("id"), getQueryParamInt(r, "limit", 50))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"posts": posts})
}

type createPostRequest struct {
	Content string `json:"content"`
}

// handleCreatePost handles POST /api/v1/communities/{id}/posts
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.CreatePost.Handle(r.Context(), command.CreatePostCommand{
		CommunityID: r.PathValue("id"),
		AuthorID:    currentUserID(r.Context()),
		Content:     req.Content,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"post_id": result.PostID})
}

// handleLeaveCommunity handles POST /api/v1/communities/{id}/leave
func (s *Server) handleLeaveCommunity(w http.ResponseWriter, r *http.Request) {
	err := s.deps.LeaveCommunity.Handle(r.Context(), command.LeaveCommunityCommand{
		CommunityID: r.PathValue("id"),
		UserID:      currentUserID(r.Context()),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

type sendMessageRequest struct {
	RecipientID string `json:"recipient_id"`
	Content     string `json:"content"`
}

// handleSendMessage handles POST /api/v1/messages
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.deps.SendMessage.Handle(r.Context(), command.SendMessageCommand{
		SenderID:    currentUserID(r.Context()),
		RecipientID: req.RecipientID,
		Content:     req.Content,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message_id": result.MessageID})
}

// handleGetConversation handles GET /api/v1/messages/{userId}
func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	messages, err := s.deps.GetConversation.Handle(r.Context(), query.GetConversationQuery{
		UserID:      currentUserID(r.Context()),
		OtherUserID: r.PathValue("userId"),
		Limit:       getQueryParamInt(r, "limit", 50),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}
