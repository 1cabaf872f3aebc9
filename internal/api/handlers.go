package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"menulens.app/menu-digitalizer/internal/auth"
	"menulens.app/menu-digitalizer/internal/core"
	"menulens.app/menu-digitalizer/internal/export"
	"menulens.app/menu-digitalizer/internal/menu"
	"menulens.app/menu-digitalizer/internal/store"
)

type APIHandler struct {
	menuService *core.MenuService
}

func NewAPIHandler(ms *core.MenuService) *APIHandler {
	return &APIHandler{menuService: ms}
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, errorResponse{Error: message, Details: details})
}

func (h *APIHandler) resolveUser(r *http.Request) (*int64, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, nil
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	externalUserID, err := auth.ValidateJWT(tokenString)
	if err != nil {
		return nil, fmt.Errorf("invalid token")
	}

	user, err := h.menuService.GetUserByExternalID(externalUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to process user identity: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}
	return &user.ID, nil
}

// JWTAuthMiddleware guards routes that require a signed-in user.
func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header is required", "")
			return
		}

		userID, err := h.resolveUser(r)
		if err != nil || userID == nil {
			writeError(w, http.StatusUnauthorized, "Invalid token", "")
			return
		}

		ctx := context.WithValue(r.Context(), "userID", *userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuthMiddleware attaches the user when a valid token is present
// but lets anonymous requests through. The analyze route uses it so that
// extraction works without an account while signed-in extractions get
// auto-saved.
func (h *APIHandler) OptionalAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := h.resolveUser(r)
		if err != nil || userID == nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), "userID", *userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userIDFromContext(r *http.Request) *int64 {
	if v, ok := r.Context().Value("userID").(int64); ok {
		return &v
	}
	return nil
}

type SignupRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	if req.UserID == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "User ID and password are required", "")
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password for user %s: %v", req.UserID, err)
		writeError(w, http.StatusInternalServerError, "Failed to process password", "")
		return
	}

	user, err := h.menuService.CreateUser(req.UserID, hashedPassword)
	if err != nil {
		log.Printf("Error creating user %s: %v", req.UserID, err)
		writeError(w, http.StatusInternalServerError, "Failed to create user", "")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

type LoginRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	if req.UserID == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "User ID and password are required", "")
		return
	}

	user, err := h.menuService.GetUserByExternalID(req.UserID)
	if err != nil {
		log.Printf("Error getting user %s: %v", req.UserID, err)
		writeError(w, http.StatusUnauthorized, "Invalid credentials", "")
		return
	}

	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials", "")
		return
	}

	token, err := auth.GenerateJWT(req.UserID)
	if err != nil {
		log.Printf("Error generating JWT for user %s: %v", req.UserID, err)
		writeError(w, http.StatusInternalServerError, "Failed to generate token", "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

type AnalyzeMenuRequest struct {
	Image     string `json:"image"`
	MediaType string `json:"mediaType"`
}

type AnalyzeMenuResponse struct {
	Menu      menu.Menu `json:"menu"`
	SessionID string    `json:"session_id,omitempty"`
}

func (h *APIHandler) AnalyzeMenuHandler(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeMenuRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	if req.Image == "" {
		writeError(w, http.StatusBadRequest, "No image provided", "")
		return
	}

	userID := userIDFromContext(r)

	result, err := h.menuService.AnalyzeMenu(r.Context(), req.Image, req.MediaType, userID)
	if err != nil {
		var parseErr *menu.ParseError
		switch {
		case errors.Is(err, core.ErrAnalysisInFlight):
			writeError(w, http.StatusConflict, "Menu analysis already in progress", "")
		case errors.Is(err, core.ErrBadImage):
			writeError(w, http.StatusBadRequest, "Could not read image", err.Error())
		case errors.As(err, &parseErr):
			// Ship the raw model reply back so a malformed response can
			// be diagnosed.
			writeError(w, http.StatusInternalServerError, "Failed to parse menu data", parseErr.RawText)
		default:
			log.Printf("Error analyzing menu: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to analyze menu", err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, AnalyzeMenuResponse{Menu: result.Menu, SessionID: result.SessionID})
}

type SaveMenuRequest struct {
	Menu      menu.Menu `json:"menu"`
	ImageURLs []string  `json:"image_urls,omitempty"`
}

func (h *APIHandler) SaveMenuHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	var req SaveMenuRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	session, err := h.menuService.SaveMenu(userID, req.Menu, req.ImageURLs)
	if err != nil {
		log.Printf("Error saving menu for user %d: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Failed to save menu", "")
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

func (h *APIHandler) ListMenusHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	sessions, err := h.menuService.ListSessions(userID)
	if err != nil {
		log.Printf("Error listing menus for user %d: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Failed to list menus", "")
		return
	}
	if sessions == nil {
		sessions = []store.MenuSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *APIHandler) GetMenuHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.menuService.GetSession(sessionID, userID)
	if err != nil {
		log.Printf("Error getting menu %s for user %d: %v", sessionID, userID, err)
		writeError(w, http.StatusInternalServerError, "Failed to get menu", "")
		return
	}
	if session == nil {
		writeError(w, http.StatusNotFound, "Menu not found", "")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *APIHandler) DeleteMenuHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.menuService.DeleteSession(sessionID, userID); err != nil {
		writeError(w, http.StatusNotFound, "Menu not found", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type UpdateItemRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (h *APIHandler) UpdateMenuItemHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)
	sessionID := chi.URLParam(r, "sessionID")
	itemID := chi.URLParam(r, "itemID")

	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if req.Field == "" {
		writeError(w, http.StatusBadRequest, "Field is required", "")
		return
	}

	session, err := h.menuService.UpdateSessionItemField(sessionID, userID, itemID, req.Field, req.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to update item", err.Error())
		return
	}
	if session == nil {
		writeError(w, http.StatusNotFound, "Menu not found", "")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *APIHandler) DeleteMenuItemHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)
	sessionID := chi.URLParam(r, "sessionID")
	itemID := chi.URLParam(r, "itemID")

	session, err := h.menuService.DeleteSessionItem(sessionID, userID, itemID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to delete item", err.Error())
		return
	}
	if session == nil {
		writeError(w, http.StatusNotFound, "Menu not found", "")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// ExportMenuHandler streams the session's menu as a download, JSON by
// default or CSV with ?format=csv.
func (h *APIHandler) ExportMenuHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.menuService.GetSession(sessionID, userID)
	if err != nil {
		log.Printf("Error exporting menu %s for user %d: %v", sessionID, userID, err)
		writeError(w, http.StatusInternalServerError, "Failed to export menu", "")
		return
	}
	if session == nil {
		writeError(w, http.StatusNotFound, "Menu not found", "")
		return
	}

	switch r.URL.Query().Get("format") {
	case "csv":
		data := export.ToCSV(session.MenuData)
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.CSVFilename(session.MenuData)))
		w.Write(data)
	case "", "json":
		data, err := export.ToJSON(session.MenuData)
		if err != nil {
			log.Printf("Error serializing menu %s: %v", sessionID, err)
			writeError(w, http.StatusInternalServerError, "Failed to export menu", "")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.JSONFilename(session.MenuData)))
		w.Write(data)
	default:
		writeError(w, http.StatusBadRequest, "Unknown export format", "")
	}
}
