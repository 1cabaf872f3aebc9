package core

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"menulens.app/menu-digitalizer/internal/config"
	"menulens.app/menu-digitalizer/internal/imageprep"
	"menulens.app/menu-digitalizer/internal/menu"
	"menulens.app/menu-digitalizer/internal/storage"
	"menulens.app/menu-digitalizer/internal/store"
)

// ErrBadImage means the upload could not be decoded as an image. Nothing
// is sent to the model in that case.
var ErrBadImage = errors.New("could not read image")

// ErrAnalysisInFlight means the user already has an extraction running.
// Only one request may be in flight per user; a second upload is
// rejected rather than queued.
var ErrAnalysisInFlight = errors.New("menu analysis already in progress")

type MenuService struct {
	dbStore *store.SQLiteStore
	vision  VisionClient
	objects *storage.ObjectStore // nil when object storage is not configured

	mu       sync.Mutex
	inFlight map[int64]bool
}

func NewMenuService(db *store.SQLiteStore, vision VisionClient, objects *storage.ObjectStore) *MenuService {
	return &MenuService{
		dbStore:  db,
		vision:   vision,
		objects:  objects,
		inFlight: make(map[int64]bool),
	}
}

type AnalyzeResult struct {
	Menu menu.Menu
	// SessionID is set when the extracted menu was auto-saved for an
	// authenticated caller.
	SessionID string
}

// AnalyzeMenu runs the extraction pipeline: decode the upload, bound its
// size, send it to the vision model, parse the reply into a menu. For
// authenticated callers the result is auto-saved; a failed save is
// logged and swallowed so the extracted menu stays usable.
func (s *MenuService) AnalyzeMenu(ctx context.Context, imageBase64, mediaType string, userID *int64) (*AnalyzeResult, error) {
	if userID != nil {
		if !s.acquire(*userID) {
			return nil, ErrAnalysisInFlight
		}
		defer s.release(*userID)
	}

	raw, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 payload", ErrBadImage)
	}

	// The preparer re-encodes the upload, so the caller's declared media
	// type is informational only.
	prepared, preparedType, err := imageprep.Prepare(raw, config.AppConfig.MaxImageDimension, config.AppConfig.JPEGQuality)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImage, err)
	}

	rawText, err := s.vision.ExtractMenuText(ctx, preparedType, prepared)
	if err != nil {
		return nil, fmt.Errorf("menu extraction failed: %w", err)
	}

	m, err := menu.ParseMenu(rawText)
	if err != nil {
		return nil, err
	}

	result := &AnalyzeResult{Menu: m}

	if userID != nil && s.dbStore != nil {
		var imageURLs []string
		if s.objects != nil {
			key := fmt.Sprintf("menus/%d/%s.jpg", *userID, uuid.NewString())
			url, err := s.objects.UploadImage(ctx, key, preparedType, prepared)
			if err != nil {
				log.Printf("Failed to upload menu image for user %d: %v", *userID, err)
			} else {
				imageURLs = append(imageURLs, url)
			}
		}

		session, err := s.dbStore.CreateMenuSession(*userID, m, imageURLs)
		if err != nil {
			log.Printf("Failed to auto-save menu session for user %d: %v", *userID, err)
		} else {
			result.SessionID = session.ID
		}
	}

	return result, nil
}

func (s *MenuService) acquire(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[userID] {
		return false
	}
	s.inFlight[userID] = true
	return true
}

func (s *MenuService) release(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, userID)
}

// User methods

func (s *MenuService) CreateUser(externalUserID, passwordHash string) (*store.User, error) {
	return s.dbStore.CreateUser(externalUserID, passwordHash)
}

func (s *MenuService) GetUserByExternalID(externalUserID string) (*store.User, error) {
	return s.dbStore.GetUserByExternalID(externalUserID)
}

// Session methods

func (s *MenuService) SaveMenu(userID int64, m menu.Menu, imageURLs []string) (*store.MenuSession, error) {
	m.StampItemIDs()
	session, err := s.dbStore.CreateMenuSession(userID, m, imageURLs)
	if err != nil {
		return nil, fmt.Errorf("failed to save menu session: %w", err)
	}
	return session, nil
}

func (s *MenuService) ListSessions(userID int64) ([]store.MenuSession, error) {
	return s.dbStore.GetMenuSessionsByUserID(userID)
}

func (s *MenuService) GetSession(sessionID string, userID int64) (*store.MenuSession, error) {
	return s.dbStore.GetMenuSessionByID(sessionID, userID)
}

func (s *MenuService) DeleteSession(sessionID string, userID int64) error {
	return s.dbStore.DeleteMenuSession(sessionID, userID)
}

// UpdateSessionItemField applies one field edit to an item of a saved
// session and persists the full replacement menu.
func (s *MenuService) UpdateSessionItemField(sessionID string, userID int64, itemID, field, value string) (*store.MenuSession, error) {
	session, err := s.dbStore.GetMenuSessionByID(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	updated, err := session.MenuData.SetFieldByID(itemID, field, value)
	if err != nil {
		return nil, err
	}

	if err := s.dbStore.UpdateMenuSessionData(sessionID, userID, updated); err != nil {
		return nil, err
	}
	session.MenuData = updated
	session.RestaurantName = updated.RestaurantName
	return session, nil
}

// DeleteSessionItem removes one item from a saved session's menu. An
// emptied category disappears with its last item.
func (s *MenuService) DeleteSessionItem(sessionID string, userID int64, itemID string) (*store.MenuSession, error) {
	session, err := s.dbStore.GetMenuSessionByID(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	updated, err := session.MenuData.DeleteItemByID(itemID)
	if err != nil {
		return nil, err
	}

	if err := s.dbStore.UpdateMenuSessionData(sessionID, userID, updated); err != nil {
		return nil, err
	}
	session.MenuData = updated
	return session, nil
}
