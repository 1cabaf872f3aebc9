package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"menulens.app/menu-digitalizer/internal/menu"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        external_user_id TEXT UNIQUE NOT NULL,
        password_hash TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS menu_sessions (
        id TEXT PRIMARY KEY, -- UUID
        user_id INTEGER NOT NULL,
        restaurant_name TEXT,
        menu_data TEXT NOT NULL, -- JSON-encoded menu
        image_urls TEXT,         -- JSON array of source image URLs
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES users (id)
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// User methods
func (s *SQLiteStore) GetUserByExternalID(externalUserID string) (*User, error) {
	var user User
	err := s.db.QueryRow("SELECT id, external_user_id, password_hash, created_at FROM users WHERE external_user_id = ?", externalUserID).Scan(&user.ID, &user.ExternalUserID, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func (s *SQLiteStore) CreateUser(externalUserID, passwordHash string) (*User, error) {
	res, err := s.db.Exec("INSERT INTO users (external_user_id, password_hash) VALUES (?, ?)", externalUserID, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.getUserByID(id)
}

func (s *SQLiteStore) getUserByID(id int64) (*User, error) {
	var user User
	err := s.db.QueryRow("SELECT id, external_user_id, password_hash, created_at FROM users WHERE id = ?", id).Scan(&user.ID, &user.ExternalUserID, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

// MenuSession methods
func (s *SQLiteStore) CreateMenuSession(userID int64, menuData menu.Menu, imageURLs []string) (*MenuSession, error) {
	menuJSON, err := json.Marshal(menuData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal menu data: %w", err)
	}
	urlsJSON, err := json.Marshal(imageURLs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image urls: %w", err)
	}

	sessionID := uuid.NewString()
	stmt, err := s.db.Prepare("INSERT INTO menu_sessions (id, user_id, restaurant_name, menu_data, image_urls, created_at) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare session insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	_, err = stmt.Exec(sessionID, userID, menuData.RestaurantName, string(menuJSON), string(urlsJSON), now)
	if err != nil {
		return nil, fmt.Errorf("failed to execute session insert: %w", err)
	}
	return &MenuSession{
		ID:             sessionID,
		UserID:         userID,
		RestaurantName: menuData.RestaurantName,
		MenuData:       menuData,
		ImageURLs:      imageURLs,
		CreatedAt:      now,
	}, nil
}

func (s *SQLiteStore) GetMenuSessionByID(sessionID string, userID int64) (*MenuSession, error) {
	var session MenuSession
	var restaurantName sql.NullString
	var menuJSON, urlsJSON string
	err := s.db.QueryRow("SELECT id, user_id, restaurant_name, menu_data, image_urls, created_at FROM menu_sessions WHERE id = ? AND user_id = ?", sessionID, userID).
		Scan(&session.ID, &session.UserID, &restaurantName, &menuJSON, &urlsJSON, &session.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if restaurantName.Valid {
		session.RestaurantName = restaurantName.String
	}
	if err := json.Unmarshal([]byte(menuJSON), &session.MenuData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal menu data for session %s: %w", session.ID, err)
	}
	if urlsJSON != "" {
		if err := json.Unmarshal([]byte(urlsJSON), &session.ImageURLs); err != nil {
			log.Printf("Warning: failed to unmarshal image urls for session %s: %v", session.ID, err)
			session.ImageURLs = nil
		}
	}
	return &session, nil
}

func (s *SQLiteStore) GetMenuSessionsByUserID(userID int64) ([]MenuSession, error) {
	rows, err := s.db.Query("SELECT id, user_id, restaurant_name, menu_data, image_urls, created_at FROM menu_sessions WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []MenuSession
	for rows.Next() {
		var session MenuSession
		var restaurantName sql.NullString
		var menuJSON, urlsJSON string
		if err := rows.Scan(&session.ID, &session.UserID, &restaurantName, &menuJSON, &urlsJSON, &session.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		if restaurantName.Valid {
			session.RestaurantName = restaurantName.String
		}
		if err := json.Unmarshal([]byte(menuJSON), &session.MenuData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal menu data for session %s: %w", session.ID, err)
		}
		if urlsJSON != "" {
			if err := json.Unmarshal([]byte(urlsJSON), &session.ImageURLs); err != nil {
				log.Printf("Warning: failed to unmarshal image urls for session %s: %v", session.ID, err)
				session.ImageURLs = nil
			}
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// UpdateMenuSessionData re-saves a session's menu after an edit. The
// restaurant name column is kept in sync so history listings stay
// meaningful.
func (s *SQLiteStore) UpdateMenuSessionData(sessionID string, userID int64, menuData menu.Menu) error {
	menuJSON, err := json.Marshal(menuData)
	if err != nil {
		return fmt.Errorf("failed to marshal menu data: %w", err)
	}

	stmt, err := s.db.Prepare("UPDATE menu_sessions SET menu_data = ?, restaurant_name = ? WHERE id = ? AND user_id = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare session update: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(string(menuJSON), menuData.RestaurantName, sessionID, userID)
	if err != nil {
		return fmt.Errorf("failed to execute session update: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("session not found or not owned by user, menu not updated")
	}
	return nil
}

func (s *SQLiteStore) DeleteMenuSession(sessionID string, userID int64) error {
	stmt, err := s.db.Prepare("DELETE FROM menu_sessions WHERE id = ? AND user_id = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare session delete: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(sessionID, userID)
	if err != nil {
		return fmt.Errorf("failed to execute session delete: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("session not found or not owned by user")
	}
	return nil
}
