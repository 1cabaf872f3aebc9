package store

import (
	"time"

	"menulens.app/menu-digitalizer/internal/menu"
)

type User struct {
	ID             int64     `json:"id"`
	ExternalUserID string    `json:"external_user_id"`
	PasswordHash   string    `json:"-"` // Do not expose this in JSON responses
	CreatedAt      time.Time `json:"created_at"`
}

// MenuSession is one saved snapshot of an extracted menu plus its source
// image references, owned by exactly one user.
type MenuSession struct {
	ID             string    `json:"id"` // Using UUID for external ID
	UserID         int64     `json:"user_id"`
	RestaurantName string    `json:"restaurant_name"`
	MenuData       menu.Menu `json:"menu_data"`
	ImageURLs      []string  `json:"image_urls"`
	CreatedAt      time.Time `json:"created_at"`
}
