package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusExpired   = "expired"
	SubscriptionStatusCancelled = "cancelled"
)

type Subscription struct {
	bun.BaseModel `bun:"table:subscriptions,alias:sub"`

	ID            int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt     time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
	UserID        int       `bun:",notnull" json:"user_id"`
	PublicationID int       `bun:",notnull" json:"publication_id"`
	StartDate     time.Time `bun:",notnull" json:"start_date"`
	EndDate       time.Time `bun:",notnull" json:"end_date"`
	Status        string    `bun:",notnull,default:'active'" json:"status"`
	Price         float64   `bun:",notnull" json:"price"`
	AutoRenew     bool      `bun:",notnull,default:false" json:"auto_renew"`

	// Relations
	User        *User        `bun:"rel:belongs-to,join:user_id=id" json:"-"`
	Publication *Publication `bun:"rel:belongs-to,join:publication_id=id" json:"publication,omitempty"`
}
