package domain

import "time"

// Idempotency represents a recorded result of a previously processed request,
// keyed by (client_id, scope, key). Scope is the route the key was used on, so
// the same key may be reused across endpoints. Rating and DocumentStatus hold
// the document as it was first returned, so replays answer with that snapshot
// even if the id was overwritten since.
type Idempotency struct {
	ID             string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	ClientID       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_client_scope_key,priority:1"`
	Scope          string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_client_scope_key,priority:2"`
	Key            string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_client_scope_key,priority:3"`
	DocumentID     int       `gorm:"type:INTEGER NOT NULL"`
	Rating         int       `gorm:"type:INTEGER NOT NULL;default:0"`
	DocumentStatus int       `gorm:"type:INTEGER NOT NULL;default:0"`
	Status         int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt      time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt      time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
