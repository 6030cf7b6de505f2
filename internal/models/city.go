package models

import (
	"time"

	"github.com/uptrace/bun"
)

type City struct {
	bun.BaseModel `bun:"table:cities"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Name      string    `bun:"name,notnull,unique" json:"name"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}
