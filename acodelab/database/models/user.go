package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the gamification view of a community member. The wider user
// document (credentials, bio, settings) is owned by the account service;
// this model only touches the columns the gamification engine reads or
// writes.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        string `bun:"id,pk"`
	Username  string `bun:"username,notnull"`
	AvatarURL string `bun:"avatar_url"`

	// Point totals are clamped at zero by the ledger, never written
	// directly by anything else.
	PCPoints   int64  `bun:"pc_points,notnull,default:0"`
	PConPoints int64  `bun:"pcon_points,notnull,default:0"`
	Rank       string `bun:"rank,notnull,default:'Iniciante'"`

	Followers []string `bun:"followers,type:jsonb"`
	Following []string `bun:"following,type:jsonb"`

	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}
