package models

import (
	"time"

	"github.com/uptrace/bun"
)

// The Q&A collaborator owns these collections; the gamification engine
// only runs count and window aggregations over them. The models carry just
// the columns those queries touch.

// Question is the collaborator view of a question document.
type Question struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID        string    `bun:"id,pk"`
	AuthorID  string    `bun:"author_id,notnull"`
	IsSolved  bool      `bun:"is_solved,notnull,default:false"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

// Answer is the collaborator view of an answer document.
type Answer struct {
	bun.BaseModel `bun:"table:answers,alias:ans"`

	ID         string    `bun:"id,pk"`
	AuthorID   string    `bun:"author_id,notnull"`
	QuestionID string    `bun:"question_id,notnull"`
	IsAccepted bool      `bun:"is_accepted,notnull,default:false"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
}

// Vote types
const (
	VoteUp   = "upvote"
	VoteDown = "downvote"
)

// Vote is the collaborator view of a vote document. TargetAuthorID is the
// author of the voted content, which is what the upvotes-received count
// groups by.
type Vote struct {
	bun.BaseModel `bun:"table:votes,alias:v"`

	ID             string    `bun:"id,pk"`
	VoterID        string    `bun:"voter_id,notnull"`
	TargetID       string    `bun:"target_id,notnull"`
	TargetType     string    `bun:"target_type,notnull"`
	TargetAuthorID string    `bun:"target_author_id,notnull"`
	VoteType       string    `bun:"vote_type,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
}
