// SPDX-License-Identifier: AGPL-3.0-only
package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type UpsertPostParams struct {
	ID             uuid.UUID
	AccountID      uuid.UUID
	Platform       string
	PostID         string
	Content        string
	ImageUrl       sql.NullString
	Likes          int64
	Comments       int64
	Shares         int64
	Views          int64
	EngagementRate float64
	PostedAt       time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

const postColumns = `id, account_id, platform, post_id, content, image_url, likes, comments, shares, views,
    engagement_rate, posted_at, created_at, updated_at`

const upsertPost = `
INSERT INTO posts (` + postColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (account_id, post_id) DO UPDATE SET
    content = EXCLUDED.content,
    image_url = EXCLUDED.image_url,
    likes = EXCLUDED.likes,
    comments = EXCLUDED.comments,
    shares = EXCLUDED.shares,
    views = EXCLUDED.views,
    engagement_rate = EXCLUDED.engagement_rate,
    updated_at = EXCLUDED.updated_at
RETURNING ` + postColumns

func (q *Queries) UpsertPost(ctx context.Context, arg UpsertPostParams) (Post, error) {
	var p Post
	err := q.db.GetContext(ctx, &p, upsertPost,
		arg.ID, arg.AccountID, arg.Platform, arg.PostID, arg.Content, arg.ImageUrl,
		arg.Likes, arg.Comments, arg.Shares, arg.Views, arg.EngagementRate,
		arg.PostedAt, arg.CreatedAt, arg.UpdatedAt)
	return p, err
}

type ListTopPostsByAccountParams struct {
	AccountID uuid.UUID
	Limit     int32
}

const listTopPostsByAccount = `
SELECT ` + postColumns + `
FROM posts
WHERE account_id = $1
ORDER BY (likes + comments + shares) DESC, posted_at DESC
LIMIT $2
`

func (q *Queries) ListTopPostsByAccount(ctx context.Context, arg ListTopPostsByAccountParams) ([]Post, error) {
	var posts []Post
	err := q.db.SelectContext(ctx, &posts, listTopPostsByAccount, arg.AccountID, arg.Limit)
	return posts, err
}
