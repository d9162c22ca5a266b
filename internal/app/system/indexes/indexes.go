// Package indexes creates the MongoDB indexes the service queries against.
package indexes

import (
	"context"

	"github.com/dalemusser/droppic/internal/app/store/entry"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// EnsureAll creates all indexes used by the application. Index creation is
// idempotent, so this is safe to run on every startup.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	files := db.Collection(entry.CollectionName)

	_, err := files.Indexes().CreateMany(ctx, []mongo.IndexModel{
		// Folder-content listings: everything under a parent for an owner.
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "parent_id", Value: 1}}},
		// Trash listings and the empty-trash bulk delete.
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "is_trash", Value: 1}}},
		// Trash retention sweep across users.
		{Keys: bson.D{{Key: "is_trash", Value: 1}, {Key: "trashed_at", Value: 1}}},
	})
	return err
}
