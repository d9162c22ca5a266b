// Package entry provides owner-scoped storage for file and folder metadata.
//
// All reads and writes carry a user_id predicate in addition to any _id
// predicate, so one user can never observe or mutate another user's entries
// through this store.
package entry

import (
	"context"
	"time"

	"github.com/dalemusser/droppic/internal/app/store/storeutil"
	"github.com/dalemusser/droppic/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection holding file entries.
const CollectionName = "files"

// Store provides access to the files collection.
type Store struct {
	c *mongo.Collection
}

// New creates a new entry store.
func New(db *mongo.Database) *Store {
	return &Store{
		c: db.Collection(CollectionName),
	}
}

// CreateInput contains the input for creating a file or folder entry.
type CreateInput struct {
	Name      string
	Path      string
	Size      int64
	Type      string
	FileURL   string
	Thumbnail string
	UserID    string
	ParentID  *primitive.ObjectID
	IsFolder  bool
}

// Create inserts a new entry and returns the stored record.
func (s *Store) Create(ctx context.Context, input CreateInput) (*models.FileEntry, error) {
	now := time.Now().UTC()
	e := models.FileEntry{
		ID:        primitive.NewObjectID(),
		Name:      input.Name,
		Path:      input.Path,
		Size:      input.Size,
		Type:      input.Type,
		FileURL:   input.FileURL,
		Thumbnail: input.Thumbnail,
		UserID:    input.UserID,
		ParentID:  input.ParentID,
		IsFolder:  input.IsFolder,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return nil, err
	}

	return &e, nil
}

// GetForOwner retrieves an entry by ID, restricted to the given owner.
// Returns mongo.ErrNoDocuments if the entry does not exist or belongs to
// someone else.
func (s *Store) GetForOwner(ctx context.Context, id primitive.ObjectID, userID string) (*models.FileEntry, error) {
	var e models.FileEntry
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// GetFolderForOwner retrieves a folder entry by ID, restricted to the given
// owner. Non-folder entries are treated as not found, which is what the
// parent pre-checks in the upload and folder-create handlers want.
func (s *Store) GetFolderForOwner(ctx context.Context, id primitive.ObjectID, userID string) (*models.FileEntry, error) {
	var e models.FileEntry
	filter := bson.M{"_id": id, "user_id": userID, "is_folder": true}
	if err := s.c.FindOne(ctx, filter).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListOptions contains options for listing a user's entries.
type ListOptions struct {
	Trash   *bool // filter on is_trash when set
	Starred *bool // filter on is_starred when set
	Limit   int64 // page size; 0 means no pagination
	Page    int64 // 1-based page number, used when Limit > 0
}

// ListByParent returns a user's entries under a parent folder, folders first,
// then by name. Pass nil for parentID to list root-level entries.
func (s *Store) ListByParent(ctx context.Context, userID string, parentID *primitive.ObjectID, opts ListOptions) ([]models.FileEntry, error) {
	filter := bson.M{"user_id": userID, "parent_id": parentID}
	if opts.Trash != nil {
		filter["is_trash"] = *opts.Trash
	}
	if opts.Starred != nil {
		filter["is_starred"] = *opts.Starred
	}

	findOpts := options.Find().SetSort(bson.D{
		{Key: "is_folder", Value: -1},
		{Key: "name", Value: 1},
	})
	if opts.Limit > 0 {
		page := storeutil.Paginate(opts.Limit, opts.Page)
		findOpts.SetLimit(*page.Limit).SetSkip(*page.Skip)
	}

	cursor, err := s.c.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.FileEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListTrashed returns all trashed entries owned by the user.
func (s *Store) ListTrashed(ctx context.Context, userID string) ([]models.FileEntry, error) {
	cursor, err := s.c.Find(ctx, bson.M{"user_id": userID, "is_trash": true})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.FileEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListTrashedBefore returns entries, across all users, that were trashed
// before the cutoff. Used by the trash retention job.
func (s *Store) ListTrashedBefore(ctx context.Context, cutoff time.Time) ([]models.FileEntry, error) {
	filter := bson.M{
		"is_trash":   true,
		"trashed_at": bson.M{"$lt": cutoff},
	}
	cursor, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []models.FileEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Descendants walks the parent/child adjacency from root downward and
// returns every entry beneath it (not including root itself), all scoped to
// the owner. The walk is breadth-first over parent_id lookups; the tree is
// shallow in practice so one query per level is fine.
func (s *Store) Descendants(ctx context.Context, userID string, root primitive.ObjectID) ([]models.FileEntry, error) {
	var all []models.FileEntry
	frontier := []primitive.ObjectID{root}
	seen := map[primitive.ObjectID]struct{}{root: {}}

	for len(frontier) > 0 {
		filter := bson.M{"user_id": userID, "parent_id": bson.M{"$in": frontier}}
		cursor, err := s.c.Find(ctx, filter)
		if err != nil {
			return nil, err
		}

		var level []models.FileEntry
		if err := cursor.All(ctx, &level); err != nil {
			return nil, err
		}

		frontier = frontier[:0]
		for _, e := range level {
			// A cycle would revisit an id; skip instead of looping forever.
			if _, ok := seen[e.ID]; ok {
				continue
			}
			seen[e.ID] = struct{}{}
			all = append(all, e)
			if e.IsFolder {
				frontier = append(frontier, e.ID)
			}
		}
	}

	return all, nil
}

// DeleteForOwner removes a single entry and returns the deleted record.
// Returns mongo.ErrNoDocuments if nothing matched (already gone, or owned
// by someone else).
func (s *Store) DeleteForOwner(ctx context.Context, id primitive.ObjectID, userID string) (*models.FileEntry, error) {
	var e models.FileEntry
	if err := s.c.FindOneAndDelete(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// DeleteByIDsForOwner removes the given entries in bulk, still scoped to the
// owner. Returns the number of rows removed.
func (s *Store) DeleteByIDsForOwner(ctx context.Context, userID string, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID, "_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// DeleteByIDs removes the given entries without an owner predicate. Only
// the trash retention job uses this; request handlers go through the
// ForOwner variants.
func (s *Store) DeleteByIDs(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := s.c.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// DeleteTrashedForOwner removes every trashed entry owned by the user,
// folders and files alike. Returns the number of rows removed.
func (s *Store) DeleteTrashedForOwner(ctx context.Context, userID string) (int64, error) {
	result, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID, "is_trash": true})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// SetTrashForOwner flips the trash flag on a single entry and returns the
// updated record. TrashedAt is stamped on trash and cleared on restore.
func (s *Store) SetTrashForOwner(ctx context.Context, id primitive.ObjectID, userID string, trashed bool) (*models.FileEntry, error) {
	update := trashUpdate(trashed)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var e models.FileEntry
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "user_id": userID}, update, opts).Decode(&e)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// SetTrashByIDsForOwner flips the trash flag on the given entries in bulk.
// Used to cascade a folder trash/restore to its descendants.
func (s *Store) SetTrashByIDsForOwner(ctx context.Context, userID string, ids []primitive.ObjectID, trashed bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	filter := bson.M{"user_id": userID, "_id": bson.M{"$in": ids}}
	result, err := s.c.UpdateMany(ctx, filter, trashUpdate(trashed))
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// SetStarredForOwner flips the star flag on a single entry and returns the
// updated record.
func (s *Store) SetStarredForOwner(ctx context.Context, id primitive.ObjectID, userID string, starred bool) (*models.FileEntry, error) {
	update := bson.M{"$set": bson.M{
		"is_starred": starred,
		"updated_at": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var e models.FileEntry
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "user_id": userID}, update, opts).Decode(&e)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CountByParent returns the number of entries directly under a parent
// folder, honoring the same trash/star filters as ListByParent. Paginated
// listings use it to report the total alongside one page.
func (s *Store) CountByParent(ctx context.Context, userID string, parentID *primitive.ObjectID, opts ListOptions) (int64, error) {
	filter := bson.M{"user_id": userID, "parent_id": parentID}
	if opts.Trash != nil {
		filter["is_trash"] = *opts.Trash
	}
	if opts.Starred != nil {
		filter["is_starred"] = *opts.Starred
	}
	return s.c.CountDocuments(ctx, filter)
}

func trashUpdate(trashed bool) bson.M {
	now := time.Now().UTC()
	set := bson.M{
		"is_trash":   trashed,
		"updated_at": now,
	}
	if trashed {
		set["trashed_at"] = now
		return bson.M{"$set": set}
	}
	return bson.M{
		"$set":   set,
		"$unset": bson.M{"trashed_at": ""},
	}
}
