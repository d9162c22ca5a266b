package entry_test

import (
	"errors"
	"testing"
	"time"

	. "github.com/dalemusser/droppic/internal/app/store/entry"
	"github.com/dalemusser/droppic/internal/domain/models"
	"github.com/dalemusser/droppic/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	ownerA = "user_a"
	ownerB = "user_b"
)

func mustCreate(t *testing.T, s *Store, input CreateInput) *models.FileEntry {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	e, err := s.Create(ctx, input)
	if err != nil {
		t.Fatalf("Create(%s) error = %v", input.Name, err)
	}
	return e
}

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	input := CreateInput{
		Name:      "vacation.jpg",
		Path:      "/droppic/user_a/abc123.jpg",
		Size:      2048,
		Type:      "image/jpeg",
		FileURL:   "https://media.test/droppic/user_a/abc123.jpg",
		Thumbnail: "https://media.test/thumbs/droppic/user_a/abc123.jpg",
		UserID:    ownerA,
	}

	e, err := store.Create(ctx, input)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if e.ID.IsZero() {
		t.Error("ID should not be zero")
	}
	if e.Name != input.Name {
		t.Errorf("Name = %v, want %v", e.Name, input.Name)
	}
	if e.FileURL != input.FileURL {
		t.Errorf("FileURL = %v, want %v", e.FileURL, input.FileURL)
	}
	if e.Size != input.Size {
		t.Errorf("Size = %v, want %v", e.Size, input.Size)
	}
	if e.ParentID != nil {
		t.Error("ParentID should be nil for a root entry")
	}
	if e.IsFolder || e.IsStarred || e.IsTrash {
		t.Error("flags should all start false")
	}
	if e.CreatedAt.IsZero() || e.UpdatedAt.IsZero() {
		t.Error("timestamps should be set")
	}
}

func TestStore_GetForOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created := mustCreate(t, store, CreateInput{Name: "a.txt", Type: "text/plain", UserID: ownerA})

	t.Run("owner sees the entry", func(t *testing.T) {
		e, err := store.GetForOwner(ctx, created.ID, ownerA)
		if err != nil {
			t.Fatalf("GetForOwner() error = %v", err)
		}
		if e.ID != created.ID {
			t.Errorf("ID = %v, want %v", e.ID, created.ID)
		}
	})

	t.Run("other owner gets not found", func(t *testing.T) {
		_, err := store.GetForOwner(ctx, created.ID, ownerB)
		if !errors.Is(err, mongo.ErrNoDocuments) {
			t.Errorf("error = %v, want %v", err, mongo.ErrNoDocuments)
		}
	})

	t.Run("nonexistent id", func(t *testing.T) {
		_, err := store.GetForOwner(ctx, primitive.NewObjectID(), ownerA)
		if !errors.Is(err, mongo.ErrNoDocuments) {
			t.Errorf("error = %v, want %v", err, mongo.ErrNoDocuments)
		}
	})
}

func TestStore_GetFolderForOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	folder := mustCreate(t, store, CreateInput{Name: "docs", Type: models.TypeFolder, UserID: ownerA, IsFolder: true})
	file := mustCreate(t, store, CreateInput{Name: "a.txt", Type: "text/plain", UserID: ownerA})

	if _, err := store.GetFolderForOwner(ctx, folder.ID, ownerA); err != nil {
		t.Errorf("GetFolderForOwner() for folder error = %v", err)
	}

	// A plain file must not pass the folder check.
	if _, err := store.GetFolderForOwner(ctx, file.ID, ownerA); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("GetFolderForOwner() for file error = %v, want %v", err, mongo.ErrNoDocuments)
	}
}

func TestStore_ListByParent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	folder := mustCreate(t, store, CreateInput{Name: "zfolder", Type: models.TypeFolder, UserID: ownerA, IsFolder: true})
	mustCreate(t, store, CreateInput{Name: "alpha.txt", Type: "text/plain", UserID: ownerA})
	mustCreate(t, store, CreateInput{Name: "beta.txt", Type: "text/plain", UserID: ownerA})
	mustCreate(t, store, CreateInput{Name: "nested.txt", Type: "text/plain", UserID: ownerA, ParentID: &folder.ID})
	mustCreate(t, store, CreateInput{Name: "other.txt", Type: "text/plain", UserID: ownerB})

	t.Run("root listing, folders first", func(t *testing.T) {
		entries, err := store.ListByParent(ctx, ownerA, nil, ListOptions{})
		if err != nil {
			t.Fatalf("ListByParent() error = %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("got %d entries, want 3", len(entries))
		}
		if entries[0].Name != "zfolder" {
			t.Errorf("first entry = %q, want the folder despite name order", entries[0].Name)
		}
		if entries[1].Name != "alpha.txt" || entries[2].Name != "beta.txt" {
			t.Errorf("file order = %q, %q", entries[1].Name, entries[2].Name)
		}
	})

	t.Run("nested listing", func(t *testing.T) {
		entries, err := store.ListByParent(ctx, ownerA, &folder.ID, ListOptions{})
		if err != nil {
			t.Fatalf("ListByParent() error = %v", err)
		}
		if len(entries) != 1 || entries[0].Name != "nested.txt" {
			t.Errorf("entries = %v", entries)
		}
	})

	t.Run("trash filter", func(t *testing.T) {
		e := mustCreate(t, store, CreateInput{Name: "binned.txt", Type: "text/plain", UserID: ownerA})
		if _, err := store.SetTrashForOwner(ctx, e.ID, ownerA, true); err != nil {
			t.Fatalf("SetTrashForOwner() error = %v", err)
		}

		trashed := true
		entries, err := store.ListByParent(ctx, ownerA, nil, ListOptions{Trash: &trashed})
		if err != nil {
			t.Fatalf("ListByParent() error = %v", err)
		}
		if len(entries) != 1 || entries[0].Name != "binned.txt" {
			t.Errorf("trash listing = %v", entries)
		}
	})

	t.Run("starred filter", func(t *testing.T) {
		e := mustCreate(t, store, CreateInput{Name: "fave.txt", Type: "text/plain", UserID: ownerA})
		if _, err := store.SetStarredForOwner(ctx, e.ID, ownerA, true); err != nil {
			t.Fatalf("SetStarredForOwner() error = %v", err)
		}

		starred := true
		entries, err := store.ListByParent(ctx, ownerA, nil, ListOptions{Starred: &starred})
		if err != nil {
			t.Fatalf("ListByParent() error = %v", err)
		}
		if len(entries) != 1 || entries[0].Name != "fave.txt" {
			t.Errorf("starred listing = %v", entries)
		}
	})
}

func TestStore_ListByParent_Pagination(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt"} {
		mustCreate(t, store, CreateInput{Name: name, Type: "text/plain", UserID: ownerA})
	}

	t.Run("first page", func(t *testing.T) {
		entries, err := store.ListByParent(ctx, ownerA, nil, ListOptions{Limit: 2, Page: 1})
		if err != nil {
			t.Fatalf("ListByParent() error = %v", err)
		}
		if len(entries) != 2 || entries[0].Name != "a.txt" || entries[1].Name != "b.txt" {
			t.Errorf("page 1 = %v", entries)
		}
	})

	t.Run("last page is short", func(t *testing.T) {
		entries, err := store.ListByParent(ctx, ownerA, nil, ListOptions{Limit: 2, Page: 3})
		if err != nil {
			t.Fatalf("ListByParent() error = %v", err)
		}
		if len(entries) != 1 || entries[0].Name != "e.txt" {
			t.Errorf("page 3 = %v", entries)
		}
	})

	t.Run("zero limit returns everything", func(t *testing.T) {
		entries, err := store.ListByParent(ctx, ownerA, nil, ListOptions{})
		if err != nil {
			t.Fatalf("ListByParent() error = %v", err)
		}
		if len(entries) != 5 {
			t.Errorf("got %d entries, want 5", len(entries))
		}
	})

	t.Run("count spans all pages", func(t *testing.T) {
		total, err := store.CountByParent(ctx, ownerA, nil, ListOptions{Limit: 2, Page: 1})
		if err != nil {
			t.Fatalf("CountByParent() error = %v", err)
		}
		if total != 5 {
			t.Errorf("total = %d, want 5", total)
		}
	})

	t.Run("count honors filters", func(t *testing.T) {
		e := mustCreate(t, store, CreateInput{Name: "f.txt", Type: "text/plain", UserID: ownerA})
		if _, err := store.SetTrashForOwner(ctx, e.ID, ownerA, true); err != nil {
			t.Fatalf("SetTrashForOwner() error = %v", err)
		}

		trashed := true
		total, err := store.CountByParent(ctx, ownerA, nil, ListOptions{Trash: &trashed})
		if err != nil {
			t.Fatalf("CountByParent() error = %v", err)
		}
		if total != 1 {
			t.Errorf("trashed total = %d, want 1", total)
		}
	})
}

func TestStore_Descendants(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// root/
	//   a.txt
	//   sub/
	//     b.txt
	root := mustCreate(t, store, CreateInput{Name: "root", Type: models.TypeFolder, UserID: ownerA, IsFolder: true})
	mustCreate(t, store, CreateInput{Name: "a.txt", Type: "text/plain", UserID: ownerA, ParentID: &root.ID})
	sub := mustCreate(t, store, CreateInput{Name: "sub", Type: models.TypeFolder, UserID: ownerA, IsFolder: true, ParentID: &root.ID})
	mustCreate(t, store, CreateInput{Name: "b.txt", Type: "text/plain", UserID: ownerA, ParentID: &sub.ID})
	// Unrelated sibling and another user's entry under the same ids.
	mustCreate(t, store, CreateInput{Name: "sibling.txt", Type: "text/plain", UserID: ownerA})
	mustCreate(t, store, CreateInput{Name: "intruder.txt", Type: "text/plain", UserID: ownerB, ParentID: &root.ID})

	descendants, err := store.Descendants(ctx, ownerA, root.ID)
	if err != nil {
		t.Fatalf("Descendants() error = %v", err)
	}

	names := make(map[string]bool, len(descendants))
	for _, d := range descendants {
		names[d.Name] = true
	}
	for _, want := range []string{"a.txt", "sub", "b.txt"} {
		if !names[want] {
			t.Errorf("descendants missing %q (got %v)", want, names)
		}
	}
	if len(descendants) != 3 {
		t.Errorf("got %d descendants, want 3", len(descendants))
	}
}

func TestStore_DeleteForOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e := mustCreate(t, store, CreateInput{Name: "doomed.txt", Type: "text/plain", UserID: ownerA})

	t.Run("wrong owner cannot delete", func(t *testing.T) {
		if _, err := store.DeleteForOwner(ctx, e.ID, ownerB); !errors.Is(err, mongo.ErrNoDocuments) {
			t.Errorf("error = %v, want %v", err, mongo.ErrNoDocuments)
		}
	})

	t.Run("owner delete returns the record", func(t *testing.T) {
		deleted, err := store.DeleteForOwner(ctx, e.ID, ownerA)
		if err != nil {
			t.Fatalf("DeleteForOwner() error = %v", err)
		}
		if deleted.Name != "doomed.txt" {
			t.Errorf("Name = %q", deleted.Name)
		}
	})

	t.Run("second delete is not found", func(t *testing.T) {
		if _, err := store.DeleteForOwner(ctx, e.ID, ownerA); !errors.Is(err, mongo.ErrNoDocuments) {
			t.Errorf("error = %v, want %v", err, mongo.ErrNoDocuments)
		}
	})
}

func TestStore_SetTrashForOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e := mustCreate(t, store, CreateInput{Name: "t.txt", Type: "text/plain", UserID: ownerA})

	trashed, err := store.SetTrashForOwner(ctx, e.ID, ownerA, true)
	if err != nil {
		t.Fatalf("SetTrashForOwner(true) error = %v", err)
	}
	if !trashed.IsTrash {
		t.Error("IsTrash should be true")
	}
	if trashed.TrashedAt == nil {
		t.Error("TrashedAt should be stamped on trash")
	}

	restored, err := store.SetTrashForOwner(ctx, e.ID, ownerA, false)
	if err != nil {
		t.Fatalf("SetTrashForOwner(false) error = %v", err)
	}
	if restored.IsTrash {
		t.Error("IsTrash should be false after restore")
	}
	if restored.TrashedAt != nil {
		t.Error("TrashedAt should be cleared on restore")
	}
}

func TestStore_SetTrashByIDsForOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := mustCreate(t, store, CreateInput{Name: "a.txt", Type: "text/plain", UserID: ownerA})
	b := mustCreate(t, store, CreateInput{Name: "b.txt", Type: "text/plain", UserID: ownerA})
	other := mustCreate(t, store, CreateInput{Name: "o.txt", Type: "text/plain", UserID: ownerB})

	// Another user's id in the batch must not be touched.
	n, err := store.SetTrashByIDsForOwner(ctx, ownerA, []primitive.ObjectID{a.ID, b.ID, other.ID}, true)
	if err != nil {
		t.Fatalf("SetTrashByIDsForOwner() error = %v", err)
	}
	if n != 2 {
		t.Errorf("modified = %d, want 2", n)
	}

	got, err := store.GetForOwner(ctx, other.ID, ownerB)
	if err != nil {
		t.Fatalf("GetForOwner() error = %v", err)
	}
	if got.IsTrash {
		t.Error("other user's entry was trashed through a cross-owner batch")
	}
}

func TestStore_DeleteTrashedForOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := mustCreate(t, store, CreateInput{Name: "a.txt", Type: "text/plain", UserID: ownerA})
	b := mustCreate(t, store, CreateInput{Name: "b.txt", Type: "text/plain", UserID: ownerA})
	keep := mustCreate(t, store, CreateInput{Name: "keep.txt", Type: "text/plain", UserID: ownerA})
	otherTrashed := mustCreate(t, store, CreateInput{Name: "o.txt", Type: "text/plain", UserID: ownerB})

	for _, pair := range []struct {
		id    primitive.ObjectID
		owner string
	}{
		{a.ID, ownerA}, {b.ID, ownerA}, {otherTrashed.ID, ownerB},
	} {
		if _, err := store.SetTrashForOwner(ctx, pair.id, pair.owner, true); err != nil {
			t.Fatalf("SetTrashForOwner() error = %v", err)
		}
	}

	n, err := store.DeleteTrashedForOwner(ctx, ownerA)
	if err != nil {
		t.Fatalf("DeleteTrashedForOwner() error = %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}

	if _, err := store.GetForOwner(ctx, keep.ID, ownerA); err != nil {
		t.Errorf("untrashed entry should survive: %v", err)
	}
	if _, err := store.GetForOwner(ctx, otherTrashed.ID, ownerB); err != nil {
		t.Errorf("other user's trash should survive: %v", err)
	}

	t.Run("empty trash is a no-op", func(t *testing.T) {
		n, err := store.DeleteTrashedForOwner(ctx, ownerA)
		if err != nil {
			t.Fatalf("DeleteTrashedForOwner() error = %v", err)
		}
		if n != 0 {
			t.Errorf("deleted = %d, want 0", n)
		}
	})
}

func TestStore_ListTrashedBefore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	oldEntry := mustCreate(t, store, CreateInput{Name: "old.txt", Type: "text/plain", UserID: ownerA})
	newEntry := mustCreate(t, store, CreateInput{Name: "new.txt", Type: "text/plain", UserID: ownerB})

	for _, pair := range []struct {
		id    primitive.ObjectID
		owner string
	}{
		{oldEntry.ID, ownerA}, {newEntry.ID, ownerB},
	} {
		if _, err := store.SetTrashForOwner(ctx, pair.id, pair.owner, true); err != nil {
			t.Fatalf("SetTrashForOwner() error = %v", err)
		}
	}

	// Backdate one entry well past any cutoff used below.
	old := time.Now().UTC().Add(-72 * time.Hour)
	if _, err := db.Collection(CollectionName).UpdateByID(ctx, oldEntry.ID, bson.M{"$set": bson.M{"trashed_at": old}}); err != nil {
		t.Fatalf("backdate trashed_at: %v", err)
	}

	expired, err := store.ListTrashedBefore(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("ListTrashedBefore() error = %v", err)
	}
	if len(expired) != 1 || expired[0].ID != oldEntry.ID {
		t.Errorf("expired = %v, want only the backdated entry", expired)
	}
}
