package tasks_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/droppic/internal/app/store/entry"
	"github.com/dalemusser/droppic/internal/app/system/tasks"
	"github.com/dalemusser/droppic/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestRunner_StartAndStop(t *testing.T) {
	runner := tasks.New(zap.NewNop())

	var runCount atomic.Int32
	runner.Register(tasks.Job{
		Name:     "test-job",
		Interval: 100 * time.Millisecond,
		Run: func(ctx context.Context) error {
			runCount.Add(1)
			return nil
		},
	})

	runner.Start()

	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := runner.Stop(ctx); err != nil {
		t.Errorf("Stop() returned error: %v", err)
	}

	// Jobs run immediately on start.
	if runCount.Load() < 1 {
		t.Errorf("expected job to run at least once, ran %d times", runCount.Load())
	}
}

func TestRunner_StopWithTimeout(t *testing.T) {
	runner := tasks.New(zap.NewNop())

	inSleep := make(chan struct{})
	runner.Register(tasks.Job{
		Name:     "slow-job",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			close(inSleep)
			// A job that ignores its context; Stop must time out
			// rather than hang.
			time.Sleep(5 * time.Second)
			return nil
		},
	})

	runner.Start()
	<-inSleep
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := runner.Stop(ctx); err != context.DeadlineExceeded {
		t.Errorf("expected DeadlineExceeded error, got: %v", err)
	}
}

func TestRunner_RunOnce(t *testing.T) {
	runner := tasks.New(zap.NewNop())

	var runCount atomic.Int32
	runner.Register(tasks.Job{
		Name:     "manual-job",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			runCount.Add(1)
			return nil
		},
	})

	// The runner is never started; RunOnce fires the job directly.
	if err := runner.RunOnce(context.Background(), "manual-job"); err != nil {
		t.Errorf("RunOnce() returned error: %v", err)
	}
	if runCount.Load() != 1 {
		t.Errorf("expected job to run once, ran %d times", runCount.Load())
	}

	if err := runner.RunOnce(context.Background(), "nonexistent-job"); err != nil {
		t.Errorf("RunOnce() for nonexistent job should return nil, got: %v", err)
	}
}

func TestTrashRetentionJob(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := entry.New(db)
	fake := testutil.NewFakeMedia()

	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := testutil.DefaultUser()

	// One expired trashed file, one freshly trashed file, one expired
	// trashed folder, one live file.
	expired, err := store.Create(ctx, entry.CreateInput{
		Name: "old.png", Type: "image/png", UserID: user.ID,
		FileURL: "https://media.test/droppic/u/old-obj.png?tr=w-400",
		Path:    "/droppic/u/old-obj.png",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	fresh, err := store.Create(ctx, entry.CreateInput{
		Name: "new.png", Type: "image/png", UserID: user.ID,
		FileURL: "https://media.test/droppic/u/new-obj.png",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	folder, err := store.Create(ctx, entry.CreateInput{
		Name: "old-folder", Type: "folder", UserID: user.ID, IsFolder: true,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	live, err := store.Create(ctx, entry.CreateInput{
		Name: "live.png", Type: "image/png", UserID: user.ID,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := store.SetTrashForOwner(ctx, expired.ID, user.ID, true); err != nil {
		t.Fatalf("SetTrashForOwner() error = %v", err)
	}
	if _, err := store.SetTrashForOwner(ctx, fresh.ID, user.ID, true); err != nil {
		t.Fatalf("SetTrashForOwner() error = %v", err)
	}
	if _, err := store.SetTrashForOwner(ctx, folder.ID, user.ID, true); err != nil {
		t.Fatalf("SetTrashForOwner() error = %v", err)
	}

	// Backdate the expired entries past the retention window.
	old := time.Now().UTC().Add(-48 * time.Hour)
	files := db.Collection(entry.CollectionName)
	for _, id := range []any{expired.ID, folder.ID} {
		if _, err := files.UpdateByID(ctx, id, bson.M{"$set": bson.M{"trashed_at": old}}); err != nil {
			t.Fatalf("backdate trashed_at: %v", err)
		}
	}

	job := tasks.TrashRetentionJob(store, fake, 24*time.Hour, time.Hour, zap.NewNop())
	if err := job.Run(ctx); err != nil {
		t.Fatalf("job.Run() error = %v", err)
	}

	// Expired file and folder rows are gone; media delete happened for
	// the file only, with the query string stripped from the object name.
	if _, err := store.GetForOwner(ctx, expired.ID, user.ID); err == nil {
		t.Error("expired entry still present after sweep")
	}
	if _, err := store.GetForOwner(ctx, folder.ID, user.ID); err == nil {
		t.Error("expired folder still present after sweep")
	}
	if _, err := store.GetForOwner(ctx, fresh.ID, user.ID); err != nil {
		t.Errorf("freshly trashed entry should survive the sweep: %v", err)
	}
	if _, err := store.GetForOwner(ctx, live.ID, user.ID); err != nil {
		t.Errorf("live entry should survive the sweep: %v", err)
	}

	if fake.DeleteCount() != 1 {
		t.Fatalf("media delete count = %d, want 1", fake.DeleteCount())
	}
	if fake.Deletes[0] != "old-obj.png" {
		t.Errorf("media delete object = %q, want %q", fake.Deletes[0], "old-obj.png")
	}
}

func TestTrashRetentionJob_MediaFailureKeepsRow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := entry.New(db)
	fake := testutil.NewFakeMedia()
	fake.FailDelete = true

	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := testutil.DefaultUser()
	e, err := store.Create(ctx, entry.CreateInput{
		Name: "stuck.png", Type: "image/png", UserID: user.ID,
		FileURL: "https://media.test/droppic/u/stuck-obj.png",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := store.SetTrashForOwner(ctx, e.ID, user.ID, true); err != nil {
		t.Fatalf("SetTrashForOwner() error = %v", err)
	}

	old := time.Now().UTC().Add(-48 * time.Hour)
	files := db.Collection(entry.CollectionName)
	if _, err := files.UpdateByID(ctx, e.ID, bson.M{"$set": bson.M{"trashed_at": old}}); err != nil {
		t.Fatalf("backdate trashed_at: %v", err)
	}

	job := tasks.TrashRetentionJob(store, fake, 24*time.Hour, time.Hour, zap.NewNop())
	if err := job.Run(ctx); err != nil {
		t.Fatalf("job.Run() error = %v", err)
	}

	// Row stays so the next sweep retries the media delete.
	if _, err := store.GetForOwner(ctx, e.ID, user.ID); err != nil {
		t.Errorf("entry should survive when media delete fails: %v", err)
	}
}
