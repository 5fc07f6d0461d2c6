package userstore_test

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	userstore "github.com/melodykit/melodyshare/internal/app/store/users"
	"github.com/melodykit/melodyshare/internal/domain/apperr"
	"github.com/melodykit/melodyshare/internal/domain/models"
	"github.com/melodykit/melodyshare/internal/testutil"
)

func TestStore_Save_NewUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	saved, err := store.Save(ctx, models.User{Username: "Alice", CommunityCode: "JAZZ1234"})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if saved.Username != "Alice" {
		t.Errorf("Username: got %q, want %q (typed casing preserved)", saved.Username, "Alice")
	}
	if saved.UsernameCI != "alice" {
		t.Errorf("UsernameCI: got %q, want %q", saved.UsernameCI, "alice")
	}
	if saved.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestStore_Save_ReturningUserKeepsIdentity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first, err := store.Save(ctx, models.User{Username: "alice", CommunityCode: "JAZZ1234"})
	if err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	// The same person comes back with different casing and a new community.
	second, err := store.Save(ctx, models.User{Username: "ALICE", CommunityCode: "ROCK5678"})
	if err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("returning user must keep their id: got %v, want %v", second.ID, first.ID)
	}
	if second.CommunityCode != "ROCK5678" {
		t.Errorf("CommunityCode: got %q, want %q", second.CommunityCode, "ROCK5678")
	}
	if second.CreatedAt != first.CreatedAt {
		t.Errorf("CreatedAt must survive a merge: got %v, want %v", second.CreatedAt, first.CreatedAt)
	}
}

func TestStore_Save_NeverClobbersCooldown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	saved, err := store.Save(ctx, models.User{Username: "alice", CommunityCode: "JAZZ1234"})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	stamp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := store.SetLastSongAdded(ctx, saved.ID, stamp); err != nil {
		t.Fatalf("SetLastSongAdded failed: %v", err)
	}

	// A rejoin merge must leave the cooldown stamp alone.
	merged, err := store.Save(ctx, models.User{Username: "alice", CommunityCode: "ROCK5678"})
	if err != nil {
		t.Fatalf("merge Save failed: %v", err)
	}
	if merged.LastSongAdded == nil || !merged.LastSongAdded.Equal(stamp) {
		t.Errorf("LastSongAdded: got %v, want %v", merged.LastSongAdded, stamp)
	}
}

func TestStore_ClaimSubmissionSlot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	saved, err := store.Save(ctx, models.User{Username: "alice", CommunityCode: "JAZZ1234"})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	window := 24 * time.Hour
	first := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	claimed, err := store.ClaimSubmissionSlot(ctx, saved.ID, first, window)
	if err != nil {
		t.Fatalf("ClaimSubmissionSlot failed: %v", err)
	}
	if !claimed {
		t.Fatal("a user with no stamp must win the claim")
	}

	// A second claim inside the window loses; the filter is the gate.
	claimed, err = store.ClaimSubmissionSlot(ctx, saved.ID, first.Add(time.Minute), window)
	if err != nil {
		t.Fatalf("ClaimSubmissionSlot failed: %v", err)
	}
	if claimed {
		t.Error("a claim inside the window must be rejected")
	}
	got, err := store.GetByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.LastSongAdded == nil || !got.LastSongAdded.Equal(first) {
		t.Errorf("a rejected claim must not move the stamp: got %v, want %v", got.LastSongAdded, first)
	}

	// Exactly the window elapsed is allowed again.
	claimed, err = store.ClaimSubmissionSlot(ctx, saved.ID, first.Add(window), window)
	if err != nil {
		t.Fatalf("ClaimSubmissionSlot failed: %v", err)
	}
	if !claimed {
		t.Error("exactly window elapsed must win the claim")
	}
}

func TestStore_SetLastSongAdded_ZeroClearsStamp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	saved, err := store.Save(ctx, models.User{Username: "alice", CommunityCode: "JAZZ1234"})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	stamp := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := store.SetLastSongAdded(ctx, saved.ID, stamp); err != nil {
		t.Fatalf("SetLastSongAdded failed: %v", err)
	}
	if err := store.SetLastSongAdded(ctx, saved.ID, time.Time{}); err != nil {
		t.Fatalf("SetLastSongAdded with zero failed: %v", err)
	}

	got, err := store.GetByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.LastSongAdded != nil {
		t.Errorf("expected the stamp cleared, got %v", got.LastSongAdded)
	}

	// The user is claimable again after the clear.
	claimed, err := store.ClaimSubmissionSlot(ctx, saved.ID, stamp.Add(time.Minute), 24*time.Hour)
	if err != nil {
		t.Fatalf("ClaimSubmissionSlot failed: %v", err)
	}
	if !claimed {
		t.Error("a cleared stamp must make the user claimable")
	}
}

func TestStore_Exists(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateUser(ctx, "Alice", "JAZZ1234")

	ok, err := store.Exists(ctx, "ALICE")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !ok {
		t.Error("expected case-insensitive match for ALICE")
	}

	ok, err = store.Exists(ctx, "bob")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if ok {
		t.Error("expected no match for bob")
	}
}

func TestStore_GetByUsername_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.GetByUsername(ctx, "ghost")
	if !apperr.IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestStore_SetCommunityCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fixtures.CreateUser(ctx, "alice", "JAZZ1234")

	if err := store.SetCommunityCode(ctx, user.ID, "ROCK5678"); err != nil {
		t.Fatalf("SetCommunityCode failed: %v", err)
	}
	got, err := store.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.CommunityCode != "ROCK5678" {
		t.Errorf("CommunityCode: got %q, want %q", got.CommunityCode, "ROCK5678")
	}

	if err := store.SetCommunityCode(ctx, primitive.NewObjectID(), "ROCK5678"); !apperr.IsNotFound(err) {
		t.Errorf("expected not-found for unknown id, got %v", err)
	}
}
