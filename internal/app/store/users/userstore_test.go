package userstore_test

import (
	"errors"
	"testing"
	"time"

	userstore "github.com/dalemusser/teamgather/internal/app/store/users"
	"github.com/dalemusser/teamgather/internal/app/system/apperr"
	"github.com/dalemusser/teamgather/internal/app/system/indexes"
	"github.com/dalemusser/teamgather/internal/domain/models"
	"github.com/dalemusser/teamgather/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreate_NormalizesAndRejectsDuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	store := userstore.New(db)

	u, err := store.Create(ctx, models.User{Name: "  Ada  ", Email: " Ada@Example.COM ", Password: "hash"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Name != "Ada" || u.Email != "ada@example.com" {
		t.Errorf("Create: got name %q email %q", u.Name, u.Email)
	}
	if u.Members == nil || len(u.Members) != 0 {
		t.Errorf("Create: members got %v, want empty", u.Members)
	}

	_, err = store.Create(ctx, models.User{Name: "Other", Email: "ada@example.com", Password: "hash"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("duplicate Create: got %v, want ErrConflict", err)
	}

	got, err := store.GetByEmail(ctx, "ADA@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("GetByEmail: got %s, want %s", got.ID.Hex(), u.ID.Hex())
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := userstore.New(db).GetByID(ctx, primitive.NewObjectID())
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetByID: got %v, want ErrNotFound", err)
	}
}

func TestPushPullMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	store := userstore.New(db)

	u := fx.CreateUser(ctx, "Ada", "ada@example.com")
	m, err := models.NewMember(primitive.NewObjectID(), &u, models.RoleMember, time.Now())
	if err != nil {
		t.Fatalf("NewMember: %v", err)
	}

	n, err := store.PushMember(ctx, u.ID, m)
	if err != nil || n != 1 {
		t.Fatalf("PushMember: got (%d, %v), want (1, nil)", n, err)
	}
	n, err = store.PushMember(ctx, u.ID, m)
	if err != nil || n != 0 {
		t.Errorf("duplicate PushMember: got (%d, %v), want (0, nil)", n, err)
	}
	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.Members) != 1 {
		t.Errorf("members: got %d, want 1", len(got.Members))
	}
	if _, ok := got.MemberFor(m.ProjectID); !ok {
		t.Error("member not present after push")
	}

	n, err = store.PullMember(ctx, u.ID, m.ID)
	if err != nil || n != 1 {
		t.Fatalf("PullMember: got (%d, %v), want (1, nil)", n, err)
	}
	n, err = store.PullMember(ctx, u.ID, m.ID)
	if err != nil || n != 0 {
		t.Errorf("second PullMember: got (%d, %v), want (0, nil)", n, err)
	}
	n, err = store.PushMember(ctx, primitive.NewObjectID(), m)
	if err != nil || n != 0 {
		t.Errorf("PushMember on missing user: got (%d, %v), want (0, nil)", n, err)
	}
}

func TestListExcluding(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	carol := fx.CreateUser(ctx, "carol", "c@example.com")
	alice := fx.CreateUser(ctx, "Alice", "a@example.com")
	bob := fx.CreateUser(ctx, "Bob", "b@example.com")

	got, err := userstore.New(db).ListExcluding(ctx, []primitive.ObjectID{bob.ID})
	if err != nil {
		t.Fatalf("ListExcluding: %v", err)
	}
	if len(got) != 2 || got[0].ID != alice.ID || got[1].ID != carol.ID {
		t.Errorf("ListExcluding: got %v, want [Alice carol]", got)
	}
}
