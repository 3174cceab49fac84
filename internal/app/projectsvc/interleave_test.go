package projectsvc

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/teamgather/internal/app/system/apperr"
	"github.com/dalemusser/teamgather/internal/app/system/cache"
	"github.com/dalemusser/teamgather/internal/app/system/cachekey"
	"github.com/dalemusser/teamgather/internal/domain/membership"
	"github.com/dalemusser/teamgather/internal/domain/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// The tests in this file commit one operation after another operation has
// run its checks but before its transaction opens, then assert that the
// mirrors still agree.

func TestRemoveProject_MemberAddedAfterChecks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u1 := h.w.addUser("U1")
	u2 := h.w.addUser("U2")
	u3 := h.w.addUser("U3")
	pid := h.mustCreate(t, u1, "Alpha")
	h.mustAdd(t, pid, u1, u2)
	if _, err := h.svc.UserProjects(ctx, u3.ID); err != nil {
		t.Fatalf("UserProjects: %v", err)
	}

	h.interleave("remove_project", func() {
		if _, err := h.svc.AddMember(ctx, pid, u1.ID, u3.ID); err != nil {
			t.Errorf("AddMember between checks and commit: %v", err)
		}
	})
	h.resetEvents()

	if err := h.svc.RemoveProject(ctx, pid, u1.ID); err != nil {
		t.Fatalf("RemoveProject: %v", err)
	}
	if _, ok := h.w.project(pid); ok {
		t.Error("project still exists")
	}
	for _, u := range []models.User{u1, u2, u3} {
		if _, ok := h.w.user(t, u.ID).MemberFor(pid); ok {
			t.Errorf("user %s still lists the removed project", u.Name)
		}
	}
	checkMirrors(t, h.w)

	events := h.eventsCopy()
	checkNoUntransactedWrites(t, events)
	commit := indexOf(events, "commit:remove_project")
	late := false
	for _, e := range events[commit+1:] {
		if e == "del:"+cachekey.UserProjects(u3.ID.Hex()) {
			late = true
		}
	}
	if commit < 0 || !late {
		t.Errorf("late member's project list not invalidated after commit: %v", events)
	}
}

func TestRemoveProject_MemberRemovedAfterChecks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u1 := h.w.addUser("U1")
	u2 := h.w.addUser("U2")
	pid := h.mustCreate(t, u1, "Alpha")
	h.mustAdd(t, pid, u1, u2)

	h.interleave("remove_project", func() {
		if err := h.svc.RemoveMember(ctx, pid, u1.ID, u2.ID); err != nil {
			t.Errorf("RemoveMember between checks and commit: %v", err)
		}
	})

	if err := h.svc.RemoveProject(ctx, pid, u1.ID); err != nil {
		t.Fatalf("RemoveProject: %v", err)
	}
	if _, ok := h.w.project(pid); ok {
		t.Error("project still exists")
	}
	checkMirrors(t, h.w)
}

// The member list changes after the transaction's own read, as a write
// committed by another session would. The delete must not match.
func TestRemoveProject_MemberSetChangedBeforeDelete(t *testing.T) {
	h := newHarness(t)
	u1 := h.w.addUser("U1")
	u2 := h.w.addUser("U2")
	pid := h.mustCreate(t, u1, "Alpha")

	h.w.before["projects.delete"] = func(w *world) {
		m, err := models.NewMember(pid, w.users[u2.ID], models.RoleMember, time.Now())
		if err != nil {
			t.Errorf("NewMember: %v", err)
			return
		}
		w.projects[pid].Members = append(w.projects[pid].Members, m)
		w.users[u2.ID].Members = append(w.users[u2.ID].Members, m)
	}
	h.resetEvents()

	err := h.svc.RemoveProject(context.Background(), pid, u1.ID)
	if !errors.Is(err, apperr.ErrInternalConsistency) {
		t.Fatalf("got %v, want ErrInternalConsistency", err)
	}
	events := h.eventsCopy()
	if indexOf(events, "abort:remove_project") < 0 {
		t.Errorf("transaction not aborted: %v", events)
	}
	if _, ok := h.w.project(pid); !ok {
		t.Error("project deleted with a member list it never read")
	}
	checkMirrors(t, h.w)
}

func TestRemoveMember_ProjectRemovedAfterChecks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u1 := h.w.addUser("U1")
	u2 := h.w.addUser("U2")
	pid := h.mustCreate(t, u1, "Alpha")
	h.mustAdd(t, pid, u1, u2)

	h.interleave("remove_member", func() {
		if err := h.svc.RemoveProject(ctx, pid, u1.ID); err != nil {
			t.Errorf("RemoveProject between checks and commit: %v", err)
		}
	})

	err := h.svc.RemoveMember(ctx, pid, u1.ID, u2.ID)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	for _, u := range []models.User{u1, u2} {
		if n := len(h.w.user(t, u.ID).Members); n != 0 {
			t.Errorf("user %s: %d memberships left, want 0", u.Name, n)
		}
	}
	checkMirrors(t, h.w)
}

func TestAddMember_SameUserAddedAfterChecks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u1 := h.w.addUser("U1")
	u2 := h.w.addUser("U2")
	pid := h.mustCreate(t, u1, "Alpha")

	h.interleave("add_member", func() {
		if _, err := h.svc.AddMember(ctx, pid, u1.ID, u2.ID); err != nil {
			t.Errorf("AddMember between checks and commit: %v", err)
		}
	})

	_, err := h.svc.AddMember(ctx, pid, u1.ID, u2.ID)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
	p, _ := h.w.project(pid)
	if len(p.Members) != 2 {
		t.Errorf("members: got %d, want 2", len(p.Members))
	}
	if n := len(h.w.user(t, u2.ID).Members); n != 1 {
		t.Errorf("U2 memberships: got %d, want 1", n)
	}
	checkMirrors(t, h.w)
}

func TestAddMember_ProjectRemovedAfterChecks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u1 := h.w.addUser("U1")
	u2 := h.w.addUser("U2")
	pid := h.mustCreate(t, u1, "Alpha")

	h.interleave("add_member", func() {
		if err := h.svc.RemoveProject(ctx, pid, u1.ID); err != nil {
			t.Errorf("RemoveProject between checks and commit: %v", err)
		}
	})

	_, err := h.svc.AddMember(ctx, pid, u1.ID, u2.ID)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if n := len(h.w.user(t, u2.ID).Members); n != 0 {
		t.Errorf("U2 memberships: got %d, want 0", n)
	}
	checkMirrors(t, h.w)
}

func TestUpdateProject_MemberViewsCarryNoProjectName(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u1 := h.w.addUser("U1")
	u2 := h.w.addUser("U2")
	pid := h.mustCreate(t, u1, "Alpha")
	h.mustAdd(t, pid, u1, u2)

	if err := h.svc.UpdateProject(ctx, pid, u1.ID, "Beta", nil); err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}

	uv, err := h.svc.UserInfo(ctx, u2.ID)
	if err != nil {
		t.Fatalf("UserInfo: %v", err)
	}
	pv, err := h.svc.ProjectInfo(ctx, pid, u2.ID)
	if err != nil {
		t.Fatalf("ProjectInfo: %v", err)
	}
	list, err := h.svc.UserProjects(ctx, u2.ID)
	if err != nil {
		t.Fatalf("UserProjects: %v", err)
	}

	tests := []struct {
		name string
		view any
	}{
		{"user info", uv},
		{"project info", pv},
		{"user projects", list},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(tt.view)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if strings.Contains(string(raw), "Alpha") {
				t.Errorf("old name still served: %s", raw)
			}
		})
	}
	if pv.Name != "Beta" {
		t.Errorf("ProjectInfo name: got %q, want Beta", pv.Name)
	}
	for _, m := range uv.Members {
		if m.ProjectID == pid.Hex() && m.Role != models.RoleMember {
			t.Errorf("U2 role: got %q, want member", m.Role)
		}
	}
}

func TestUpdateProject_InvalidatesMemberAddedDuringUpdate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u1 := h.w.addUser("U1")
	u3 := h.w.addUser("U3")
	pid := h.mustCreate(t, u1, "Alpha")

	// U3 joins while the rename is in flight and caches the old name.
	var late models.Member
	h.w.before["projects.update"] = func(w *world) {
		m, err := models.NewMember(pid, w.users[u3.ID], models.RoleMember, time.Now())
		if err != nil {
			t.Errorf("NewMember: %v", err)
			return
		}
		late = m
		w.projects[pid].Members = append(w.projects[pid].Members, m)
		w.users[u3.ID].Members = append(w.users[u3.ID].Members, m)
	}
	h.svc.cache.Set(ctx, cachekey.UserProjects(u3.ID.Hex()), []membership.ProjectView{{ID: pid.Hex(), Name: "Alpha"}})
	h.resetEvents()

	if err := h.svc.UpdateProject(ctx, pid, u1.ID, "Beta", nil); err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}
	if late.ID == "" {
		t.Fatal("concurrent member was not added")
	}
	if indexOf(h.eventsCopy(), "del:"+cachekey.UserProjects(u3.ID.Hex())) < 0 {
		t.Error("late member's project list not invalidated")
	}
	list, err := h.svc.UserProjects(ctx, u3.ID)
	if err != nil {
		t.Fatalf("UserProjects: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Beta" {
		t.Errorf("UserProjects for late member: got %+v, want [Beta]", list)
	}
}

func TestInvalidationFailure_LoggedOnce(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logger := zap.New(core)

	w := newWorld()
	mem := &recordingBackend{Memory: cache.NewMemory(0), w: w, failDel: true}
	svc := New(fakeUsers{w}, fakeProjects{w}, fakeTx{w}, cache.New(mem, logger), logger)
	u1 := w.addUser("U1")

	if _, err := svc.CreateProject(context.Background(), u1.ID, "Alpha", nil); err != nil {
		t.Fatalf("CreateProject with failing cache: %v", err)
	}
	got := logs.All()
	if len(got) != 1 {
		t.Fatalf("warnings: got %d, want 1: %+v", len(got), got)
	}
	if op := got[0].ContextMap()["op"]; op != "create_project" {
		t.Errorf("op field: got %v, want create_project", op)
	}
}
