package projectsvc

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/teamgather/internal/app/system/apperr"
	"github.com/dalemusser/teamgather/internal/app/system/cache"
	"github.com/dalemusser/teamgather/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// world is an in-memory stand-in for both collections. The fake transactor
// snapshots it on begin and restores the snapshot on abort.
type world struct {
	mu       sync.Mutex
	users    map[primitive.ObjectID]*models.User
	projects map[primitive.ObjectID]*models.Project

	// events records txn and cache steps in order.
	events []string
	txns   int
	inTxn  bool

	// zeroOn makes the named write ("users.push", "projects.pull", ...)
	// report zero modified documents on its nth call (1-based).
	zeroOn    map[string]int
	callCount map[string]int

	// before runs once, with mu held, ahead of the named write. Tests use
	// it to change a document between a transaction's read and its write.
	before map[string]func(w *world)
}

func newWorld() *world {
	return &world{
		users:     map[primitive.ObjectID]*models.User{},
		projects:  map[primitive.ObjectID]*models.Project{},
		zeroOn:    map[string]int{},
		callCount: map[string]int{},
		before:    map[string]func(w *world){},
	}
}

func (w *world) record(e string) {
	w.events = append(w.events, e)
}

// forced reports whether op should report a zero count on this call. It
// also flags mirror writes made outside a transaction. Caller holds w.mu.
func (w *world) forced(op string) bool {
	if !w.inTxn {
		w.record("untxn:" + op)
	}
	if fn, ok := w.before[op]; ok {
		delete(w.before, op)
		fn(w)
	}
	w.callCount[op]++
	n, ok := w.zeroOn[op]
	return ok && n == w.callCount[op]
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.Members = append([]models.Member{}, u.Members...)
	return &c
}

func copyProject(p *models.Project) *models.Project {
	c := *p
	c.Members = append([]models.Member{}, p.Members...)
	if p.Description != nil {
		d := *p.Description
		c.Description = &d
	}
	return &c
}

func (w *world) snapshot() (map[primitive.ObjectID]*models.User, map[primitive.ObjectID]*models.Project) {
	us := make(map[primitive.ObjectID]*models.User, len(w.users))
	for k, v := range w.users {
		us[k] = copyUser(v)
	}
	ps := make(map[primitive.ObjectID]*models.Project, len(w.projects))
	for k, v := range w.projects {
		ps[k] = copyProject(v)
	}
	return us, ps
}

func (w *world) addUser(name string) models.User {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now().UTC()
	u := &models.User{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    strings.ToLower(name),
		Email:     strings.ToLower(name) + "@example.com",
		Password:  "hash",
		Members:   []models.Member{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	w.users[u.ID] = u
	return *copyUser(u)
}

func (w *world) user(t *testing.T, id primitive.ObjectID) *models.User {
	t.Helper()
	w.mu.Lock()
	defer w.mu.Unlock()
	u, ok := w.users[id]
	if !ok {
		t.Fatalf("user %s not found", id.Hex())
	}
	return copyUser(u)
}

func (w *world) project(id primitive.ObjectID) (*models.Project, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.projects[id]
	if !ok {
		return nil, false
	}
	return copyProject(p), true
}

/* ---------------- transactor ---------------- */

type fakeTx struct{ w *world }

func (f fakeTx) Run(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	f.w.mu.Lock()
	f.w.txns++
	f.w.inTxn = true
	us, ps := f.w.snapshot()
	f.w.record("begin:" + name)
	f.w.mu.Unlock()

	err := fn(ctx)

	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	f.w.inTxn = false
	if err != nil {
		f.w.users, f.w.projects = us, ps
		f.w.record("abort:" + name)
		return err
	}
	f.w.record("commit:" + name)
	return nil
}

// stepTx lets a test commit another operation after a mutation has run its
// checks but before its transaction opens.
type stepTx struct {
	fakeTx
	mu    sync.Mutex
	steps map[string]func()
}

func (s *stepTx) Run(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	step := s.steps[name]
	delete(s.steps, name)
	s.mu.Unlock()
	if step != nil {
		step()
	}
	return s.fakeTx.Run(ctx, name, fn)
}

/* ---------------- user store ---------------- */

type fakeUsers struct{ w *world }

func (f fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	u, ok := f.w.users[id]
	if !ok {
		return nil, fmt.Errorf("load user: %w", apperr.ErrNotFound)
	}
	return copyUser(u), nil
}

func (f fakeUsers) PushMember(_ context.Context, userID primitive.ObjectID, m models.Member) (int64, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if f.w.forced("users.push") {
		return 0, nil
	}
	u, ok := f.w.users[userID]
	if !ok {
		return 0, nil
	}
	if _, dup := u.MemberFor(m.ProjectID); dup {
		return 0, nil
	}
	u.Members = append(u.Members, m)
	return 1, nil
}

func (f fakeUsers) PullMember(_ context.Context, userID primitive.ObjectID, memberID string) (int64, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if f.w.forced("users.pull") {
		return 0, nil
	}
	u, ok := f.w.users[userID]
	if !ok {
		return 0, nil
	}
	for i, m := range u.Members {
		if m.ID == memberID {
			u.Members = append(u.Members[:i:i], u.Members[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (f fakeUsers) ListExcluding(_ context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	skip := map[primitive.ObjectID]bool{}
	for _, id := range ids {
		skip[id] = true
	}
	var out []models.User
	for id, u := range f.w.users {
		if !skip[id] {
			out = append(out, *copyUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NameCI < out[j].NameCI })
	return out, nil
}

/* ---------------- project store ---------------- */

type fakeProjects struct{ w *world }

func (f fakeProjects) GetByID(_ context.Context, id primitive.ObjectID) (*models.Project, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	p, ok := f.w.projects[id]
	if !ok {
		return nil, fmt.Errorf("load project: %w", apperr.ErrNotFound)
	}
	return copyProject(p), nil
}

func (f fakeProjects) Create(_ context.Context, name string, description *string) (models.Project, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	f.w.forced("projects.create")
	now := time.Now().UTC()
	p := &models.Project{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      strings.ToLower(name),
		Description: description,
		Members:     []models.Member{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.w.projects[p.ID] = p
	return *copyProject(p), nil
}

func (f fakeProjects) PushMember(_ context.Context, projectID primitive.ObjectID, m models.Member) (int64, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if f.w.forced("projects.push") {
		return 0, nil
	}
	p, ok := f.w.projects[projectID]
	if !ok {
		return 0, nil
	}
	if _, dup := p.MemberFor(m.UserID); dup {
		return 0, nil
	}
	p.Members = append(p.Members, m)
	return 1, nil
}

func (f fakeProjects) PullMember(_ context.Context, projectID primitive.ObjectID, memberID string) (int64, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if f.w.forced("projects.pull") {
		return 0, nil
	}
	p, ok := f.w.projects[projectID]
	if !ok {
		return 0, nil
	}
	for i, m := range p.Members {
		if m.ID == memberID {
			p.Members = append(p.Members[:i:i], p.Members[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (f fakeProjects) Delete(_ context.Context, id primitive.ObjectID, memberIDs []string) (int64, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if f.w.forced("projects.delete") {
		return 0, nil
	}
	p, ok := f.w.projects[id]
	if !ok || len(p.Members) != len(memberIDs) {
		return 0, nil
	}
	want := map[string]bool{}
	for _, mid := range memberIDs {
		want[mid] = true
	}
	for _, m := range p.Members {
		if !want[m.ID] {
			return 0, nil
		}
	}
	delete(f.w.projects, id)
	return 1, nil
}

func (f fakeProjects) UpdateInfo(_ context.Context, id primitive.ObjectID, name string, description *string) (int64, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	if fn, ok := f.w.before["projects.update"]; ok {
		delete(f.w.before, "projects.update")
		fn(f.w)
	}
	p, ok := f.w.projects[id]
	if !ok {
		return 0, nil
	}
	p.Name = name
	p.NameCI = strings.ToLower(name)
	p.Description = description
	p.UpdatedAt = time.Now().UTC()
	return 1, nil
}

func (f fakeProjects) ListByMember(_ context.Context, userID primitive.ObjectID) ([]models.Project, error) {
	f.w.mu.Lock()
	defer f.w.mu.Unlock()
	var out []models.Project
	for _, p := range f.w.projects {
		if _, ok := p.MemberFor(userID); ok {
			out = append(out, *copyProject(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NameCI < out[j].NameCI })
	return out, nil
}

/* ---------------- cache backend ---------------- */

// recordingBackend wraps the memory backend, logging deletes into the
// world's event list and optionally failing them.
type recordingBackend struct {
	*cache.Memory
	w       *world
	failDel bool
}

var errBackendDown = errors.New("backend down")

func (r *recordingBackend) Del(ctx context.Context, keys ...string) error {
	r.w.mu.Lock()
	for _, k := range keys {
		r.w.record("del:" + k)
	}
	r.w.mu.Unlock()
	if r.failDel {
		return errBackendDown
	}
	return r.Memory.Del(ctx, keys...)
}

func (r *recordingBackend) DelPrefix(ctx context.Context, pattern string) error {
	r.w.mu.Lock()
	r.w.record("delprefix:" + pattern)
	r.w.mu.Unlock()
	return r.Memory.DelPrefix(ctx, pattern)
}

/* ---------------- harness ---------------- */

type harness struct {
	w   *world
	mem *recordingBackend
	tx  *stepTx
	svc *Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	w := newWorld()
	mem := &recordingBackend{Memory: cache.NewMemory(0), w: w}
	c := cache.New(mem, zap.NewNop())
	tx := &stepTx{fakeTx: fakeTx{w}, steps: map[string]func(){}}
	svc := New(fakeUsers{w}, fakeProjects{w}, tx, c, zap.NewNop())
	return &harness{w: w, mem: mem, tx: tx, svc: svc}
}

// interleave runs step once, just before the next transaction named txn
// opens.
func (h *harness) interleave(txn string, step func()) {
	h.tx.mu.Lock()
	defer h.tx.mu.Unlock()
	h.tx.steps[txn] = step
}

// resetEvents clears the event log so a test can inspect one operation.
func (h *harness) resetEvents() {
	h.w.mu.Lock()
	defer h.w.mu.Unlock()
	h.w.events = nil
}

func (h *harness) eventsCopy() []string {
	h.w.mu.Lock()
	defer h.w.mu.Unlock()
	return append([]string{}, h.w.events...)
}

func (h *harness) txnCount() int {
	h.w.mu.Lock()
	defer h.w.mu.Unlock()
	return h.w.txns
}

// cached reports whether key is present in the cache backend.
func (h *harness) cached(key string) bool {
	_, ok, _ := h.mem.Memory.Get(context.Background(), key)
	return ok
}

// mustCreate creates a project owned by owner and fails the test on error.
func (h *harness) mustCreate(t *testing.T, owner models.User, name string) primitive.ObjectID {
	t.Helper()
	id, err := h.svc.CreateProject(context.Background(), owner.ID, name, nil)
	if err != nil {
		t.Fatalf("CreateProject(%q): %v", name, err)
	}
	return id
}

func (h *harness) mustAdd(t *testing.T, projectID primitive.ObjectID, acting, target models.User) {
	t.Helper()
	if _, err := h.svc.AddMember(context.Background(), projectID, acting.ID, target.ID); err != nil {
		t.Fatalf("AddMember(%s): %v", target.Name, err)
	}
}

// indexOf returns the position of e in events, or -1.
func indexOf(events []string, e string) int {
	for i, v := range events {
		if v == e {
			return i
		}
	}
	return -1
}
