package gallery

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/debemdeboas/instaplanner/internal/model"
	"github.com/debemdeboas/instaplanner/internal/notify"
	"github.com/debemdeboas/instaplanner/internal/repository"
)

// countingRepo counts store writes on top of the in-memory repository.
type countingRepo struct {
	*repository.MemoryItemRepository
	writes atomic.Int64
}

func (r *countingRepo) SaveItems(ctx context.Context, items []model.Item, c model.Container, positions []int) error {
	r.writes.Add(1)
	return r.MemoryItemRepository.SaveItems(ctx, items, c, positions)
}

func (r *countingRepo) UpdatePositions(ctx context.Context, items []model.Item, c model.Container) error {
	r.writes.Add(1)
	return r.MemoryItemRepository.UpdatePositions(ctx, items, c)
}

func (r *countingRepo) DeleteItem(ctx context.Context, id model.ItemID) error {
	r.writes.Add(1)
	return r.MemoryItemRepository.DeleteItem(ctx, id)
}

func (r *countingRepo) ClearAll(ctx context.Context) error {
	r.writes.Add(1)
	return r.MemoryItemRepository.ClearAll(ctx)
}

// failingRepo fails every write with an UPDATE_FAILED error.
type failingRepo struct {
	*repository.MemoryItemRepository
}

func (failingRepo) SaveItems(context.Context, []model.Item, model.Container, []int) error {
	return &repository.PersistenceError{Kind: repository.KindUpdateFailed, Op: "save items", Err: errors.New("disk full")}
}

func (failingRepo) LoadAll(context.Context) ([]model.Item, []model.Item, error) {
	return nil, nil, &repository.PersistenceError{Kind: repository.KindLoadFailed, Op: "load all", Err: errors.New("corrupt")}
}

func items(prefix string, n int) []model.Item {
	out := make([]model.Item, n)
	for i := range out {
		id := fmt.Sprintf("%s%d", prefix, i)
		out[i] = model.Item{ID: model.ItemID(id), Payload: []byte("img-" + id)}
	}
	return out
}

func ids(values ...string) []model.ItemID {
	out := make([]model.ItemID, len(values))
	for i, v := range values {
		out[i] = model.ItemID(v)
	}
	return out
}

func setup(t *testing.T, opts ...Option) (*Manager, *countingRepo, *notify.Recorder) {
	t.Helper()
	repo := &countingRepo{MemoryItemRepository: repository.NewMemoryItemRepository()}
	rec := &notify.Recorder{}
	m := New(repo, rec, opts...)
	t.Cleanup(m.Close)
	return m, repo, rec
}

// seed places items directly into both containers and the store.
func seed(t *testing.T, m *Manager, grid, sidebar []model.Item) {
	t.Helper()
	if err := m.Replace(model.Grid, grid); err != nil {
		t.Fatalf("Replace grid failed: %v", err)
	}
	if err := m.Replace(model.Sidebar, sidebar); err != nil {
		t.Fatalf("Replace sidebar failed: %v", err)
	}
	m.Wait()
}

func assertIDs(t *testing.T, label string, got []model.Item, want ...string) {
	t.Helper()
	if !slices.Equal(model.IDs(got), ids(want...)) {
		t.Errorf("%s: expected %v, got %v", label, want, model.IDs(got))
	}
}

// assertMirrored checks that the store holds exactly what memory holds.
func assertMirrored(t *testing.T, m *Manager, repo repository.ItemRepository) {
	t.Helper()
	m.Wait()

	grid, sidebar, err := repo.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if !slices.Equal(model.IDs(grid), model.IDs(m.Items(model.Grid))) {
		t.Errorf("Store grid %v does not match memory %v", model.IDs(grid), model.IDs(m.Items(model.Grid)))
	}
	if !slices.Equal(model.IDs(sidebar), model.IDs(m.Items(model.Sidebar))) {
		t.Errorf("Store sidebar %v does not match memory %v", model.IDs(sidebar), model.IDs(m.Items(model.Sidebar)))
	}
}

func assertExclusive(t *testing.T, m *Manager) {
	t.Helper()
	seen := map[model.ItemID]model.Container{}
	for _, c := range []model.Container{model.Grid, model.Sidebar} {
		for _, item := range m.Items(c) {
			if prev, ok := seen[item.ID]; ok {
				t.Fatalf("Item %s present in both %s and %s", item.ID, prev, c)
			}
			seen[item.ID] = c
		}
	}
}

func TestAddItems(t *testing.T) {
	m, repo, rec := setup(t)
	seed(t, m, nil, items("s", 2))

	added, err := m.AddItems(items("n", 2), model.Sidebar)
	if err != nil {
		t.Fatalf("AddItems failed: %v", err)
	}
	if len(added) != 2 {
		t.Errorf("Expected 2 added items, got %d", len(added))
	}

	assertIDs(t, "sidebar", m.Items(model.Sidebar), "n0", "n1", "s0", "s1")
	assertMirrored(t, m, repo)

	if !rec.HasTitle("Images added successfully") {
		t.Error("Expected a success notification")
	}
}

func TestAddItemsSkipsDuplicates(t *testing.T) {
	m, _, _ := setup(t)
	seed(t, m, items("g", 1), nil)

	batch := append(items("n", 1), model.Item{ID: "g0"}, model.Item{ID: "n0"}, model.Item{})
	added, err := m.AddItems(batch, model.Sidebar)
	if err != nil {
		t.Fatalf("AddItems failed: %v", err)
	}
	assertIDs(t, "added", added, "n0")
	assertIDs(t, "sidebar", m.Items(model.Sidebar), "n0")
	assertExclusive(t, m)

	_, err = m.AddItems([]model.Item{{ID: "g0"}}, model.Sidebar)
	if !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("Expected ErrInvalidOperation when nothing is new, got %v", err)
	}
}

func TestAddItemsCapacity(t *testing.T) {
	m, repo, rec := setup(t)
	seed(t, m, nil, items("s", 80))
	before := repo.writes.Load()

	_, err := m.AddItems(items("n", 21), model.Sidebar)
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("Expected ErrCapacityExceeded, got %v", err)
	}
	if m.Len(model.Sidebar) != 80 {
		t.Errorf("Expected sidebar unchanged at 80, got %d", m.Len(model.Sidebar))
	}
	m.Wait()
	if repo.writes.Load() != before {
		t.Error("Expected no store write on rejected add")
	}

	last, _ := rec.Last()
	if last.Title != "Too many images" || last.Variant != notify.VariantDestructive {
		t.Errorf("Unexpected notification %+v", last)
	}

	if _, err := m.AddItems(items("n", 20), model.Sidebar); err != nil {
		t.Errorf("Expected add up to the limit to succeed, got %v", err)
	}
}

func TestAddItemsCustomLimit(t *testing.T) {
	m, _, _ := setup(t, WithMaxItems(2))
	if m.MaxItems() != 2 {
		t.Fatalf("Expected MaxItems 2, got %d", m.MaxItems())
	}
	if _, err := m.AddItems(items("n", 3), model.Grid); !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("Expected ErrCapacityExceeded, got %v", err)
	}
}

func TestAddItemsInvalidContainer(t *testing.T) {
	m, _, _ := setup(t)
	if _, err := m.AddItems(items("n", 1), model.All); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("Expected ErrInvalidOperation, got %v", err)
	}
}

func TestDeleteItem(t *testing.T) {
	m, repo, _ := setup(t)
	seed(t, m, items("g", 3), nil)

	if err := m.DeleteItem("g1", model.Grid); err != nil {
		t.Fatalf("DeleteItem failed: %v", err)
	}
	assertIDs(t, "grid", m.Items(model.Grid), "g0", "g2")
	assertMirrored(t, m, repo)

	if err := m.DeleteItem("g1", model.Grid); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := m.DeleteItem("g0", model.Sidebar); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for wrong container, got %v", err)
	}
}

func TestMoveItem(t *testing.T) {
	m, repo, _ := setup(t)
	seed(t, m, items("g", 2), items("s", 3))

	if err := m.MoveItem("s1", model.Sidebar, model.Grid); err != nil {
		t.Fatalf("MoveItem failed: %v", err)
	}
	assertIDs(t, "grid", m.Items(model.Grid), "s1", "g0", "g1")
	assertIDs(t, "sidebar", m.Items(model.Sidebar), "s0", "s2")
	assertExclusive(t, m)
	assertMirrored(t, m, repo)

	if err := m.MoveItem("s0", model.Sidebar, model.Sidebar); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("Expected ErrInvalidOperation for same container, got %v", err)
	}
	if err := m.MoveItem("nope", model.Sidebar, model.Grid); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMoveAll(t *testing.T) {
	m, repo, rec := setup(t)
	seed(t, m, items("g", 2), items("s", 3))

	if err := m.MoveAll(model.Sidebar, model.Grid); err != nil {
		t.Fatalf("MoveAll failed: %v", err)
	}
	assertIDs(t, "grid", m.Items(model.Grid), "s0", "s1", "s2", "g0", "g1")
	if m.Len(model.Sidebar) != 0 {
		t.Errorf("Expected empty sidebar, got %d", m.Len(model.Sidebar))
	}
	assertMirrored(t, m, repo)

	rec.Reset()
	if err := m.MoveAll(model.Sidebar, model.Grid); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("Expected ErrInvalidOperation for empty source, got %v", err)
	}
	if !rec.HasTitle("No images to move") {
		t.Error("Expected 'No images to move' notification")
	}
}

func TestReorder(t *testing.T) {
	tests := []struct {
		name string
		from int
		to   int
		mode Mode
		want []string
	}{
		{"swap first and last", 0, 2, ModeSwap, []string{"C", "B", "A"}},
		{"slide first to last", 0, 2, ModeSlide, []string{"B", "C", "A"}},
		{"slide last to first", 2, 0, ModeSlide, []string{"C", "A", "B"}},
		{"same index", 1, 1, ModeSlide, []string{"A", "B", "C"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, repo, _ := setup(t)
			seed(t, m, []model.Item{{ID: "A"}, {ID: "B"}, {ID: "C"}}, nil)

			if err := m.Reorder(model.Grid, tt.from, tt.to, tt.mode); err != nil {
				t.Fatalf("Reorder failed: %v", err)
			}
			assertIDs(t, "grid", m.Items(model.Grid), tt.want...)
			assertMirrored(t, m, repo)
		})
	}
}

func TestReorderOutOfRange(t *testing.T) {
	m, _, _ := setup(t)
	seed(t, m, items("g", 2), nil)

	for _, idx := range [][2]int{{-1, 0}, {0, 2}, {5, 1}} {
		if err := m.Reorder(model.Grid, idx[0], idx[1], ModeSwap); !errors.Is(err, ErrInvalidOperation) {
			t.Errorf("Reorder(%d, %d): expected ErrInvalidOperation, got %v", idx[0], idx[1], err)
		}
	}
	assertIDs(t, "grid", m.Items(model.Grid), "g0", "g1")
}

func TestSwapAcrossContainers(t *testing.T) {
	m, repo, _ := setup(t)
	seed(t, m, []model.Item{{ID: "A"}, {ID: "B"}}, []model.Item{{ID: "X"}, {ID: "Y"}})

	if err := m.SwapAcrossContainers("Y", "A"); err != nil {
		t.Fatalf("SwapAcrossContainers failed: %v", err)
	}
	assertIDs(t, "grid", m.Items(model.Grid), "Y", "B")
	assertIDs(t, "sidebar", m.Items(model.Sidebar), "X", "A")
	assertExclusive(t, m)
	assertMirrored(t, m, repo)

	// Swapping back with the arguments reversed restores the original layout.
	if err := m.SwapAcrossContainers("A", "Y"); err != nil {
		t.Fatalf("SwapAcrossContainers failed: %v", err)
	}
	assertIDs(t, "grid", m.Items(model.Grid), "A", "B")
	assertIDs(t, "sidebar", m.Items(model.Sidebar), "X", "Y")
}

func TestSwapWithinContainer(t *testing.T) {
	m, _, _ := setup(t)
	seed(t, m, []model.Item{{ID: "A"}, {ID: "B"}, {ID: "C"}}, nil)

	if err := m.SwapAcrossContainers("A", "C"); err != nil {
		t.Fatalf("SwapAcrossContainers failed: %v", err)
	}
	assertIDs(t, "grid", m.Items(model.Grid), "C", "B", "A")

	if err := m.SwapAcrossContainers("A", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestShuffle(t *testing.T) {
	m, repo, _ := setup(t, WithRand(rand.New(rand.NewSource(7))))
	original := items("s", 10)
	seed(t, m, nil, original)

	if err := m.Shuffle(model.Sidebar); err != nil {
		t.Fatalf("Shuffle failed: %v", err)
	}

	got := model.IDs(m.Items(model.Sidebar))
	want := model.IDs(original)
	slices.Sort(got)
	slices.Sort(want)
	if !slices.Equal(got, want) {
		t.Errorf("Expected a permutation of %v, got %v", want, got)
	}
	assertMirrored(t, m, repo)
}

func TestShuffleTooFew(t *testing.T) {
	m, repo, rec := setup(t)
	seed(t, m, nil, items("s", 1))
	before := repo.writes.Load()

	if err := m.Shuffle(model.Sidebar); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("Expected ErrInvalidOperation, got %v", err)
	}
	m.Wait()
	if repo.writes.Load() != before {
		t.Error("Expected no store write")
	}
	if !rec.HasTitle("Cannot shuffle") {
		t.Error("Expected 'Cannot shuffle' notification")
	}
}

func TestClear(t *testing.T) {
	m, repo, rec := setup(t)
	seed(t, m, items("g", 2), items("s", 3))

	if err := m.Clear(model.Sidebar); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if m.Len(model.Sidebar) != 0 || m.Len(model.Grid) != 2 {
		t.Errorf("Expected only the sidebar cleared, got grid=%d sidebar=%d", m.Len(model.Grid), m.Len(model.Sidebar))
	}
	assertMirrored(t, m, repo)

	if !rec.HasTitle("Sidebar cleared") {
		t.Error("Expected 'Sidebar cleared' notification")
	}
}

func TestClearAll(t *testing.T) {
	m, repo, rec := setup(t)
	seed(t, m, items("g", 2), items("s", 3))

	if err := m.ClearAll(); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	if m.Len(model.Grid)+m.Len(model.Sidebar) != 0 {
		t.Error("Expected both containers empty")
	}
	assertMirrored(t, m, repo)

	last, _ := rec.Last()
	if last.Description != "5 images have been successfully removed." {
		t.Errorf("Unexpected description %q", last.Description)
	}
}

func TestReplaceKeepsContainersExclusive(t *testing.T) {
	m, repo, _ := setup(t)
	seed(t, m, items("g", 2), items("s", 2))

	// s0 moves into the grid and g1 leaves both containers.
	if err := m.Replace(model.Grid, []model.Item{{ID: "s0"}, {ID: "g0"}}); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	assertIDs(t, "grid", m.Items(model.Grid), "s0", "g0")
	assertIDs(t, "sidebar", m.Items(model.Sidebar), "s1")
	assertExclusive(t, m)
	assertMirrored(t, m, repo)

	if _, ok := repo.Record("g1"); ok {
		t.Error("Expected g1 to be deleted from the store")
	}
}

func TestInsertAt(t *testing.T) {
	m, repo, _ := setup(t)
	seed(t, m, items("g", 3), items("s", 1))

	if err := m.InsertAt(model.Grid, 1, []model.Item{{ID: "s0"}, {ID: "n0"}}); err != nil {
		t.Fatalf("InsertAt failed: %v", err)
	}
	assertIDs(t, "grid", m.Items(model.Grid), "g0", "s0", "n0", "g1", "g2")
	assertIDs(t, "sidebar", m.Items(model.Sidebar))
	assertMirrored(t, m, repo)

	if err := m.InsertAt(model.Sidebar, 99, []model.Item{{ID: "g2"}}); err != nil {
		t.Fatalf("InsertAt failed: %v", err)
	}
	assertIDs(t, "sidebar", m.Items(model.Sidebar), "g2")
	assertExclusive(t, m)
}

func TestRemove(t *testing.T) {
	m, repo, _ := setup(t)
	seed(t, m, nil, items("s", 4))

	if err := m.Remove(ids("s1", "s3", "unknown"), model.Sidebar); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	assertIDs(t, "sidebar", m.Items(model.Sidebar), "s0", "s2")
	assertMirrored(t, m, repo)
}

func TestFind(t *testing.T) {
	m, _, _ := setup(t)
	seed(t, m, items("g", 2), items("s", 2))

	item, c, idx, ok := m.Find("s1")
	if !ok || item.ID != "s1" || c != model.Sidebar || idx != 1 {
		t.Errorf("Find(s1) = %v, %s, %d, %v", item.ID, c, idx, ok)
	}
	if _, _, _, ok := m.Find("missing"); ok {
		t.Error("Expected missing id not to be found")
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	m, _, _ := setup(t)
	seed(t, m, items("g", 2), nil)

	got := m.Items(model.Grid)
	got[0] = model.Item{ID: "mutated"}
	assertIDs(t, "grid", m.Items(model.Grid), "g0", "g1")
}

func TestLoad(t *testing.T) {
	repo := repository.NewMemoryItemRepository()
	ctx := context.Background()
	repo.SaveItems(ctx, items("g", 2), model.Grid, nil)
	repo.SaveItems(ctx, items("s", 1), model.Sidebar, nil)

	rec := &notify.Recorder{}
	m := New(repo, rec)
	defer m.Close()

	if err := m.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertIDs(t, "grid", m.Items(model.Grid), "g0", "g1")
	assertIDs(t, "sidebar", m.Items(model.Sidebar), "s0")

	last, _ := rec.Last()
	if last.Title != "Images loaded" || last.Description != "Loaded 3 images from storage." {
		t.Errorf("Unexpected notification %+v", last)
	}
}

func TestLoadFailure(t *testing.T) {
	rec := &notify.Recorder{}
	m := New(failingRepo{repository.NewMemoryItemRepository()}, rec)
	defer m.Close()

	err := m.Load(context.Background())
	if !errors.Is(err, repository.ErrLoadFailed) {
		t.Fatalf("Expected LOAD_FAILED, got %v", err)
	}

	last, _ := rec.Last()
	if last.Variant != notify.VariantDestructive || last.Description != "Failed to load images" {
		t.Errorf("Unexpected notification %+v", last)
	}
}

func TestPersistenceFailureKeepsMemory(t *testing.T) {
	rec := &notify.Recorder{}
	m := New(failingRepo{repository.NewMemoryItemRepository()}, rec)
	defer m.Close()

	if _, err := m.AddItems(items("n", 2), model.Sidebar); err != nil {
		t.Fatalf("AddItems returned %v; store failures must not surface synchronously", err)
	}
	m.Wait()

	assertIDs(t, "sidebar", m.Items(model.Sidebar), "n0", "n1")

	var failure *notify.Notification
	for _, n := range rec.All() {
		n := n
		if n.Title == "Error" {
			failure = &n
		}
	}
	if failure == nil {
		t.Fatal("Expected an error notification")
	}
	if failure.Variant != notify.VariantDestructive || failure.Description != "Failed to save images" {
		t.Errorf("Unexpected failure notification %+v", *failure)
	}
}

func TestWritesAfterCloseAreDropped(t *testing.T) {
	m, repo, _ := setup(t)
	m.Close()

	if _, err := m.AddItems(items("n", 1), model.Grid); err != nil {
		t.Fatalf("AddItems failed: %v", err)
	}
	m.Wait()

	if repo.writes.Load() != 0 {
		t.Errorf("Expected no writes after close, got %d", repo.writes.Load())
	}
}

func TestRandomOperationsKeepInvariants(t *testing.T) {
	m, repo, _ := setup(t, WithMaxItems(15))
	r := rand.New(rand.NewSource(42))
	containers := []model.Container{model.Grid, model.Sidebar}
	next := 0

	pick := func() (model.ItemID, bool) {
		all := append(m.Items(model.Grid), m.Items(model.Sidebar)...)
		if len(all) == 0 {
			return "", false
		}
		return all[r.Intn(len(all))].ID, true
	}

	for step := 0; step < 400; step++ {
		c := containers[r.Intn(2)]
		switch r.Intn(8) {
		case 0:
			batch := make([]model.Item, r.Intn(3)+1)
			for i := range batch {
				batch[i] = model.Item{ID: model.ItemID(fmt.Sprintf("r%d", next))}
				next++
			}
			m.AddItems(batch, c)
		case 1:
			if id, ok := pick(); ok {
				_, from, _, _ := m.Find(id)
				m.DeleteItem(id, from)
			}
		case 2:
			if id, ok := pick(); ok {
				_, from, _, _ := m.Find(id)
				m.MoveItem(id, from, from.Other())
			}
		case 3:
			if n := m.Len(c); n > 0 {
				m.Reorder(c, r.Intn(n), r.Intn(n), Mode(r.Intn(2)))
			}
		case 4:
			a, ok1 := pick()
			b, ok2 := pick()
			if ok1 && ok2 {
				m.SwapAcrossContainers(a, b)
			}
		case 5:
			m.Shuffle(c)
		case 6:
			if m.Len(c) > 8 {
				m.Clear(c)
			}
		case 7:
			if id, ok := pick(); ok {
				item, _, _, _ := m.Find(id)
				m.InsertAt(c, r.Intn(5), []model.Item{item})
			}
		}
		assertExclusive(t, m)
	}

	assertMirrored(t, m, repo)
}
