package storage

import (
	"bytes"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	// Check that the file was created
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	id, err := store.CreateRun(Run{Kind: KindTrain, Width: 9, Height: 9, Mines: 10})
	if err != nil {
		t.Fatalf("CreateRun() failed: %v", err)
	}
	store.Close()

	store, err = Open(dbPath)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer store.Close()

	if _, err := store.Run(id); err != nil {
		t.Errorf("run lost after reopen: %v", err)
	}
}

func TestStoreRunLifecycle(t *testing.T) {
	store := openTestStore(t)

	params := RunParams{LearningRate: 0.1, Discount: 0.9, Exploration: 1, ExplorationDecay: 0.995}
	id, err := store.CreateRun(Run{Kind: KindTrain, Width: 9, Height: 9, Mines: 10, Params: params})
	if err != nil {
		t.Fatalf("CreateRun() failed: %v", err)
	}
	if len(id) != 36 {
		t.Errorf("Expected a UUID run ID, got %q", id)
	}

	run, err := store.Run(id)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if run.Finished() {
		t.Error("New run should not be finished")
	}
	if run.Params != params {
		t.Errorf("Params = %+v, want %+v", run.Params, params)
	}
	if run.StartedAt.IsZero() {
		t.Error("StartedAt was not stored")
	}

	totals := RunTotals{
		Episodes:         100,
		Wins:             7,
		Losses:           90,
		Truncated:        3,
		TotalReward:      -512.5,
		TotalSteps:       1234,
		FinalExploration: 0.05,
		Duration:         1500 * time.Millisecond,
	}
	if err := store.FinishRun(id, totals); err != nil {
		t.Fatalf("FinishRun() failed: %v", err)
	}

	run, err = store.Run(id)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if !run.Finished() {
		t.Error("Run should be finished")
	}
	if run.Totals != totals {
		t.Errorf("Totals = %+v, want %+v", run.Totals, totals)
	}
	if got := run.Totals.WinRate(); got != 0.07 {
		t.Errorf("WinRate() = %v, want 0.07", got)
	}
}

func TestStoreRunNotFound(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.Run("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Run(missing) error = %v, want ErrNotFound", err)
	}
	if err := store.FinishRun("missing", RunTotals{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("FinishRun(missing) error = %v, want ErrNotFound", err)
	}
}

func TestStoreRecentRuns(t *testing.T) {
	store := openTestStore(t)

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 5; i++ {
		id, err := store.CreateRun(Run{
			Kind:      KindTrain,
			Width:     9,
			Height:    9,
			Mines:     10,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("CreateRun() failed: %v", err)
		}
		ids = append(ids, id)
	}

	runs, err := store.RecentRuns(3)
	if err != nil {
		t.Fatalf("RecentRuns() failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("Expected 3 runs with limit, got %d", len(runs))
	}

	// Newest first
	for i, want := range []string{ids[4], ids[3], ids[2]} {
		if runs[i].ID != want {
			t.Errorf("runs[%d] = %s, want %s", i, runs[i].ID, want)
		}
	}
	if !runs[0].StartedAt.Equal(base.Add(4 * time.Hour)) {
		t.Errorf("StartedAt = %v, want %v", runs[0].StartedAt, base.Add(4*time.Hour))
	}
}

func TestStoreEpisodes(t *testing.T) {
	store := openTestStore(t)

	id, err := store.CreateRun(Run{Kind: KindTrain, Width: 4, Height: 4, Mines: 2})
	if err != nil {
		t.Fatalf("CreateRun() failed: %v", err)
	}

	batch := []Episode{
		{Episode: 2, Worker: 1, Steps: 9, Reward: -3, Outcome: "lost", Exploration: 0.9},
		{Episode: 1, Worker: 0, Steps: 4, Reward: 17, Outcome: "won", Exploration: 0.95},
		{Episode: 3, Worker: 0, Steps: 50, Reward: 1.5, Outcome: "truncated", Exploration: 0.8},
	}
	if err := store.SaveEpisodes(id, batch); err != nil {
		t.Fatalf("SaveEpisodes() failed: %v", err)
	}
	if err := store.SaveEpisodes(id, nil); err != nil {
		t.Fatalf("SaveEpisodes(nil) failed: %v", err)
	}

	got, err := store.Episodes(id)
	if err != nil {
		t.Fatalf("Episodes() failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 episodes, got %d", len(got))
	}
	for i, e := range got {
		if e.Episode != i+1 {
			t.Errorf("episodes not ordered: got[%d].Episode = %d", i, e.Episode)
		}
		if e.RunID != id {
			t.Errorf("RunID = %s, want %s", e.RunID, id)
		}
	}
	if got[0].Outcome != "won" || got[0].Reward != 17 || got[0].Exploration != 0.95 {
		t.Errorf("episode 1 = %+v", got[0])
	}

	other, err := store.Episodes("other-run")
	if err != nil {
		t.Fatalf("Episodes() failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("Expected no episodes for another run, got %d", len(other))
	}
}

func TestStorePolicies(t *testing.T) {
	store := openTestStore(t)

	if _, err := store.LoadPolicy(""); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadPolicy on empty store error = %v, want ErrNotFound", err)
	}

	first := []byte{0x00, 0x01, 0xff, 0x10}
	second := bytes.Repeat([]byte{0xab}, 4096)

	if _, err := store.SavePolicy(Policy{RunID: "run-a", Width: 9, Height: 9, Mines: 10, Entries: 2, Data: first}); err != nil {
		t.Fatalf("SavePolicy() failed: %v", err)
	}
	if _, err := store.SavePolicy(Policy{RunID: "run-b", Width: 30, Height: 16, Mines: 99, Entries: 9, Data: second}); err != nil {
		t.Fatalf("SavePolicy() failed: %v", err)
	}

	p, err := store.LoadPolicy("run-a")
	if err != nil {
		t.Fatalf("LoadPolicy(run-a) failed: %v", err)
	}
	if !bytes.Equal(p.Data, first) || p.Entries != 2 {
		t.Errorf("run-a policy = %d entries, %x", p.Entries, p.Data)
	}
	if p.Width != 9 || p.Height != 9 || p.Mines != 10 {
		t.Errorf("run-a board = %dx%d/%d, want 9x9/10", p.Width, p.Height, p.Mines)
	}

	p, err = store.LoadPolicy("")
	if err != nil {
		t.Fatalf("LoadPolicy(latest) failed: %v", err)
	}
	if p.RunID != "run-b" || !bytes.Equal(p.Data, second) {
		t.Errorf("latest policy is from %s, want run-b", p.RunID)
	}

	if _, err := store.LoadPolicy("run-c"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadPolicy(run-c) error = %v, want ErrNotFound", err)
	}
}

func TestStoreLatestPolicyMatchesBoard(t *testing.T) {
	store := openTestStore(t)

	policies := []Policy{
		{RunID: "old-beginner", Width: 9, Height: 9, Mines: 10, Entries: 1, Data: []byte{1}},
		{RunID: "expert", Width: 30, Height: 16, Mines: 99, Entries: 1, Data: []byte{2}},
		{RunID: "new-beginner", Width: 9, Height: 9, Mines: 10, Entries: 1, Data: []byte{3}},
		{RunID: "dense", Width: 9, Height: 9, Mines: 20, Entries: 1, Data: []byte{4}},
	}
	for _, p := range policies {
		if _, err := store.SavePolicy(p); err != nil {
			t.Fatalf("SavePolicy(%s) failed: %v", p.RunID, err)
		}
	}

	tests := []struct {
		width, height, mines int
		want                 string
	}{
		{9, 9, 10, "new-beginner"},
		{30, 16, 99, "expert"},
		{9, 9, 20, "dense"},
	}
	for _, tt := range tests {
		p, err := store.LatestPolicy(tt.width, tt.height, tt.mines)
		if err != nil {
			t.Fatalf("LatestPolicy(%dx%d/%d) failed: %v", tt.width, tt.height, tt.mines, err)
		}
		if p.RunID != tt.want {
			t.Errorf("LatestPolicy(%dx%d/%d) = %s, want %s", tt.width, tt.height, tt.mines, p.RunID, tt.want)
		}
	}

	if _, err := store.LatestPolicy(16, 16, 40); !errors.Is(err, ErrNotFound) {
		t.Errorf("LatestPolicy(16x16/40) error = %v, want ErrNotFound", err)
	}
}

func TestOpenAddsPolicyBoardColumns(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "old.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("sql.Open() failed: %v", err)
	}
	_, err = db.Exec(`
		CREATE TABLE policies (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			entries INTEGER NOT NULL,
			data BLOB NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		INSERT INTO policies (run_id, entries, data) VALUES ('legacy', 1, x'01');
	`)
	db.Close()
	if err != nil {
		t.Fatalf("creating old schema failed: %v", err)
	}

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	p, err := store.LoadPolicy("legacy")
	if err != nil {
		t.Fatalf("LoadPolicy(legacy) failed: %v", err)
	}
	if p.Width != 0 || p.Height != 0 || p.Mines != 0 {
		t.Errorf("legacy board = %dx%d/%d, want unknown", p.Width, p.Height, p.Mines)
	}
	if _, err := store.LatestPolicy(9, 9, 10); !errors.Is(err, ErrNotFound) {
		t.Errorf("LatestPolicy error = %v, want ErrNotFound", err)
	}
}

func TestStoreBestTimes(t *testing.T) {
	store := openTestStore(t)

	games := []Score{
		{Player: "ann", Width: 9, Height: 9, Mines: 10, Duration: 42 * time.Second, Won: true},
		{Player: "bob", Width: 9, Height: 9, Mines: 10, Duration: 15 * time.Second, Won: false},
		{Player: "cat", Width: 9, Height: 9, Mines: 10, Duration: 31500 * time.Millisecond, Won: true},
		{Player: "dan", Width: 16, Height: 16, Mines: 40, Duration: 90 * time.Second, Won: true},
		{Player: "eve", Width: 9, Height: 9, Mines: 10, Duration: 77 * time.Second, Won: true},
	}
	for _, g := range games {
		if _, err := store.SaveScore(g); err != nil {
			t.Fatalf("SaveScore() failed: %v", err)
		}
	}

	best, err := store.BestTimes(9, 9, 10, 2)
	if err != nil {
		t.Fatalf("BestTimes() failed: %v", err)
	}
	if len(best) != 2 {
		t.Fatalf("Expected 2 times with limit, got %d", len(best))
	}
	if best[0].Player != "cat" || best[0].Duration != 31500*time.Millisecond {
		t.Errorf("best = %+v, want cat at 31.5s", best[0])
	}
	if best[1].Player != "ann" || !best[1].Won {
		t.Errorf("second = %+v, want ann", best[1])
	}
}

func TestStoreAllBoardStats(t *testing.T) {
	store := openTestStore(t)

	store.SaveScore(Score{Width: 9, Height: 9, Mines: 10, Duration: 20 * time.Second, Won: true})
	store.SaveScore(Score{Width: 9, Height: 9, Mines: 10, Duration: 5 * time.Second, Won: false})
	store.SaveScore(Score{Width: 16, Height: 16, Mines: 40, Duration: 3 * time.Second, Won: false})

	stats, err := store.AllBoardStats()
	if err != nil {
		t.Fatalf("AllBoardStats() failed: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("Expected stats for 2 boards, got %d", len(stats))
	}

	// Largest board first
	if stats[0].Width != 16 || stats[0].Games != 1 || stats[0].Wins != 0 || stats[0].BestTime != 0 {
		t.Errorf("16x16 stats = %+v", stats[0])
	}
	if stats[1].Games != 2 || stats[1].Wins != 1 || stats[1].BestTime != 20*time.Second {
		t.Errorf("9x9 stats = %+v", stats[1])
	}
}

func TestStoreExpandHomePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := Open("~/subdir/deep/test.db")
	if err != nil {
		t.Fatalf("Open() with ~ path failed: %v", err)
	}
	defer store.Close()

	// Verify nested directories were created under home
	if _, err := os.Stat(filepath.Join(home, "subdir", "deep", "test.db")); os.IsNotExist(err) {
		t.Error("Database file was not created under the home directory")
	}
}
