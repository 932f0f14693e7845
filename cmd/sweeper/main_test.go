package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/sweeper/internal/agent"
	"github.com/vovakirdan/sweeper/internal/config"
	"github.com/vovakirdan/sweeper/internal/env"
	"github.com/vovakirdan/sweeper/internal/minesweeper"
	"github.com/vovakirdan/sweeper/internal/storage"
	"github.com/vovakirdan/sweeper/internal/trainer"
)

func setFlags(t *testing.T, preset string, seed int64, db, level string) {
	t.Helper()
	flagPreset, flagSeed, flagDBPath, flagLogLevel = preset, seed, db, level
	t.Cleanup(func() {
		flagPreset, flagSeed, flagDBPath, flagLogLevel = "", 0, "", ""
	})
}

func TestApplyGlobalFlags(t *testing.T) {
	setFlags(t, "expert", 42, "/tmp/x.db", "debug")

	cfg, err := applyGlobalFlags(config.Default())
	require.NoError(t, err)
	assert.Equal(t, config.BoardConfig{Width: 30, Height: 16, Mines: 99, SafeRadius: 2, Seed: 42}, cfg.Board)
	assert.Equal(t, "/tmp/x.db", cfg.Paths.Database)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestApplyGlobalFlagsKeepsConfigWhenUnset(t *testing.T) {
	setFlags(t, "", 0, "", "")

	cfg, err := applyGlobalFlags(config.Default())
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestApplyGlobalFlagsRejectsBadValues(t *testing.T) {
	setFlags(t, "huge", 0, "", "")
	_, err := applyGlobalFlags(config.Default())
	assert.ErrorContains(t, err, "unknown preset")

	setFlags(t, "", 0, "", "loud")
	_, err = applyGlobalFlags(config.Default())
	assert.ErrorContains(t, err, "log: unknown level")
}

func TestSettingsConversions(t *testing.T) {
	cfg := config.Default()
	cfg.Board.Seed = 9

	assert.Equal(t, env.Config{Width: 9, Height: 9, Mines: 10, Seed: 9}, envConfig(cfg))
	assert.Equal(t, agent.DefaultParams(), agentParams(cfg))

	tc := trainerConfig(cfg)
	assert.Equal(t, cfg.Training.Episodes, tc.Episodes)
	assert.Equal(t, cfg.Training.Workers, tc.Workers)
	assert.Equal(t, cfg.Eval.Exploration, tc.EvalExploration)
	assert.NoError(t, tc.Validate())
}

func TestEnvOptionsCarrySafeRadius(t *testing.T) {
	cfg := config.Default()
	cfg.Board.SafeRadius = 1

	e, err := envFactory(envConfig(cfg), envOptions(cfg)...)(0)
	require.NoError(t, err)
	assert.Equal(t, 1, e.Board().SafeRadius())
}

func TestEnvFactoryOffsetsSeedPerWorker(t *testing.T) {
	factory := envFactory(env.Config{Width: 8, Height: 8, Mines: 10, Seed: 5})

	mines := func(worker int) []minesweeper.Point {
		e, err := factory(worker)
		require.NoError(t, err)
		_, err = e.Step(env.Action{X: 0, Y: 0, Kind: env.Reveal})
		require.NoError(t, err)

		var pts []minesweeper.Point
		for _, tile := range e.Board().Snapshot().Tiles {
			if tile.Mine {
				pts = append(pts, tile.Pos())
			}
		}
		require.Len(t, pts, 10)
		return pts
	}

	assert.Equal(t, mines(0), mines(0), "same worker replays the same board")
	assert.NotEqual(t, mines(0), mines(1))
}

func TestBucketEpisodes(t *testing.T) {
	var episodes []storage.Episode
	for i := 1; i <= 25; i++ {
		outcome := trainer.OutcomeLost.String()
		if i > 20 {
			outcome = trainer.OutcomeWon.String()
		}
		episodes = append(episodes, storage.Episode{Episode: i, Steps: 2, Reward: 1, Outcome: outcome, Exploration: 1 / float64(i)})
	}

	buckets := bucketEpisodes(episodes, 5)
	require.Len(t, buckets, 5)
	total := 0
	for _, b := range buckets {
		total += b.summary.Episodes
		assert.Equal(t, 5, b.summary.Episodes)
	}
	assert.Equal(t, 25, total)
	assert.Equal(t, 1, buckets[0].first)
	assert.Equal(t, 5, buckets[0].last)
	assert.Zero(t, buckets[0].summary.WinRate())
	assert.Equal(t, 1.0, buckets[4].summary.WinRate())
	assert.Equal(t, 1/25.0, buckets[4].summary.FinalExploration)

	assert.Len(t, bucketEpisodes(episodes[:3], 10), 3)
	assert.Nil(t, bucketEpisodes(nil, 10))
}

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

var (
	smallShape = agent.Shape{Width: 3, Height: 2, Mines: 1}
	wideShape  = agent.Shape{Width: 4, Height: 2, Mines: 1}
	smallState = strings.Repeat("\x00", 6)
	flagAction = env.Action{X: 1, Y: 1, Kind: env.Flag}
)

func tableWith(t *testing.T, value float64, shape agent.Shape) *agent.Table {
	t.Helper()
	table := agent.NewTable()
	table.SetShape(shape)
	state := strings.Repeat("\x00", shape.Width*shape.Height)
	table.Update(state, flagAction, func(float64) float64 { return value })
	return table
}

func savePolicy(t *testing.T, store *storage.Store, runID string, table *agent.Table) {
	t.Helper()
	data, err := table.MarshalBinary()
	require.NoError(t, err)
	shape := table.Shape()
	_, err = store.SavePolicy(storage.Policy{
		RunID:   runID,
		Width:   shape.Width,
		Height:  shape.Height,
		Mines:   shape.Mines,
		Entries: table.Len(),
		Data:    data,
	})
	require.NoError(t, err)
}

func TestLoadTableSources(t *testing.T) {
	store := openStore(t)
	savePolicy(t, store, "run-a", tableWith(t, 1, smallShape))
	savePolicy(t, store, "run-b", tableWith(t, 2, smallShape))

	missing := filepath.Join(t.TempDir(), "missing.gob")

	// Missing file falls back to the newest policy
	table, source, err := loadTable(store, "", missing, smallShape)
	require.NoError(t, err)
	assert.Equal(t, "run run-b", source)
	assert.Equal(t, 2.0, table.Value(smallState, flagAction))

	// A run ID wins over the file
	table, _, err = loadTable(store, "run-a", missing, smallShape)
	require.NoError(t, err)
	assert.Equal(t, 1.0, table.Value(smallState, flagAction))

	// An existing file is used as is
	path := filepath.Join(t.TempDir(), "q.gob")
	require.NoError(t, tableWith(t, 3, smallShape).SaveFile(path))
	table, source, err = loadTable(store, "", path, smallShape)
	require.NoError(t, err)
	assert.Equal(t, path, source)
	assert.Equal(t, 3.0, table.Value(smallState, flagAction))

	_, _, err = loadTable(nil, "", missing, smallShape)
	assert.Error(t, err)
	_, _, err = loadTable(store, "run-c", missing, smallShape)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLoadTableRejectsOtherBoards(t *testing.T) {
	store := openStore(t)
	savePolicy(t, store, "small", tableWith(t, 1, smallShape))
	savePolicy(t, store, "wide", tableWith(t, 2, wideShape))
	missing := filepath.Join(t.TempDir(), "missing.gob")

	// The newest policy is for the wide board, but the small one matches
	table, source, err := loadTable(store, "", missing, smallShape)
	require.NoError(t, err)
	assert.Equal(t, "run small", source)
	assert.Equal(t, smallShape, table.Shape())

	_, _, err = loadTable(store, "", missing, agent.Shape{Width: 9, Height: 9, Mines: 10})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, _, err = loadTable(store, "wide", missing, smallShape)
	assert.ErrorIs(t, err, agent.ErrShapeMismatch)

	path := filepath.Join(t.TempDir(), "q.gob")
	require.NoError(t, tableWith(t, 3, wideShape).SaveFile(path))
	_, _, err = loadTable(store, "", path, smallShape)
	assert.ErrorIs(t, err, agent.ErrShapeMismatch)

	// Same cell count, different mine count
	_, _, err = loadTable(store, "", path, agent.Shape{Width: 4, Height: 2, Mines: 2})
	assert.ErrorIs(t, err, agent.ErrShapeMismatch)
}

func TestEpisodeRecorderBatches(t *testing.T) {
	store := openStore(t)
	rec := newEpisodeRecorder(store, "run-x")

	for i := 1; i <= episodeBatch+50; i++ {
		rec.observe(trainer.EpisodeResult{Episode: i, Steps: 3, Outcome: trainer.OutcomeWon})
	}

	saved, err := store.Episodes("run-x")
	require.NoError(t, err)
	assert.Len(t, saved, episodeBatch, "first batch written when full")

	require.NoError(t, rec.flush())
	saved, err = store.Episodes("run-x")
	require.NoError(t, err)
	assert.Len(t, saved, episodeBatch+50)
	assert.Equal(t, "won", saved[0].Outcome)
}
