package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltz-checkout/cycle-ladder/internal/model"
	"github.com/voltz-checkout/cycle-ladder/internal/repository"
	"github.com/voltz-checkout/cycle-ladder/internal/testutil"
)

// testApp wires an App backed by an in-memory DB for CLI integration tests.
func testApp(t *testing.T) (*App, *repository.SQLiteLadderRepo) {
	t.Helper()
	repo := repository.NewSQLiteLadderRepo(testutil.NewTestDB(t))
	return &App{Ladders: repo}, repo
}

func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func showJSON(t *testing.T, app *App, args ...string) model.Ladder {
	t.Helper()
	out, err := executeCmd(t, app, append([]string{"show", "--json"}, args...)...)
	require.NoError(t, err)
	var l model.Ladder
	require.NoError(t, json.Unmarshal([]byte(out), &l))
	return l
}

func TestShow_DefaultLadder(t *testing.T) {
	app, _ := testApp(t)

	out, err := executeCmd(t, app, "show")
	require.NoError(t, err)

	for _, want := range []string{"ID", "CYCLE", "5000", "50001", "∞", "500"} {
		assert.Contains(t, out, want)
	}
}

func TestShow_ActiveWithoutSave(t *testing.T) {
	app, _ := testApp(t)

	_, err := executeCmd(t, app, "show", "--active")
	assert.ErrorContains(t, err, "no saved ladder")
}

func TestAdd_StoresDraft(t *testing.T) {
	app, repo := testApp(t)

	_, err := executeCmd(t, app, "add")
	require.NoError(t, err)

	stored, err := repo.Get(context.Background(), DefaultAccount, repository.SlotDraft)
	require.NoError(t, err)
	require.Len(t, stored.Bands, 6)
	assert.Equal(t, 70000.0, *stored.Bands[4].MaxRevenue)
	assert.Equal(t, 70001.0, stored.Bands[5].MinRevenue)

	_, err = repo.Get(context.Background(), DefaultAccount, repository.SlotActive)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRemove(t *testing.T) {
	app, _ := testApp(t)

	_, err := executeCmd(t, app, "remove", "5")
	require.NoError(t, err)

	l := showJSON(t, app)
	require.Len(t, l, 4)
	assert.Nil(t, l[3].MaxRevenue)

	_, err = executeCmd(t, app, "remove", "nope")
	assert.ErrorIs(t, err, model.ErrBandNotFound)
}

func TestSet_AndValidate(t *testing.T) {
	app, _ := testApp(t)

	_, err := executeCmd(t, app, "set", "2", "minRevenue", "4000")
	require.NoError(t, err, "edits are stored without validation")

	_, err = executeCmd(t, app, "validate")
	require.ErrorIs(t, err, model.ErrOverlappingRanges)
	assert.Equal(t, "As faixas de faturamento não podem se sobrepor", err.Error())

	_, err = executeCmd(t, app, "set", "2", "minRevenue", "5001")
	require.NoError(t, err)

	out, err := executeCmd(t, app, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "ladder is valid")
}

func TestSet_EmptyMaxMakesUnbounded(t *testing.T) {
	app, _ := testApp(t)

	_, err := executeCmd(t, app, "set", "3", "maxRevenue", "")
	require.NoError(t, err)

	l := showJSON(t, app)
	assert.Nil(t, l[2].MaxRevenue)
}

func TestSet_Errors(t *testing.T) {
	app, _ := testApp(t)

	_, err := executeCmd(t, app, "set", "2", "cycle", "10")
	assert.ErrorIs(t, err, model.ErrUnknownField)

	_, err = executeCmd(t, app, "set", "2", "minRevenue")
	assert.Error(t, err)
}

func TestSave(t *testing.T) {
	app, repo := testApp(t)
	ctx := context.Background()

	_, err := executeCmd(t, app, "add")
	require.NoError(t, err)

	out, err := executeCmd(t, app, "save")
	require.NoError(t, err)
	assert.Contains(t, out, SaveSuccessMessage)
	assert.Contains(t, out, "sqlite revision 1")

	stored, err := repo.Get(ctx, DefaultAccount, repository.SlotActive)
	require.NoError(t, err)
	assert.Len(t, stored.Bands, 6)

	out, err = executeCmd(t, app, "save")
	require.NoError(t, err)
	assert.Contains(t, out, "unchanged")

	stored, err = repo.Get(ctx, DefaultAccount, repository.SlotActive)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Revision)
}

func TestSave_RejectsInvalidDraft(t *testing.T) {
	app, repo := testApp(t)

	_, err := executeCmd(t, app, "set", "3", "maxRevenue", "10000")
	require.NoError(t, err)

	_, err = executeCmd(t, app, "save")
	require.ErrorIs(t, err, model.ErrInvertedRange)

	_, err = repo.Get(context.Background(), DefaultAccount, repository.SlotActive)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	l := showJSON(t, app)
	assert.Equal(t, 10000.0, *l[2].MaxRevenue, "draft keeps the invalid edit")
}

func TestReset(t *testing.T) {
	app, _ := testApp(t)

	_, err := executeCmd(t, app, "remove", "1")
	require.NoError(t, err)
	_, err = executeCmd(t, app, "save")
	require.NoError(t, err)
	_, err = executeCmd(t, app, "add")
	require.NoError(t, err)
	require.Len(t, showJSON(t, app), 5)

	_, err = executeCmd(t, app, "reset")
	require.NoError(t, err)
	assert.Len(t, showJSON(t, app), 4)
	assert.Len(t, showJSON(t, app, "--active"), 4)
}

func TestReset_NeverSaved(t *testing.T) {
	app, _ := testApp(t)

	_, err := executeCmd(t, app, "add")
	require.NoError(t, err)

	_, err = executeCmd(t, app, "reset")
	require.NoError(t, err)
	assert.Len(t, showJSON(t, app), 5)
}

func TestCycle(t *testing.T) {
	app, _ := testApp(t)

	out, err := executeCmd(t, app, "cycle", "16000")
	require.NoError(t, err)
	assert.Contains(t, out, "band 3: cycle value 300")

	_, err = executeCmd(t, app, "cycle", "-1")
	assert.ErrorContains(t, err, "non-negative")

	_, err = executeCmd(t, app, "cycle", "lots")
	assert.ErrorContains(t, err, "non-negative")
}

func TestCycle_NonFiniteRevenue(t *testing.T) {
	app, _ := testApp(t)

	for _, arg := range []string{"NaN", "Inf", "+Inf", "-Inf"} {
		out, err := executeCmd(t, app, "cycle", arg)
		assert.ErrorContains(t, err, "non-negative", "revenue %q", arg)
		assert.NotContains(t, out, "cycle value", "revenue %q", arg)
	}
}

func TestCycle_UsesSavedLadder(t *testing.T) {
	app, _ := testApp(t)

	_, err := executeCmd(t, app, "save")
	require.NoError(t, err)
	_, err = executeCmd(t, app, "set", "3", "cycleValue", "999")
	require.NoError(t, err)

	out, err := executeCmd(t, app, "cycle", "16000")
	require.NoError(t, err)
	assert.Contains(t, out, "cycle value 300")
}

func TestAccountFlagIsolatesLadders(t *testing.T) {
	app, _ := testApp(t)

	_, err := executeCmd(t, app, "--account", "store-a", "add")
	require.NoError(t, err)

	assert.Len(t, showJSON(t, app, "--account", "store-a"), 6)
	assert.Len(t, showJSON(t, app, "--account", "store-b"), 5)
}

func TestOpenLaddersUsesDBFlag(t *testing.T) {
	var gotPath string
	repo := repository.NewSQLiteLadderRepo(testutil.NewTestDB(t))
	app := &App{OpenLadders: func(path string) (repository.LadderRepo, error) {
		gotPath = path
		return repo, nil
	}}

	_, err := executeCmd(t, app, "--db", "/tmp/ladders.db", "show")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ladders.db", gotPath)
}

func TestOpenLaddersFailure(t *testing.T) {
	app := &App{OpenLadders: func(string) (repository.LadderRepo, error) {
		return nil, errors.New("disk full")
	}}

	_, err := executeCmd(t, app, "show")
	assert.ErrorContains(t, err, "disk full")
}
