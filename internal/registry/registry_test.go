package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/kilnforge/kiln/internal/types"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func testRecord(t *testing.T, name string) *Record {
	t.Helper()

	deployer, err := types.HexToAddress("0101010101010101010101010101010101010101")
	require.NoError(t, err)
	return &Record{
		Name:            name,
		ABI:             json.RawMessage(`[{"type":"function","name":"add","inputs":[],"outputs":[]}]`),
		DeployerAddress: deployer,
	}
}

func TestPutGet(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	rec := testRecord(t, "Adder")
	require.NoError(t, store.Put(rec))

	got, err := store.Get("Adder")
	require.NoError(t, err)
	require.Equal(t, rec.Name, got.Name)
	require.JSONEq(t, string(rec.ABI), string(got.ABI))
	require.Equal(t, rec.DeployerAddress, got.DeployerAddress)
	require.True(t, got.DeployedAddress.IsEmpty())
}

func TestGetNotFound(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	_, err := store.Get("Missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileFormat(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	rec := testRecord(t, "Adder")
	deployed, err := types.HexToAddress("0202020202020202020202020202020202020202")
	require.NoError(t, err)
	rec.DeployedAddress = deployed
	require.NoError(t, store.Put(rec))

	data, err := os.ReadFile(filepath.Join(dir, "Adder.contract"))
	require.NoError(t, err)

	expected := `ABI~[{"type":"function","name":"add","inputs":[],"outputs":[]}]
ADDRESS~0101010101010101010101010101010101010101
CONTRACT_ADDRESS~0202020202020202020202020202020202020202
`
	require.Equal(t, expected, string(data))
}

func TestSetDeployedAddress(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	rec := testRecord(t, "Adder")
	require.NoError(t, store.Put(rec))

	deployed, err := types.HexToAddress("0303030303030303030303030303030303030303")
	require.NoError(t, err)
	require.NoError(t, store.SetDeployedAddress("Adder", deployed))

	got, err := store.Get("Adder")
	require.NoError(t, err)
	require.Equal(t, deployed, got.DeployedAddress)

	// The update must not clobber what was recorded at deploy time.
	require.JSONEq(t, string(rec.ABI), string(got.ABI))
	require.Equal(t, rec.DeployerAddress, got.DeployerAddress)

	require.ErrorIs(t, store.SetDeployedAddress("Missing", deployed), ErrNotFound)
}

func TestUnknownLinesSurviveRewrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	rec := testRecord(t, "Adder")
	require.NoError(t, store.Put(rec))

	// Another tool annotates the record with a key we do not model.
	path := filepath.Join(dir, "Adder.contract")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, append(data, "NOTE~audited\n"...), 0o644))

	deployed, err := types.HexToAddress("0303030303030303030303030303030303030303")
	require.NoError(t, err)
	require.NoError(t, store.SetDeployedAddress("Adder", deployed))

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "NOTE~audited\n")
	require.Contains(t, string(data), "CONTRACT_ADDRESS~0303030303030303030303030303030303030303\n")
}

func TestList(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	require.NoError(t, store.Put(testRecord(t, "Beta")))
	require.NoError(t, store.Put(testRecord(t, "Alpha")))

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "Alpha", records[0].Name)
	require.Equal(t, "Beta", records[1].Name)
}

func TestInvalidNames(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	for _, name := range []string{"", "a/b", `a\b`, "../escape"} {
		require.Error(t, store.Put(testRecord(t, name)), "name %q", name)
	}
}
