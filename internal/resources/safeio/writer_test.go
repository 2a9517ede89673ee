package safeio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSafeWriteCreatesNewFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gate.yaml")

	require.NoError(t, SafeWrite(path, []byte("id: g1\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "id: g1\n", string(data))
	require.NoFileExists(t, path+".tmp")
	require.NoFileExists(t, path+".bak")
}

func TestSafeWriteOverwritesAndCleansBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("id: g1\nname: old\n"), 0o644))

	require.NoError(t, SafeWrite(path, []byte("id: g1\nname: new\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "id: g1\nname: new\n", string(data))
	require.NoFileExists(t, path+".bak")
	require.NoFileExists(t, path+".tmp")
}

func TestTransactionRollsBackOnFailure(t *testing.T) {
	var order []string

	steps := []Step{
		func() (any, error) { order = append(order, "step1"); return nil, nil },
		func() (any, error) { order = append(order, "step2"); return nil, nil },
		func() (any, error) { return nil, errors.New("boom") },
	}
	rollbacks := []Rollback{
		func() { order = append(order, "rollback1") },
		func() { order = append(order, "rollback2") },
		nil,
	}

	_, err := Transaction(steps, rollbacks)
	require.Error(t, err)
	require.Equal(t, []string{"step1", "step2", "rollback2", "rollback1"}, order)
}

func TestTransactionReturnsFinalStepResultOnSuccess(t *testing.T) {
	steps := []Step{
		func() (any, error) { return "first", nil },
		func() (any, error) { return "final", nil },
	}

	result, err := Transaction(steps, nil)
	require.NoError(t, err)
	require.Equal(t, "final", result)
}
