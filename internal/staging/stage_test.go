package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, path, content string, modTime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
}

func TestTraverse_FindsFilesByExtension(t *testing.T) {
	root := t.TempDir()
	modTime := time.Date(2023, time.June, 1, 8, 0, 0, 0, time.UTC)
	writeFile(t, filepath.Join(root, "source=IN", "order_2023.csv"), "a", modTime)
	writeFile(t, filepath.Join(root, "source=IN", "nested", "order_2024.csv"), "b", modTime)
	writeFile(t, filepath.Join(root, "source=US", "order_2023.json"), "c", modTime)
	writeFile(t, filepath.Join(root, "notes.txt"), "d", modTime)

	files, err := Traverse(root, ".csv")
	require.NoError(t, err)
	require.Len(t, files, 2)

	byName := map[string]File{}
	for _, f := range files {
		byName[f.Name] = f
	}
	assert.Equal(t, "source=IN", byName["order_2023.csv"].Partition)
	assert.Equal(t, filepath.Join("source=IN", "nested"), byName["order_2024.csv"].Partition)
	assert.True(t, byName["order_2023.csv"].ModTime.Equal(modTime))
}

func TestTraverse_RootLevelFileHasEmptyPartition(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "order.csv"), "a", time.Now())

	files, err := Traverse(root, ".csv")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Empty(t, files[0].Partition)
}

func TestTraverse_MissingDirectoryYieldsNoFiles(t *testing.T) {
	files, err := Traverse(filepath.Join(t.TempDir(), "absent"), ".csv")
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestLocalStage_PutCopiesAndPreservesModTime(t *testing.T) {
	srcDir, stageDir := t.TempDir(), t.TempDir()
	modTime := time.Date(2023, time.June, 1, 8, 0, 0, 0, time.UTC)
	srcPath := filepath.Join(srcDir, "order_2023.csv")
	writeFile(t, srcPath, "payload", modTime)

	stage := NewLocalStage(stageDir, zap.NewNop())
	file := File{Name: "order_2023.csv", Path: srcPath, ModTime: modTime}

	res := stage.Put(context.Background(), file, "sales/source=IN", UploadOptions{})
	require.NoError(t, res.Err)
	assert.Equal(t, StatusUploaded, res.Status)

	dest := filepath.Join(stageDir, "sales/source=IN", "order_2023.csv")
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(modTime))
}

func TestLocalStage_PutSkipsExistingWithoutOverwrite(t *testing.T) {
	srcDir, stageDir := t.TempDir(), t.TempDir()
	srcPath := filepath.Join(srcDir, "order.csv")
	writeFile(t, srcPath, "new", time.Now())
	writeFile(t, filepath.Join(stageDir, "p", "order.csv"), "old", time.Now())

	stage := NewLocalStage(stageDir, zap.NewNop())
	file := File{Name: "order.csv", Path: srcPath, ModTime: time.Now()}

	res := stage.Put(context.Background(), file, "p", UploadOptions{Overwrite: false})
	assert.Equal(t, StatusSkipped, res.Status)

	data, err := os.ReadFile(filepath.Join(stageDir, "p", "order.csv"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	res = stage.Put(context.Background(), file, "p", UploadOptions{Overwrite: true})
	assert.Equal(t, StatusUploaded, res.Status)

	data, err = os.ReadFile(filepath.Join(stageDir, "p", "order.csv"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestLocalStage_PutReportsMissingSource(t *testing.T) {
	stage := NewLocalStage(t.TempDir(), zap.NewNop())
	file := File{Name: "gone.csv", Path: filepath.Join(t.TempDir(), "gone.csv"), ModTime: time.Now()}

	res := stage.Put(context.Background(), file, "p", UploadOptions{})
	assert.Equal(t, StatusFailed, res.Status)
	assert.Error(t, res.Err)
}

func TestUploadAll_ContinuesPastFailures(t *testing.T) {
	srcDir, stageDir := t.TempDir(), t.TempDir()
	okPath := filepath.Join(srcDir, "ok.csv")
	writeFile(t, okPath, "x", time.Now())

	files := []File{
		{Name: "gone.csv", Partition: "p", Path: filepath.Join(srcDir, "gone.csv"), ModTime: time.Now()},
		{Name: "ok.csv", Partition: "p", Path: okPath, ModTime: time.Now()},
	}

	stage := NewLocalStage(stageDir, zap.NewNop())
	results := UploadAll(context.Background(), stage, files, UploadOptions{Parallel: 2}, zap.NewNop())

	require.Len(t, results, 2)
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.Equal(t, StatusUploaded, results[1].Status)

	_, err := os.Stat(filepath.Join(stageDir, "p", "ok.csv"))
	assert.NoError(t, err)
}
