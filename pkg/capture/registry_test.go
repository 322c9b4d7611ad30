// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rigerrors "github.com/prisma-rig/prisma-control/pkg/errors"
)

func writeRun(t *testing.T, root, id, metadata string) string {
	t.Helper()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	if metadata != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.json"), []byte(metadata), 0o644))
	}
	return dir
}

func TestValidateID(t *testing.T) {
	for _, id := range []string{"20240501T101500Z", "20240501T101500Z-0002", "custom_run"} {
		assert.NoError(t, ValidateID(id), id)
	}
	for _, id := range []string{"", ".", "..", "../etc", "a/b", "a\\b", "a\x00b", "/abs"} {
		err := ValidateID(id)
		require.Error(t, err, id)
		assert.True(t, rigerrors.IsCode(err, rigerrors.ErrCodeInvalidRequest), id)
	}
}

func TestRegistryListMissingRoot(t *testing.T) {
	reg := NewRegistry(filepath.Join(t.TempDir(), "absent"))

	runs, err := reg.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestRegistryListSkipsIncompleteEntries(t *testing.T) {
	root := t.TempDir()
	writeRun(t, root, "20240501T101500Z", `{"timestamp":"20240501T101500Z","title":"done"}`)
	writeRun(t, root, "20240501T101501Z", "")
	writeRun(t, root, "20240501T101502Z", `{not json`)
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray.txt"), []byte("x"), 0o644))

	reg := NewRegistry(root)
	runs, err := reg.List(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)

	title, _ := runs[0].Get("title")
	assert.Equal(t, "done", title)
}

func TestRegistryListCancelled(t *testing.T) {
	root := t.TempDir()
	writeRun(t, root, "a", `{"title":"a"}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRegistry(root).List(ctx)
	require.Error(t, err)
	assert.True(t, rigerrors.IsCode(err, rigerrors.ErrCodeTimeout))
}

func TestRegistryLoad(t *testing.T) {
	root := t.TempDir()
	writeRun(t, root, "complete", `{"timestamp":"complete","title":"t","rpm":10}`)
	writeRun(t, root, "pending", "")

	reg := NewRegistry(root)
	assert.Equal(t, root, reg.Root())
	assert.True(t, reg.IsComplete("complete"))
	assert.False(t, reg.IsComplete("pending"))
	assert.False(t, reg.IsComplete("missing"))
	assert.False(t, reg.IsComplete(".."))

	md, err := reg.Load("complete")
	require.NoError(t, err)
	assert.Equal(t, []string{"timestamp", "title", "rpm"}, md.Keys())

	_, err = reg.Load("pending")
	assert.True(t, rigerrors.IsCode(err, rigerrors.ErrCodeNotFound))

	_, err = reg.Load("../x")
	assert.True(t, rigerrors.IsCode(err, rigerrors.ErrCodeInvalidRequest))

	p, err := reg.Path("complete")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "complete"), p)
}

func TestRegistrySeesCompletedCapture(t *testing.T) {
	r := newRig(t)

	run, err := r.scheduler.Start(context.Background(), mustRequest(t, `{"duration":1,"title":"t"}`))
	require.NoError(t, err)
	r.timer.waitArmed(t, 1)
	assert.False(t, r.registry.IsComplete(run.ID))

	r.timer.fire()
	r.executor.Wait()
	assert.True(t, r.registry.IsComplete(run.ID))
}

func TestRegistryListFollowsSymlinkedRuns(t *testing.T) {
	root := t.TempDir()
	elsewhere := writeRun(t, t.TempDir(), "20240501T101500Z", `{"timestamp":"20240501T101500Z","title":"linked"}`)
	require.NoError(t, os.Symlink(elsewhere, filepath.Join(root, "20240501T101500Z")))

	reg := NewRegistry(root)
	require.True(t, reg.IsComplete("20240501T101500Z"))

	runs, err := reg.List(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	title, _ := runs[0].Get("title")
	assert.Equal(t, "linked", title)
}

func TestRegistryListKeepsCreationOrderWithinSecond(t *testing.T) {
	r := newRig(t)

	const n = 11
	want := make([]string, 0, n)
	for i := 0; i < n; i++ {
		title := fmt.Sprintf("r%d", i)
		run, err := r.scheduler.Start(context.Background(), mustRequest(t, fmt.Sprintf(`{"duration":1,"title":%q}`, title)))
		require.NoError(t, err)
		if i == 0 {
			assert.Equal(t, "20240501T101500Z", run.ID)
		} else {
			assert.Equal(t, fmt.Sprintf("20240501T101500Z-%04d", i+1), run.ID)
		}
		want = append(want, title)
	}
	r.timer.waitArmed(t, n)
	r.timer.fire()
	r.executor.Wait()

	runs, err := r.registry.List(context.Background())
	require.NoError(t, err)
	got := make([]string, 0, len(runs))
	for _, md := range runs {
		title, _ := md.Get("title")
		got = append(got, fmt.Sprint(title))
	}
	assert.Equal(t, want, got)
}
