package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunCommand_EndToEnd_PrintsSortedStatuses(t *testing.T) {
	graphPath := filepath.Join(t.TempDir(), "graph.json")
	b, err := json.Marshal(map[string]any{
		"tasks": []map[string]any{
			{"name": "b-task", "argv": []string{"/bin/sh", "-c", "exit 0"}, "cores": 1, "memory": "8m"},
			{"name": "a-task", "argv": []string{"/bin/sh", "-c", "exit 0"}, "cores": 1, "memory": "8m"},
		},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(graphPath, b, 0o644))

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"run", "--graph", graphPath, "--cores", "2", "--memory", "64m"})

	require.NoError(t, root.Execute())
	require.Equal(t, "a-task\tSUCCEEDED\nb-task\tSUCCEEDED\n", out.String())
}

func TestRunCommand_MissingGraphFlag_FailsInvalidInvocation(t *testing.T) {
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"run", "--cores", "1"})

	err := root.Execute()
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, ExitInvalidInvocation, exitErr.Code)
}

func TestRunCommand_EnvVarOverridesDefault(t *testing.T) {
	graphPath := filepath.Join(t.TempDir(), "graph.json")
	b, err := json.Marshal(map[string]any{
		"tasks": []map[string]any{
			{"name": "only", "argv": []string{"/bin/sh", "-c", "exit 0"}, "cores": 1, "memory": "8m"},
		},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(graphPath, b, 0o644))

	t.Setenv("WFENGINE_CORES", "4")

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"run", "--graph", graphPath, "--memory", "64m"})

	require.NoError(t, root.Execute())
	require.Equal(t, "only\tSUCCEEDED\n", out.String())

	runCmd, _, err := root.Find([]string{"run"})
	require.NoError(t, err)
	cores, err := runCmd.Flags().GetFloat64("cores")
	require.NoError(t, err)
	require.Equal(t, 4.0, cores)
}
