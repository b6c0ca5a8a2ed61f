package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"wfengine/internal/resource"
	"wfengine/internal/task"
)

// graphFile is the on-disk JSON shape: a flat task list plus explicit
// edges, grounded on the teacher's internal/cli/graph.go loader (the
// deterministic DisallowUnknownFields + reject-trailing-data loading
// discipline is carried over verbatim; the task/edge schema itself is
// rewritten for this engine's Process-task-only CLI surface).
type graphFile struct {
	Tasks []taskSpec `json:"tasks"`
	Edges []edgeSpec `json:"edges"`
}

type taskSpec struct {
	Name       string   `json:"name"`
	Argv       []string `json:"argv"`
	Cores      float64  `json:"cores"`
	Memory     string   `json:"memory"`
	DiskMemory string   `json:"diskMemory"`
}

type edgeSpec struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// LoadGraph reads a JSON graph file and returns its tasks in file order
// (the order they are passed to AddTasks; a task's declared successors
// are inserted together with it, so ids, and with them the tie-break
// order of spec.md §4.4, follow file order only for tasks not already
// reached as a successor of an earlier one) plus a name->Task lookup
// for reporting.
//
// Every task declared here is a Process task: the declarative graph
// file has no way to express an in-process callback or a composite's
// build() function, so those remain Go-API-only task kinds (spec.md
// §4.7: the CLI is "an external collaborator," not a full surface for
// every task kind).
func LoadGraph(path string) ([]task.Task, map[string]task.Task, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, graphFailuref("read graph: %v", err)
	}

	var gf graphFile
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&gf); err != nil {
		return nil, nil, graphFailuref("parse graph json: %v", err)
	}
	var trailing any
	if err := dec.Decode(&trailing); err != io.EOF {
		if err == nil {
			return nil, nil, graphFailuref("parse graph json: trailing data")
		}
		return nil, nil, graphFailuref("parse graph json: %v", err)
	}
	if len(gf.Tasks) == 0 {
		return nil, nil, graphFailuref("parse graph json: no tasks")
	}

	byName := make(map[string]task.Task, len(gf.Tasks))
	tasks := make([]task.Task, 0, len(gf.Tasks))
	for _, ts := range gf.Tasks {
		if ts.Name == "" {
			return nil, nil, graphFailuref("task missing name")
		}
		if _, dup := byName[ts.Name]; dup {
			return nil, nil, graphFailuref("duplicate task name %q", ts.Name)
		}
		if len(ts.Argv) == 0 {
			return nil, nil, graphFailuref("task %q: argv must not be empty", ts.Name)
		}
		rs, err := taskResources(ts)
		if err != nil {
			return nil, nil, graphFailuref("task %q: %v", ts.Name, err)
		}
		argv := ts.Argv
		t := task.NewProcess(ts.Name, rs, func() []string { return argv })
		byName[ts.Name] = t
		tasks = append(tasks, t)
	}

	for _, e := range gf.Edges {
		from, ok := byName[e.From]
		if !ok {
			return nil, nil, graphFailuref("edge references unknown task %q", e.From)
		}
		to, ok := byName[e.To]
		if !ok {
			return nil, nil, graphFailuref("edge references unknown task %q", e.To)
		}
		task.G(from).Then(to)
	}

	return tasks, byName, nil
}

func taskResources(ts taskSpec) (resource.Set, error) {
	mem, err := resource.ParseBytes(ts.Memory)
	if err != nil {
		return resource.Set{}, fmt.Errorf("memory %q: %w", ts.Memory, err)
	}
	var disk resource.Bytes
	if ts.DiskMemory != "" {
		disk, err = resource.ParseBytes(ts.DiskMemory)
		if err != nil {
			return resource.Set{}, fmt.Errorf("diskMemory %q: %w", ts.DiskMemory, err)
		}
	}
	return resource.Set{Cores: resource.Cores(ts.Cores), Memory: mem, DiskMemory: disk}, nil
}
