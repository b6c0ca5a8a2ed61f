package runner

import (
	"fmt"
	"path/filepath"
)

// Paths derives the scriptPath/logPath pair for one attempt
// deterministically from the node id and attempt index, so two runs of
// the same graph against the same working directory produce the same
// paths (spec.md §3, elaborated in SPEC_FULL.md §3).
func Paths(workDir string, id, attempt int) (scriptPath, logPath string) {
	base := filepath.Join(workDir, fmt.Sprintf("%d-%d", id, attempt))
	return base + ".argv", base + ".log"
}
