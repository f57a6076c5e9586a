package main

import (
	"os"
	"strconv"
	"strings"

	"onboarding-cli/internal/cli"
)

// taskRef reports whether s names a checklist task ("3" or "task-3") and returns its number.
func taskRef(s string) (string, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "task-")
	if s == "" {
		return "", false
	}
	if _, err := strconv.Atoi(s); err != nil {
		return "", false
	}
	return s, true
}

func rewriteDirectTaskLookupArgs(argv []string) []string {
	// Convenience: `onboard 3` works like `onboard checklist show 3`.
	//
	// Cobra treats the first non-flag token as a subcommand, so we rewrite argv before parsing.
	// Persistent flags may come first (e.g. `onboard --dir ... 3`), so find the first positional.
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--dir":     true,
		"--config":  true,
		"--backend": true,
		"--format":  true,
		"--context": true,
		"--now":     true,
	}
	boolFlags := map[string]bool{
		"--pretty": true,
		"--debug":  true,
	}

	rewrite := func(i int, id string) []string {
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:i]...)
		out = append(out, "checklist", "show", id)
		out = append(out, argv[i+1:]...)
		return out
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) {
				if id, ok := taskRef(argv[i+1]); ok {
					return rewrite(i+1, id)
				}
			}
			return argv
		}

		if strings.HasPrefix(a, "-") {
			if strings.Contains(a, "=") || boolFlags[a] {
				continue
			}
			if valueFlags[a] {
				i++
			}
			continue
		}

		if id, ok := taskRef(a); ok {
			return rewrite(i, id)
		}
		return argv
	}

	return argv
}

func main() {
	os.Args = rewriteDirectTaskLookupArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
