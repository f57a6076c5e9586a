package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"onboarding-cli/internal/session"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// cli runs commands against one sqlite store dir with a pinned clock.
type cli struct {
	t   *testing.T
	dir string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	return &cli{t: t, dir: t.TempDir()}
}

func (c *cli) args(args ...string) []string {
	return append([]string{"--dir", c.dir, "--now", "2025-10-15T12:00:00Z"}, args...)
}

func (c *cli) mustRun(args ...string) map[string]any {
	c.t.Helper()
	stdout, stderr, err := runCLI(c.t, c.args(args...))
	if err != nil {
		c.t.Fatalf("command failed: onboard %v\nerr: %v\nstderr:\n%s\nstdout:\n%s", args, err, stderr, stdout)
	}
	var env map[string]any
	if err := json.Unmarshal(stdout, &env); err != nil {
		c.t.Fatalf("unmarshal stdout as json envelope: %v\nstdout:\n%s\nargs: %v", err, stdout, args)
	}
	if _, ok := env["data"]; !ok {
		c.t.Fatalf("expected JSON envelope to contain data key; got: %v", env)
	}
	return env
}

func (c *cli) mustFail(args ...string) string {
	c.t.Helper()
	_, stderr, err := runCLI(c.t, c.args(args...))
	if err == nil {
		c.t.Fatalf("expected onboard %v to fail", args)
	}
	return string(stderr)
}

func data(env map[string]any) map[string]any {
	m, _ := env["data"].(map[string]any)
	return m
}

func meta(env map[string]any) map[string]any {
	m, _ := env["meta"].(map[string]any)
	return m
}

func TestCommandsRequireLogin(t *testing.T) {
	c := newCLI(t)
	stderr := c.mustFail("checklist", "list")
	if !strings.Contains(stderr, "not logged in") {
		t.Fatalf("expected login hint; got %q", stderr)
	}
}

func TestSession_LoginWhoamiGuard(t *testing.T) {
	c := newCLI(t)
	c.mustRun("session", "login", "employee")

	who := data(c.mustRun("session", "whoami"))
	if who["role"] != "employee" || who["authenticated"] != true {
		t.Fatalf("unexpected whoami: %v", who)
	}
	routes, _ := who["routes"].([]any)
	for _, r := range routes {
		if r == "admin" || r == "mentor" {
			t.Fatalf("employee must not reach %v", r)
		}
	}
	if stderr := c.mustFail("session", "check", "admin"); !strings.Contains(stderr, "forbidden") {
		t.Fatalf("expected forbidden; got %q", stderr)
	}
	c.mustFail("session", "login", "root")

	c.mustRun("session", "logout")
	if who := data(c.mustRun("session", "whoami")); who["authenticated"] != false {
		t.Fatalf("expected logged out; got %v", who)
	}
}

func TestChecklist_ToggleMilestoneAndDashboardSync(t *testing.T) {
	c := newCLI(t)
	c.mustRun("session", "login", "employee")

	list := c.mustRun("checklist", "list")
	tasks, _ := list["data"].([]any)
	if len(tasks) != 8 {
		t.Fatalf("expected 8 seed tasks; got %d", len(tasks))
	}
	if p := meta(list)["progress"]; p != float64(0) {
		t.Fatalf("expected 0 progress; got %v", p)
	}

	// Task 2 is a milestone linked to dashboard item 1.
	toggled := c.mustRun("checklist", "toggle", "2")
	if meta(toggled)["milestone"] != true {
		t.Fatalf("expected milestone on first completion; got %v", meta(toggled))
	}
	if meta(toggled)["progress"] != float64(13) {
		t.Fatalf("expected round(1/8*100)=13; got %v", meta(toggled)["progress"])
	}
	if data(toggled)["completed"] != true {
		t.Fatalf("expected task completed; got %v", data(toggled))
	}

	dash := data(c.mustRun("dashboard", "show"))
	if dash["progress"] != float64(20) {
		t.Fatalf("expected dashboard 20%%; got %v", dash["progress"])
	}

	untoggled := c.mustRun("checklist", "toggle", "2")
	if meta(untoggled)["milestone"] != false {
		t.Fatalf("expected no milestone on un-completion")
	}
	if data(c.mustRun("dashboard", "show"))["progress"] != float64(20) {
		t.Fatalf("expected dashboard to keep item 1")
	}

	c.mustFail("checklist", "toggle", "99")
	c.mustFail("checklist", "toggle", "abc")
}

func TestChecklist_StatePersistsBetweenRuns(t *testing.T) {
	c := newCLI(t)
	c.mustRun("session", "login", "user")
	c.mustRun("checklist", "subtask", "1", "2")
	c.mustRun("checklist", "comment", "1", "--text", "Done with contact details", "--author", "sam")

	task := data(c.mustRun("checklist", "show", "1"))
	if task["completed"] != false {
		t.Fatalf("subtask toggle must not complete the parent")
	}
	subs, _ := task["subtasks"].([]any)
	if st, _ := subs[1].(map[string]any); st["completed"] != true {
		t.Fatalf("expected subtask 2 completed; got %v", subs)
	}
	comments, _ := task["comments"].([]any)
	if len(comments) != 1 {
		t.Fatalf("expected one comment; got %v", comments)
	}

	blank := c.mustRun("checklist", "comment", "1", "--text", "   ")
	if meta(blank)["added"] != false {
		t.Fatalf("expected blank comment ignored")
	}
}

func TestChecklist_AttachDetach(t *testing.T) {
	c := newCLI(t)
	c.mustRun("session", "login", "employee")
	p := filepath.Join(t.TempDir(), "passport.pdf")
	if err := os.WriteFile(p, []byte("pdf-bytes"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	attached := c.mustRun("checklist", "attach", "1", "--file", p, "--file", p)
	added, _ := meta(attached)["added"].([]any)
	if len(added) != 2 {
		t.Fatalf("expected two attachments; got %v", added)
	}
	first, _ := added[0].(map[string]any)
	if first["name"] != "passport.pdf" || first["sizeBytes"] != float64(9) {
		t.Fatalf("unexpected attachment: %v", first)
	}
	fileID, _ := first["id"].(string)

	c.mustRun("checklist", "detach", "1", fileID)
	files, _ := data(c.mustRun("checklist", "show", "1"))["files"].([]any)
	if len(files) != 1 {
		t.Fatalf("expected one file left; got %v", files)
	}
	c.mustFail("checklist", "detach", "1", fileID)
}

func TestDashboard_CompleteMarksLinkedTask(t *testing.T) {
	c := newCLI(t)
	c.mustRun("session", "login", "employee")

	first := c.mustRun("dashboard", "complete", "2")
	if meta(first)["changed"] != true || meta(first)["taskId"] != float64(3) {
		t.Fatalf("unexpected meta: %v", meta(first))
	}
	again := c.mustRun("dashboard", "complete", "2")
	if meta(again)["changed"] != false || data(again)["progress"] != float64(20) {
		t.Fatalf("expected idempotent completion; got %v", again)
	}
	if data(c.mustRun("checklist", "show", "3"))["completed"] != true {
		t.Fatalf("expected linked task 3 completed")
	}
	c.mustFail("dashboard", "complete", "42")

	c.mustRun("dashboard", "reset")
	if data(c.mustRun("dashboard", "show"))["progress"] != float64(0) {
		t.Fatalf("expected reset dashboard")
	}
}

func TestDashboard_WatchCompleteMatchesCommand(t *testing.T) {
	c := newCLI(t)
	c.mustRun("session", "login", "employee")

	cmd := &cobra.Command{}
	app := &App{Dir: c.dir, Now: "2025-10-15T12:00:00Z"}
	if err := app.configure(cmd); err != nil {
		t.Fatalf("configure: %v", err)
	}
	defer app.log.Close()
	e, err := openEnv(cmd, app, session.RouteDashboard)
	if err != nil {
		t.Fatalf("openEnv: %v", err)
	}
	defer e.Close()
	cl, r, b, err := e.connected(cmdContext(cmd))
	if err != nil {
		t.Fatalf("connected: %v", err)
	}

	// Written by another command while the view is open.
	c.mustRun("checklist", "toggle", "1")

	if err := completeLinked(e, cl, r, b, 2); err != nil {
		t.Fatalf("completeLinked: %v", err)
	}
	if data(c.mustRun("checklist", "show", "3"))["completed"] != true {
		t.Fatalf("expected linked task 3 completed")
	}
	if data(c.mustRun("checklist", "show", "1"))["completed"] != true {
		t.Fatalf("expected task 1 from the other command to survive")
	}
	if data(c.mustRun("dashboard", "show"))["progress"] != float64(20) {
		t.Fatalf("expected dashboard 20%%")
	}
}

func TestDashboard_CorruptValueLoadsEmpty(t *testing.T) {
	c := newCLI(t)
	c.mustRun("session", "login", "employee")
	c.mustRun("kv", "set", "onboarding:completedTasks", "not-json")
	if data(c.mustRun("dashboard", "show"))["progress"] != float64(0) {
		t.Fatalf("expected empty set from corrupt value")
	}
}

func TestCalendar(t *testing.T) {
	c := newCLI(t)
	c.mustRun("session", "login", "mentor")

	month := c.mustRun("calendar", "show", "--date", "2025-10-01")
	cells, _ := month["data"].([]any)
	if len(cells)%7 != 0 {
		t.Fatalf("expected whole weeks; got %d cells", len(cells))
	}
	if meta(month)["weekStart"] != "Sunday" {
		t.Fatalf("expected Sunday week start; got %v", meta(month))
	}

	week := c.mustRun("calendar", "show", "--view", "week")
	if cells, _ := week["data"].([]any); len(cells) != 7 {
		t.Fatalf("expected 7 days; got %d", len(cells))
	}

	up := c.mustRun("calendar", "upcoming", "--limit", "3")
	evs, _ := up["data"].([]any)
	if len(evs) != 3 {
		t.Fatalf("expected 3 upcoming events; got %d", len(evs))
	}

	training := c.mustRun("calendar", "upcoming", "--limit", "0", "--type", "training")
	for _, ev := range training["data"].([]any) {
		if ev.(map[string]any)["type"] != "training" {
			t.Fatalf("expected only training events; got %v", ev)
		}
	}
	c.mustFail("calendar", "show", "--view", "year")

	stdout, _, err := runCLI(t, c.args("calendar", "export"))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.HasPrefix(string(stdout), "BEGIN:VCALENDAR") {
		t.Fatalf("expected ics output; got %q", stdout)
	}
}

func TestEvents_JournalRecordsMutations(t *testing.T) {
	c := newCLI(t)
	c.mustRun("session", "login", "employee")
	c.mustRun("checklist", "toggle", "1")
	c.mustRun("dashboard", "complete", "4")

	evs, _ := c.mustRun("events", "list")["data"].([]any)
	types := []string{}
	for _, ev := range evs {
		types = append(types, ev.(map[string]any)["type"].(string))
	}
	joined := strings.Join(types, ",")
	for _, want := range []string{"session.login", "checklist.toggle", "dashboard.complete", "checklist.complete"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %s in journal; got %v", want, types)
		}
	}
}

func TestTextFormat(t *testing.T) {
	c := newCLI(t)
	c.mustRun("session", "login", "employee")
	stdout, _, err := runCLI(t, c.args("--format", "text", "checklist", "list"))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	out := string(stdout)
	if json.Valid(stdout) || !strings.Contains(out, "Onboarding checklist") || !strings.Contains(out, "IT Setup") {
		t.Fatalf("unexpected text output:\n%s", out)
	}
}

func TestKV_RoundTrip(t *testing.T) {
	c := newCLI(t)
	c.mustRun("kv", "set", "custom", "v1")
	if data(c.mustRun("kv", "get", "custom"))["value"] != "v1" {
		t.Fatalf("expected v1")
	}
	c.mustRun("kv", "rm", "custom")
	c.mustFail("kv", "get", "custom")
}
