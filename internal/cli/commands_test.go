package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"k8s.io/utils/clock"

	"mpijobctl/internal/mpijob"
	"mpijobctl/internal/store"
	"mpijobctl/pkg/types"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

const jobYAML = `apiVersion: kubeflow.org/v2
kind: MPIJob
metadata:
  name: from-yaml
spec:
  mpiReplicaSpecs:
    Launcher:
      replicas: 1
      template:
        spec:
          containers:
            - name: launcher
              image: launcher:1
    Worker:
      replicas: 3
      template:
        spec:
          containers:
            - name: worker
              image: worker:1
`

func TestCreate_Inline(t *testing.T) {
	mem := store.NewMemory()
	res := run(t, mem, "", "create", "pi", "--workers=4", "--gpu=2", "--cpu=4", "--memory=16Gi",
		"--image=train:1", "--command=python", "--command=/train.py", "--env=EPOCHS=10", "-l", "team=a")
	if res.err != nil {
		t.Fatalf("create: %v", res.err)
	}
	if res.out != "mpijob.kubeflow.org/pi created\n" {
		t.Fatalf("out=%q", res.out)
	}
	j, err := mpijob.New(mem, "default").Get(context.Background(), "pi", "")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if j.Replicas(types.RoleWorker) != 4 {
		t.Fatalf("workers=%d", j.Replicas(types.RoleWorker))
	}
	spec, ok := j.Resources(types.RoleWorker)
	if !ok || spec.String() != "4 CPU, 16Gi Memory, 2 GPU (nvidia.com/gpu)" {
		t.Fatalf("resources=%v %v", spec, ok)
	}
	if j.Raw().GetLabels()["team"] != "a" {
		t.Fatalf("labels=%v", j.Raw().GetLabels())
	}
}

func TestCreate_FromFileAndStdin(t *testing.T) {
	mem := store.NewMemory()
	path := filepath.Join(t.TempDir(), "job.yaml")
	writeFile(t, path, jobYAML)
	if res := run(t, mem, "", "create", "--from-file", path); res.err != nil {
		t.Fatalf("from file: %v", res.err)
	}
	res := run(t, mem, strings.Replace(jobYAML, "from-yaml", "from-stdin", 1), "-n", "team", "create", "--from-stdin")
	if res.err != nil {
		t.Fatalf("from stdin: %v", res.err)
	}
	if _, err := mem.Get(context.Background(), "team", "from-stdin"); err != nil {
		t.Fatalf("stdin job not stored in team: %v", err)
	}
}

func TestCreate_DryRunPrintsYAML(t *testing.T) {
	mem := store.NewMemory()
	res := run(t, mem, "", "create", "pi", "--image=train:1", "--dry-run")
	if res.err != nil {
		t.Fatalf("dry run: %v", res.err)
	}
	if !strings.Contains(res.out, "kind: MPIJob") || !strings.Contains(res.out, "name: pi") {
		t.Fatalf("dry run output=%q", res.out)
	}
	if _, err := mem.Get(context.Background(), "default", "pi"); !store.IsNotFound(err) {
		t.Fatalf("dry run persisted the job")
	}
}

func TestCreate_Errors(t *testing.T) {
	cases := []struct {
		name string
		args []string
	}{
		{"no source", []string{"create"}},
		{"no image", []string{"create", "pi"}},
		{"bad cpu", []string{"create", "pi", "--image=x", "--cpu=lots"}},
		{"bad env", []string{"create", "pi", "--image=x", "--env=NOVALUE"}},
		{"file and stdin", []string{"create", "--from-file=x.yaml", "--from-stdin"}},
		{"bad implementation", []string{"create", "pi", "--image=x", "--mpi-implementation=MVAPICH"}},
		{"file with inline workers", []string{"create", "--from-file=x.yaml", "--workers=2"}},
		{"stdin with inline image", []string{"create", "--from-stdin", "--image=x"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			mem := store.NewMemory()
			if res := run(t, mem, "", c.args...); res.err == nil {
				t.Fatalf("expected an error")
			}
			if mem.Calls(store.OpCreate) != 0 {
				t.Fatalf("invalid input reached the store")
			}
		})
	}
}

func TestCreate_DocumentSourceRejectsInlineFlags(t *testing.T) {
	mem := store.NewMemory()
	res := run(t, mem, jobYAML, "create", "--from-stdin", "--gpu=4", "--env=A=1")
	if !mpijob.IsValidation(res.err) {
		t.Fatalf("expected a validation error, got %v", res.err)
	}
	if !strings.Contains(res.err.Error(), "--gpu cannot be combined") {
		t.Fatalf("err=%v", res.err)
	}
	if mem.Calls(store.OpCreate) != 0 {
		t.Fatalf("rejected input reached the store")
	}

	// --label and --dry-run are not job shape flags
	if res := run(t, mem, jobYAML, "create", "--from-stdin", "-l", "team=ml", "--dry-run"); res.err != nil {
		t.Fatalf("document with labels: %v", res.err)
	}
}

func TestCreate_WaitReportsOutcome(t *testing.T) {
	mem := store.NewMemory()
	// every Get after creation sees the job finished
	mem.BeforeGet = func(ns, name string, n int) {
		_ = mem.SetStatus(ns, name, map[string]any{"conditions": []any{cond(types.JobSucceeded)}})
	}
	res := run(t, mem, "", "create", "pi", "--image=train:1", "--wait", "--timeout=1m")
	if res.err != nil {
		t.Fatalf("create --wait: %v", res.err)
	}
	if !strings.Contains(res.out, "MPIJob pi succeeded") {
		t.Fatalf("out=%q", res.out)
	}
}

func TestList_Table(t *testing.T) {
	mem := store.NewMemory()
	seedJob(t, mem, "default", "alpha", 2, "1")
	seedJob(t, mem, "default", "beta", 4, "")
	seedJob(t, mem, "other", "gamma", 1, "")
	setPhase(t, mem, "default", "alpha", map[string]any{
		"startTime":      "2024-01-01T11:00:00Z",
		"completionTime": "2024-01-01T11:30:00Z",
	}, types.JobRunning, types.JobSucceeded)
	setPhase(t, mem, "default", "beta", map[string]any{"startTime": "2024-01-01T11:50:00Z"}, types.JobRunning)

	res := run(t, mem, "", "list")
	if res.err != nil {
		t.Fatalf("list: %v", res.err)
	}
	lines := strings.Split(strings.TrimSpace(res.out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %q", res.out)
	}
	if f := strings.Fields(lines[0]); strings.Join(f, " ") != "NAME STATUS WORKERS DURATION AGE" {
		t.Fatalf("header=%q", lines[0])
	}
	if f := strings.Fields(lines[1]); strings.Join(f, " ") != "alpha Succeeded 2 30m 60m" {
		t.Fatalf("alpha row=%q", lines[1])
	}
	if f := strings.Fields(lines[2]); strings.Join(f, " ") != "beta Running 4 10m 60m" {
		t.Fatalf("beta row=%q", lines[2])
	}
}

func TestList_WideAllNamespaces(t *testing.T) {
	mem := store.NewMemory()
	seedJob(t, mem, "default", "alpha", 2, "1")
	seedJob(t, mem, "other", "gamma", 1, "")
	res := run(t, mem, "", "list", "-A", "-o", "wide")
	if res.err != nil {
		t.Fatalf("list: %v", res.err)
	}
	lines := strings.Split(strings.TrimSpace(res.out), "\n")
	if len(lines) != 3 {
		t.Fatalf("out=%q", res.out)
	}
	if f := strings.Fields(lines[0]); f[0] != "NAMESPACE" || f[len(f)-1] != "IMAGE" {
		t.Fatalf("header=%q", lines[0])
	}
	if f := strings.Fields(lines[1]); f[0] != "default" || f[1] != "alpha" || f[len(f)-2] != "1" || f[len(f)-1] != "train:alpha" {
		t.Fatalf("alpha row=%q", lines[1])
	}
}

func TestList_FiltersAndFormats(t *testing.T) {
	mem := store.NewMemory()
	seedJob(t, mem, "default", "alpha", 2, "")
	seedJob(t, mem, "default", "beta", 2, "")
	setPhase(t, mem, "default", "beta", nil, types.JobFailed)

	res := run(t, mem, "", "list", "--status=failed", "-o", "name")
	if res.err != nil || res.out != "mpijob/beta\n" {
		t.Fatalf("status filter: %q %v", res.out, res.err)
	}
	res = run(t, mem, "", "list", "-l", "team=default", "-o", "json")
	if res.err != nil {
		t.Fatalf("json: %v", res.err)
	}
	var list struct {
		Kind  string           `json:"kind"`
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal([]byte(res.out), &list); err != nil || list.Kind != "List" || len(list.Items) != 2 {
		t.Fatalf("json list=%q err=%v", res.out, err)
	}
	res = run(t, mem, "", "list", "-o", "yaml")
	if res.err != nil || !strings.Contains(res.out, "kind: List") {
		t.Fatalf("yaml: %q %v", res.out, res.err)
	}
	if res := run(t, mem, "", "list", "-o", "table"); res.err == nil {
		t.Fatalf("expected unsupported format error")
	}
	if res := run(t, mem, "", "list", "--status=Pending"); res.err == nil {
		t.Fatalf("expected unknown status error")
	}
}

func TestList_Empty(t *testing.T) {
	res := run(t, store.NewMemory(), "", "list")
	if res.err != nil || res.out != "" || !strings.Contains(res.errOut, "No MPIJobs found in default namespace.") {
		t.Fatalf("out=%q errOut=%q err=%v", res.out, res.errOut, res.err)
	}
}

func TestDescribe(t *testing.T) {
	mem := store.NewMemory()
	seedJob(t, mem, "default", "pi", 2, "2")
	setPhase(t, mem, "default", "pi", map[string]any{
		"startTime":       "2024-01-01T11:00:00Z",
		"replicaStatuses": map[string]any{"Worker": map[string]any{"active": int64(2)}},
	}, types.JobCreated, types.JobRunning)

	res := run(t, mem, "", "describe", "pi")
	if res.err != nil {
		t.Fatalf("describe: %v", res.err)
	}
	for _, want := range []string{
		"Status:", "Running",
		"Worker Resources:", "2 CPU, 4Gi Memory, 2 GPU (nvidia.com/gpu)",
		"Total Resources:", "4.0 CPU, 8Gi Memory, 4 GPU (nvidia.com/gpu)",
		"Image:", "train:pi",
		"Command:", "python train.py",
		"active=2 succeeded=0 failed=0",
		"TYPE", "Created", "Running",
	} {
		if !strings.Contains(res.out, want) {
			t.Fatalf("describe output missing %q:\n%s", want, res.out)
		}
	}

	res = run(t, mem, "", "describe", "pi", "-o", "json")
	var doc map[string]any
	if res.err != nil || json.Unmarshal([]byte(res.out), &doc) != nil || doc["kind"] != types.Kind {
		t.Fatalf("json describe: %q %v", res.out, res.err)
	}
	if res := run(t, mem, "", "describe", "ghost"); !mpijob.IsNotFound(res.err) {
		t.Fatalf("expected NotFoundError, got %v", res.err)
	}
}

func TestDescribe_WatchEndsOnCompletion(t *testing.T) {
	mem := store.NewMemory()
	seedJob(t, mem, "default", "pi", 1, "")
	setPhase(t, mem, "default", "pi", nil, types.JobSucceeded)
	res := run(t, mem, "", "describe", "pi", "-w")
	if res.err != nil {
		t.Fatalf("describe -w: %v", res.err)
	}
	if !strings.Contains(res.out, "phase=Succeeded") {
		t.Fatalf("watch output=%q", res.out)
	}
}

func TestDelete(t *testing.T) {
	mem := store.NewMemory()
	seedJob(t, mem, "default", "pi", 1, "")
	res := run(t, mem, "", "delete", "pi", "--wait", "--timeout=1m")
	if res.err != nil || res.out != "mpijob.kubeflow.org/pi deleted\n" {
		t.Fatalf("delete: %q %v", res.out, res.err)
	}
	// idempotent
	if res := run(t, mem, "", "delete", "pi"); res.err != nil {
		t.Fatalf("second delete: %v", res.err)
	}
	mem.FailOn(store.OpDelete, &store.RemoteError{Status: 403, Reason: "Forbidden"})
	if res := run(t, mem, "", "delete", "pi"); res.err == nil {
		t.Fatalf("expected forbidden error")
	}
}

func addPods(mem *store.Memory) {
	mem.AddPod("default", "pi-launcher", map[string]string{
		store.LabelJobName: "pi", store.LabelReplicaType: types.RoleLauncher,
	}, "l1\nl2\n")
	for i, name := range []string{"pi-worker-0", "pi-worker-1"} {
		mem.AddPod("default", name, map[string]string{
			store.LabelJobName: "pi", store.LabelReplicaType: types.RoleWorker, store.LabelReplicaIndex: string(rune('0' + i)),
		}, name+"\n")
	}
}

func TestLogs(t *testing.T) {
	mem := store.NewMemory()
	seedJob(t, mem, "default", "pi", 2, "")
	addPods(mem)

	if res := run(t, mem, "", "logs", "pi"); res.err != nil || res.out != "l1\nl2\n" {
		t.Fatalf("launcher logs: %q %v", res.out, res.err)
	}
	if res := run(t, mem, "", "logs", "pi", "--tail=1"); res.out != "l2\n" {
		t.Fatalf("tail: %q", res.out)
	}
	if res := run(t, mem, "", "logs", "pi", "--worker=1"); res.out != "pi-worker-1\n" {
		t.Fatalf("worker 1: %q", res.out)
	}
	res := run(t, mem, "", "logs", "pi", "--aggregate")
	want := "==> pi-worker-0 <==\npi-worker-0\n==> pi-worker-1 <==\npi-worker-1\n"
	if res.err != nil || res.out != want {
		t.Fatalf("aggregate: %q %v", res.out, res.err)
	}
	if res := run(t, mem, "", "logs", "pi", "--worker=x"); res.err == nil {
		t.Fatalf("expected bad worker error")
	}
	if res := run(t, mem, "", "logs", "pi", "--worker=7"); res.err != nil || !strings.Contains(res.errOut, "No pods found") {
		t.Fatalf("no pods: %q %v", res.errOut, res.err)
	}
}

func TestWait(t *testing.T) {
	mem := store.NewMemory()
	seedJob(t, mem, "default", "ok", 1, "")
	seedJob(t, mem, "default", "bad", 1, "")
	seedJob(t, mem, "default", "slow", 1, "")
	setPhase(t, mem, "default", "ok", nil, types.JobSucceeded)
	setPhase(t, mem, "default", "bad", nil, types.JobFailed)
	setPhase(t, mem, "default", "slow", nil, types.JobRunning)

	if res := run(t, mem, "", "wait", "ok"); res.err != nil || !strings.Contains(res.out, "MPIJob ok succeeded") {
		t.Fatalf("wait ok: %q %v", res.out, res.err)
	}
	if res := run(t, mem, "", "wait", "bad"); res.err == nil || !strings.Contains(res.err.Error(), "failed") {
		t.Fatalf("wait bad: %v", res.err)
	}
	res := runWithClock(t, mem, clock.RealClock{}, "", "wait", "slow", "--timeout=20ms", "--poll-interval=5ms")
	if res.err == nil || !strings.Contains(res.err.Error(), "timed out") {
		t.Fatalf("wait slow: %v", res.err)
	}
	if res := run(t, mem, "", "wait", "ghost"); !mpijob.IsNotFound(res.err) {
		t.Fatalf("wait ghost: %v", res.err)
	}
}

func TestLogOptions(t *testing.T) {
	cases := []struct {
		worker    string
		aggregate bool
		want      string
	}{
		{"", false, "launcher"},
		{"launcher", false, "launcher"},
		{"all", false, "all"},
		{"", true, "all"},
		{"3", false, "3"},
	}
	for _, c := range cases {
		o := &logsOptions{worker: c.worker, aggregate: c.aggregate}
		opts, err := o.logOptions()
		if err != nil {
			t.Fatalf("%q: %v", c.worker, err)
		}
		got := "launcher"
		if opts.Worker != nil {
			got = "all"
			if *opts.Worker != mpijob.AllWorkers {
				got = string(rune('0' + *opts.Worker))
			}
		}
		if got != c.want {
			t.Fatalf("worker=%q aggregate=%v: got %s want %s", c.worker, c.aggregate, got, c.want)
		}
	}
	if _, err := (&logsOptions{tail: -1}).logOptions(); err == nil {
		t.Fatalf("expected negative tail error")
	}
}
