package mpijob

import (
	"context"
	"fmt"
	"strconv"

	"mpijobctl/internal/store"
	"mpijobctl/pkg/types"
)

// AllWorkers selects every worker pod in LogOptions.Worker.
const AllWorkers = -1

// LogOptions selects the pods whose logs Job.Logs reads.
type LogOptions struct {
	// Worker is a worker index, AllWorkers, or nil for the launcher.
	Worker *int
	// Container defaults to the pod's only container.
	Container string
	// TailLines limits each log to its last N lines when positive.
	TailLines int64
}

// LauncherLogs returns options selecting the launcher pod.
func LauncherLogs() LogOptions { return LogOptions{} }

// WorkerLogs returns options selecting one worker, or all of them when
// index is AllWorkers.
func WorkerLogs(index int) LogOptions { return LogOptions{Worker: &index} }

// Selector renders the pod label selector for these options, in the
// order job-name, replica-type, replica-index.
func (o LogOptions) Selector(jobName string) string {
	role := types.RoleLauncher
	if o.Worker != nil {
		role = types.RoleWorker
	}
	sel := fmt.Sprintf("%s=%s,%s=%s", store.LabelJobName, jobName, store.LabelReplicaType, role)
	if o.Worker != nil && *o.Worker >= 0 {
		sel += "," + store.LabelReplicaIndex + "=" + strconv.Itoa(*o.Worker)
	}
	return sel
}

// Logs reads the logs of every selected pod, keyed by pod name. A pod whose
// log cannot be read maps to "Error getting logs: <reason>" instead of
// failing the batch; only the pod listing itself can fail the call.
func (j *Job) Logs(ctx context.Context, opts LogOptions) (map[string]string, error) {
	selector := opts.Selector(j.name)
	pods, err := j.store.ListPods(ctx, j.namespace, selector)
	observeOp("listPods", err)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(pods))
	for _, pod := range pods {
		log, err := j.store.ReadPodLog(ctx, j.namespace, pod, store.PodLogOptions{
			Container: opts.Container,
			TailLines: opts.TailLines,
		})
		if err != nil {
			j.log.Debug().Err(err).Str("pod", pod).Msg("read pod log")
			out[pod] = "Error getting logs: " + store.ReasonOf(err)
			continue
		}
		out[pod] = log
	}
	return out, nil
}
