package mpijob

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"k8s.io/utils/clock"

	"mpijobctl/internal/store"
	"mpijobctl/pkg/types"
)

// Defaults used when the corresponding options are unset.
const (
	DefaultWaitTimeout   = time.Hour
	DefaultPollInterval  = 10 * time.Second
	DefaultDeleteTimeout = 60 * time.Second
)

// deletePollInterval paces existence checks after a waited delete.
var deletePollInterval = time.Second

// DeleteOptions controls Job.Delete and Client.Delete.
type DeleteOptions struct {
	// Wait polls until the job is gone or Timeout elapses.
	Wait bool
	// Timeout bounds Wait; DefaultDeleteTimeout when zero.
	Timeout time.Duration
}

// WaitForCompletion polls until the job reaches a terminal phase and
// reports whether it succeeded. The first refresh always happens, so a zero
// timeout still observes the job once. Timeout is measured from the call,
// and reaching it returns false with a nil error. Refresh failures end the
// wait and are returned. A non-positive pollInterval means
// DefaultPollInterval.
func (j *Job) WaitForCompletion(ctx context.Context, timeout, pollInterval time.Duration) (bool, error) {
	pollInterval = pollOrDefault(pollInterval)
	start := j.clock.Now()
	for {
		if err := j.Refresh(ctx); err != nil {
			return false, err
		}
		if p := j.Phase(); p.IsCompleted() {
			j.log.Debug().Str("phase", p.String()).Msg("job completed")
			return p.IsSucceeded(), nil
		}
		if j.clock.Since(start) >= timeout {
			j.log.Debug().Dur("timeout", timeout).Msg("wait timed out")
			return false, nil
		}
		if err := sleep(ctx, j.clock, pollInterval); err != nil {
			return false, err
		}
	}
}

// Monitor polls the job and calls onChange once for every distinct phase
// observed in sequence, starting with the first one. It returns nil once
// the job completes, the refresh error if one fails, or ctx.Err() when
// cancelled while sleeping. Monitoring never modifies the job. A job
// without status is reported with a zero JobStatus. A non-positive
// pollInterval means DefaultPollInterval.
func (j *Job) Monitor(ctx context.Context, pollInterval time.Duration, onChange func(Phase, types.JobStatus)) error {
	pollInterval = pollOrDefault(pollInterval)
	last := phaseNone
	for {
		if err := j.Refresh(ctx); err != nil {
			return err
		}
		p := j.Phase()
		if p != last {
			phaseTransitionsTotal.WithLabelValues(p.String()).Inc()
			j.log.Info().Str("phase", p.String()).Msg("phase changed")
			if onChange != nil {
				var st types.JobStatus
				if s := j.Status(); s != nil {
					st = *s
				}
				onChange(p, st)
			}
			last = p
		}
		if p.IsCompleted() {
			return nil
		}
		if err := sleep(ctx, j.clock, pollInterval); err != nil {
			return err
		}
	}
}

// Delete removes the job. A job that is already gone counts as deleted.
// With opts.Wait the call blocks until the job disappears (true) or the
// timeout passes (false).
func (j *Job) Delete(ctx context.Context, opts DeleteOptions) (bool, error) {
	return deleteJob(ctx, j.store, j.clock, j.log, j.namespace, j.name, opts)
}

func deleteJob(ctx context.Context, st store.Store, clk clock.Clock, log zerolog.Logger, namespace, name string, opts DeleteOptions) (bool, error) {
	err := st.Delete(ctx, namespace, name)
	observeOp("delete", err)
	if err != nil {
		if store.IsNotFound(err) {
			log.Debug().Msg("job already deleted")
			return true, nil
		}
		return false, err
	}
	if !opts.Wait {
		return true, nil
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultDeleteTimeout
	}
	start := clk.Now()
	for clk.Since(start) < timeout {
		_, err := st.Get(ctx, namespace, name)
		if store.IsNotFound(err) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		if err := sleep(ctx, clk, deletePollInterval); err != nil {
			return false, err
		}
	}
	log.Warn().Dur("timeout", timeout).Msg("timed out waiting for deletion")
	return false, nil
}

// sleep blocks for d on clk, or until ctx is done.
func pollOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultPollInterval
	}
	return d
}

func sleep(ctx context.Context, clk clock.Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := clk.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C():
		return nil
	}
}
