package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/cli-runtime/pkg/printers"

	"mpijobctl/internal/mpijob"
	"mpijobctl/internal/resources"
	"mpijobctl/pkg/types"
)

type createOptions struct {
	*rootOptions

	fromFile  string
	fromStdin bool

	workers  int32
	gpu      int64
	cpu      string
	memory   string
	image    string
	command  []string
	args     []string
	env      []string
	labels   map[string]string
	slots    int32
	mpiImpl  string
	cleanPod string

	dryRun  bool
	wait    bool
	timeout time.Duration
}

func newCreateCmd(root *rootOptions) *cobra.Command {
	o := &createOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "create [NAME]",
		Short: "Create an MPIJob",
		Example: `  # Create an MPIJob from a file
  mpijobctl create --from-file=mpijob.yaml

  # Create an MPIJob from stdin
  cat mpijob.yaml | mpijobctl create --from-stdin

  # Create an MPIJob with inline parameters
  mpijobctl create my-job --workers=4 --gpu=2 --cpu=4 --memory=16Gi --image=myregistry.com/train:latest --command=python --command=/train.py

  # Print the job that would be created
  mpijobctl create --from-file=mpijob.yaml --dry-run

  # Create an MPIJob and wait for completion
  mpijobctl create --from-file=mpijob.yaml --wait`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.fromFile, "from-file", "f", "", "Create from a YAML or JSON job document")
	f.BoolVar(&o.fromStdin, "from-stdin", false, "Read the job document from stdin")
	f.Int32Var(&o.workers, "workers", 1, "Number of worker replicas")
	f.Int64Var(&o.gpu, "gpu", 0, "GPUs per worker")
	f.StringVar(&o.cpu, "cpu", "1", "CPU cores per worker")
	f.StringVar(&o.memory, "memory", "1Gi", "Memory per worker")
	f.StringVar(&o.image, "image", "", "Container image")
	f.StringArrayVar(&o.command, "command", nil, "Command to run (repeat for each element)")
	f.StringArrayVar(&o.args, "args", nil, "Arguments to the command (repeat for each element)")
	f.StringArrayVar(&o.env, "env", nil, "Environment variable KEY=VALUE (repeatable)")
	f.StringToStringVarP(&o.labels, "label", "l", nil, "Labels to set on the job")
	f.Int32Var(&o.slots, "slots-per-worker", 1, "MPI slots per worker")
	f.StringVar(&o.mpiImpl, "mpi-implementation", types.MPIImplementationOpenMPI, "MPI implementation: OpenMPI|IntelMPI|MPICH")
	f.StringVar(&o.cleanPod, "clean-pod-policy", "", "Pods to delete on completion: All|Running|None")
	f.BoolVar(&o.dryRun, "dry-run", false, "Print the job that would be created without persisting it")
	f.BoolVar(&o.wait, "wait", false, "Wait for the job to complete")
	f.DurationVar(&o.timeout, "timeout", mpijob.DefaultWaitTimeout, "How long --wait blocks")
	return cmd
}

func (o *createOptions) run(cmd *cobra.Command, args []string) error {
	opts, err := o.createOptions(cmd, args)
	if err != nil {
		return err
	}
	c, err := o.clientFor()
	if err != nil {
		return err
	}
	job, err := c.Create(cmd.Context(), opts)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if o.dryRun {
		return (&printers.YAMLPrinter{}).PrintObj(job.Raw(), out)
	}
	fmt.Fprintf(out, "mpijob.%s/%s created\n", types.Group, job.Name())
	if !o.wait {
		return nil
	}
	return waitAndReport(cmd, job, o.timeout, o.cfg.PollInterval.D())
}

// inlineFlags only apply when the job is described on the command line.
var inlineFlags = []string{
	"workers", "gpu", "cpu", "memory", "image", "command", "args", "env",
	"slots-per-worker", "mpi-implementation", "clean-pod-policy",
}

// createOptions maps flags to mpijob.CreateOptions. A document source and
// inline job flags are mutually exclusive.
func (o *createOptions) createOptions(cmd *cobra.Command, args []string) (mpijob.CreateOptions, error) {
	opts := mpijob.CreateOptions{Labels: o.labels, DryRun: o.dryRun}
	if len(args) == 1 {
		opts.Name = args[0]
	}
	if o.fromFile != "" && o.fromStdin {
		return opts, mpijob.ErrValidation("--from-file and --from-stdin are mutually exclusive")
	}
	if o.fromFile != "" || o.fromStdin {
		for _, name := range inlineFlags {
			if cmd.Flags().Changed(name) {
				return opts, mpijob.ErrValidation("--%s cannot be combined with --from-file or --from-stdin", name)
			}
		}
	}
	switch {
	case o.fromFile != "":
		opts.FromFile = o.fromFile
		return opts, nil
	case o.fromStdin:
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return opts, fmt.Errorf("read stdin: %w", err)
		}
		doc, err := mpijob.DecodeDocument(b)
		if err != nil {
			return opts, err
		}
		opts.FromDocument = doc
		return opts, nil
	}

	if opts.Name == "" {
		return opts, mpijob.ErrValidation("a job NAME, --from-file or --from-stdin is required")
	}
	if o.image == "" {
		return opts, mpijob.ErrValidation("--image is required for inline creation")
	}
	if _, err := resources.Parse(o.cpu); err != nil {
		return opts, fmt.Errorf("--cpu: %w", err)
	}
	if _, err := resources.Parse(o.memory); err != nil {
		return opts, fmt.Errorf("--memory: %w", err)
	}
	spec := resources.NewSpec(o.cpu, o.memory, o.gpu)
	env, err := parseEnv(o.env)
	if err != nil {
		return opts, err
	}
	opts.Worker = &types.ReplicaTemplate{
		Replicas:  o.workers,
		Image:     o.image,
		Resources: spec.ToRequirements(),
		Command:   o.command,
		Args:      o.args,
		Env:       env,
	}
	opts.SlotsPerWorker = o.slots
	opts.MPIImplementation = o.mpiImpl
	if o.cleanPod != "" {
		opts.RunPolicy = &types.RunPolicy{CleanPodPolicy: o.cleanPod}
	}
	return opts, nil
}

func parseEnv(pairs []string) ([]types.EnvVar, error) {
	out := make([]types.EnvVar, 0, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, mpijob.ErrValidation("--env %q must be KEY=VALUE", p)
		}
		out = append(out, types.EnvVar{Name: k, Value: v})
	}
	return out, nil
}

// waitAndReport blocks until job completes and prints the outcome. A
// failed or timed-out job is an error so the exit status reflects it.
func waitAndReport(cmd *cobra.Command, job *mpijob.Job, timeout, poll time.Duration) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Waiting for MPIJob %s to complete (timeout %s)...\n", job.Name(), timeout)
	ok, err := job.WaitForCompletion(cmd.Context(), timeout, poll)
	if err != nil {
		return err
	}
	switch {
	case ok:
		fmt.Fprintf(out, "MPIJob %s succeeded\n", job.Name())
		return nil
	case job.IsFailed():
		return fmt.Errorf("MPIJob %s failed", job.Name())
	default:
		return fmt.Errorf("timed out after %s waiting for MPIJob %s (phase %s)", timeout, job.Name(), job.Phase())
	}
}
