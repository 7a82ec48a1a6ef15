package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/cli-runtime/pkg/printers"

	"mpijobctl/internal/mpijob"
)

type listOptions struct {
	*rootOptions

	selector      string
	allNamespaces bool
	status        string
	output        string
}

func newListCmd(root *rootOptions) *cobra.Command {
	o := &listOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls", "get"},
		Short:   "List MPIJobs",
		Example: `  # List jobs in the current namespace
  mpijobctl list

  # List running jobs everywhere with extra columns
  mpijobctl list -A --status=Running -o wide`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.selector, "selector", "l", "", "Label selector")
	f.BoolVarP(&o.allNamespaces, "all-namespaces", "A", false, "List jobs across all namespaces")
	f.StringVar(&o.status, "status", "", "Filter by phase (Created|Running|Succeeded|Failed|Unknown)")
	f.StringVarP(&o.output, "output", "o", "", "Output format (name|wide|json|yaml)")
	return cmd
}

func (o *listOptions) run(cmd *cobra.Command) error {
	switch o.output {
	case "", "wide", "name", "json", "yaml":
	default:
		return fmt.Errorf("unsupported output format %q (want name, wide, json or yaml)", o.output)
	}
	var filter *mpijob.Phase
	if o.status != "" {
		p, ok := mpijob.ParsePhase(o.status)
		if !ok {
			return fmt.Errorf("unknown status %q", o.status)
		}
		filter = &p
	}
	c, err := o.clientFor()
	if err != nil {
		return err
	}
	ns := o.cfg.Namespace
	if o.allNamespaces {
		ns = ""
	}
	jobs, err := c.List(cmd.Context(), ns, o.selector)
	if err != nil {
		return err
	}
	if filter != nil {
		kept := jobs[:0]
		for _, j := range jobs {
			if j.Phase() == *filter {
				kept = append(kept, j)
			}
		}
		jobs = kept
	}

	out := cmd.OutOrStdout()
	if len(jobs) == 0 && (o.output == "" || o.output == "wide") {
		if o.allNamespaces {
			fmt.Fprintln(cmd.ErrOrStderr(), "No MPIJobs found.")
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "No MPIJobs found in %s namespace.\n", ns)
		}
		return nil
	}
	switch o.output {
	case "name":
		for _, j := range jobs {
			fmt.Fprintf(out, "mpijob/%s\n", j.Name())
		}
		return nil
	case "json", "yaml":
		list := &unstructured.UnstructuredList{Object: map[string]any{"apiVersion": "v1", "kind": "List"}}
		for _, j := range jobs {
			list.Items = append(list.Items, *j.Raw())
		}
		var p printers.ResourcePrinter = &printers.JSONPrinter{}
		if o.output == "yaml" {
			p = &printers.YAMLPrinter{}
		}
		return p.PrintObj(list, out)
	}
	return newJobTablePrinter().
		WithClock(o.deps.Clock).
		WithWide(o.output == "wide").
		WithNamespace(o.allNamespaces).
		PrintJobs(jobs, out)
}
