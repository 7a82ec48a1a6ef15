package cli

import (
	"io"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/duration"
	"k8s.io/cli-runtime/pkg/printers"
	"k8s.io/utils/clock"

	"mpijobctl/internal/mpijob"
	"mpijobctl/pkg/types"
)

// jobTablePrinter renders jobs as a kubectl-style table.
type jobTablePrinter struct {
	clock        clock.Clock
	printOptions printers.PrintOptions
}

func newJobTablePrinter() *jobTablePrinter {
	return &jobTablePrinter{clock: clock.RealClock{}}
}

func (p *jobTablePrinter) WithClock(c clock.Clock) *jobTablePrinter {
	if c != nil {
		p.clock = c
	}
	return p
}

// WithWide adds the GPU and IMAGE columns.
func (p *jobTablePrinter) WithWide(f bool) *jobTablePrinter {
	p.printOptions.Wide = f
	return p
}

// WithNamespace prefixes rows with the job namespace.
func (p *jobTablePrinter) WithNamespace(f bool) *jobTablePrinter {
	p.printOptions.WithNamespace = f
	return p
}

func (p *jobTablePrinter) PrintJobs(jobs []*mpijob.Job, out io.Writer) error {
	printer := printers.NewTablePrinter(p.printOptions)
	table := &metav1.Table{
		ColumnDefinitions: []metav1.TableColumnDefinition{
			{Name: "Name", Type: "string", Format: "name"},
			{Name: "Status", Type: "string"},
			{Name: "Workers", Type: "integer"},
			{Name: "Duration", Type: "string"},
			{Name: "Age", Type: "string"},
			{Name: "GPU", Type: "string", Priority: 1},
			{Name: "Image", Type: "string", Priority: 1},
		},
		Rows: make([]metav1.TableRow, 0, len(jobs)),
	}
	for _, j := range jobs {
		table.Rows = append(table.Rows, p.printJob(j))
	}
	return printer.PrintObj(table, out)
}

func (p *jobTablePrinter) printJob(j *mpijob.Job) metav1.TableRow {
	row := metav1.TableRow{Object: runtime.RawExtension{Object: j.Raw()}}
	gpu := "0"
	if spec, ok := j.Resources(types.RoleWorker); ok && !spec.GPU.IsZero() {
		gpu = spec.GPU.Format()
	}
	row.Cells = []any{
		j.Name(),
		j.Phase().String(),
		int64(j.Replicas(types.RoleWorker)),
		p.runDuration(j),
		p.age(j.Created()),
		gpu,
		workerImage(j),
	}
	return row
}

func (p *jobTablePrinter) age(t time.Time) string {
	if t.IsZero() {
		return "<unknown>"
	}
	return duration.HumanDuration(p.clock.Since(t))
}

// runDuration is start to completion for finished jobs and start to now
// for running ones.
func (p *jobTablePrinter) runDuration(j *mpijob.Job) string {
	st := j.Status()
	if st == nil || st.StartTime == "" {
		return "<none>"
	}
	start, err := time.Parse(time.RFC3339, st.StartTime)
	if err != nil {
		return "<none>"
	}
	end := p.clock.Now()
	if st.CompletionTime != "" {
		if t, err := time.Parse(time.RFC3339, st.CompletionTime); err == nil {
			end = t
		}
	}
	return duration.HumanDuration(end.Sub(start))
}

func workerImage(j *mpijob.Job) string {
	doc, err := j.Document()
	if err != nil {
		return ""
	}
	rs, ok := doc.Spec.MPIReplicaSpecs[types.RoleWorker]
	if !ok || len(rs.Template.Spec.Containers) == 0 {
		return ""
	}
	return rs.Template.Spec.Containers[0].Image
}
