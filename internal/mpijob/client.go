package mpijob

import (
	"context"

	"github.com/rs/zerolog"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/utils/clock"

	"mpijobctl/internal/store"
	"mpijobctl/pkg/types"
)

// DefaultNamespace is used when neither the call nor the client names one.
const DefaultNamespace = "default"

// ClientConfig encapsulates all tunables for Client construction.
type ClientConfig struct {
	Store store.Store
	// Namespace used when an operation does not name one.
	Namespace string
	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger
	// Clock defaults to the real clock.
	Clock clock.Clock
}

// Client creates, fetches, lists and deletes MPIJobs and hands out Job
// handles bound to the same store.
type Client struct {
	store     store.Store
	namespace string
	log       zerolog.Logger
	clock     clock.Clock
}

// New constructs a Client over st with the given default namespace.
func New(st store.Store, namespace string) *Client {
	return NewWithConfig(ClientConfig{Store: st, Namespace: namespace})
}

// NewWithConfig constructs a Client from ClientConfig, applying defaults.
func NewWithConfig(cfg ClientConfig) *Client {
	c := &Client{store: cfg.Store, namespace: cfg.Namespace, clock: cfg.Clock}
	if c.namespace == "" {
		c.namespace = DefaultNamespace
	}
	if c.clock == nil {
		c.clock = clock.RealClock{}
	}
	if cfg.Logger != nil {
		c.log = *cfg.Logger
	} else {
		c.log = zerolog.Nop()
	}
	return c
}

// Namespace returns the client's default namespace.
func (c *Client) Namespace() string { return c.namespace }

func (c *Client) ns(namespace string) string {
	if namespace == "" {
		return c.namespace
	}
	return namespace
}

// Job returns a handle for name without fetching it.
func (c *Client) Job(name, namespace string) *Job {
	return c.newJob(name, c.ns(namespace), nil)
}

// CreateOptions describes a job to create. Exactly one of FromFile,
// FromDocument or Worker must be set.
type CreateOptions struct {
	// Name of the job. Required with Worker; fills in a document without
	// metadata.name.
	Name string
	// Namespace defaults to the client namespace. A document's own
	// metadata.namespace wins.
	Namespace string
	Labels    map[string]string

	Worker   *types.ReplicaTemplate
	Launcher *types.ReplicaTemplate
	// FromFile is a YAML or JSON job document.
	FromFile string
	// FromDocument is a decoded job document.
	FromDocument map[string]any

	MPIImplementation string
	SlotsPerWorker    int32
	RunPolicy         *types.RunPolicy
	NetworkPolicy     *types.NetworkPolicy

	// DryRun asks the store to validate without persisting.
	DryRun bool
}

func (o CreateOptions) sources() int {
	n := 0
	if o.FromFile != "" {
		n++
	}
	if o.FromDocument != nil {
		n++
	}
	if o.Worker != nil {
		n++
	}
	return n
}

// Builder returns the Builder Create uses for a Worker-based request.
func (o CreateOptions) Builder(namespace string) Builder {
	b := Builder{
		Name:              o.Name,
		Namespace:         namespace,
		Labels:            o.Labels,
		Launcher:          o.Launcher,
		MPIImplementation: o.MPIImplementation,
		SlotsPerWorker:    o.SlotsPerWorker,
		RunPolicy:         o.RunPolicy,
		NetworkPolicy:     o.NetworkPolicy,
	}
	if o.Worker != nil {
		b.Worker = *o.Worker
	}
	return b
}

// Render produces the validated job document for opts without submitting
// it. Source conflicts are reported before any file is read.
func (c *Client) Render(opts CreateOptions) (*unstructured.Unstructured, error) {
	if n := opts.sources(); n != 1 {
		return nil, ErrValidation("exactly one of from-file, document or worker spec must be provided, got %d", n)
	}
	namespace := c.ns(opts.Namespace)

	var obj *unstructured.Unstructured
	switch {
	case opts.Worker != nil:
		if opts.Name == "" {
			return nil, ErrValidation("name is required when building from a worker spec")
		}
		built, err := opts.Builder(namespace).Build()
		if err != nil {
			return nil, err
		}
		obj = built
	default:
		doc := opts.FromDocument
		if opts.FromFile != "" {
			d, err := ReadDocumentFile(opts.FromFile)
			if err != nil {
				return nil, err
			}
			doc = d
		}
		normalized, err := normalize(doc)
		if err != nil {
			return nil, err
		}
		obj = &unstructured.Unstructured{Object: normalized}
		if obj.GetName() == "" && obj.GetGenerateName() == "" && opts.Name != "" {
			obj.SetName(opts.Name)
		}
		applyDocumentDefaults(obj, namespace)
	}
	if err := Validate(obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// Create renders, validates and submits a job and returns its handle,
// seeded with the store's response.
func (c *Client) Create(ctx context.Context, opts CreateOptions) (*Job, error) {
	obj, err := c.Render(opts)
	if err != nil {
		return nil, err
	}
	out, err := c.store.Create(ctx, obj.GetNamespace(), obj, opts.DryRun)
	observeOp("create", err)
	if err != nil {
		return nil, err
	}
	c.log.Info().
		Str("job", out.GetName()).
		Str("namespace", out.GetNamespace()).
		Bool("dry_run", opts.DryRun).
		Msg("mpijob created")
	return c.newJob(out.GetName(), out.GetNamespace(), out), nil
}

// Get fetches a job. A missing job is a *NotFoundError.
func (c *Client) Get(ctx context.Context, name, namespace string) (*Job, error) {
	namespace = c.ns(namespace)
	obj, err := c.store.Get(ctx, namespace, name)
	observeOp("get", err)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, &NotFoundError{Name: name, Namespace: namespace}
		}
		return nil, err
	}
	return c.newJob(name, namespace, obj), nil
}

// List returns the jobs matching labelSelector. An empty namespace lists
// across all namespaces. No matches yields an empty slice.
func (c *Client) List(ctx context.Context, namespace, labelSelector string) ([]*Job, error) {
	items, err := c.store.List(ctx, namespace, labelSelector)
	observeOp("list", err)
	if err != nil {
		return nil, err
	}
	jobs := make([]*Job, 0, len(items))
	for i := range items {
		obj := &items[i]
		jobs = append(jobs, c.newJob(obj.GetName(), obj.GetNamespace(), obj))
	}
	return jobs, nil
}

// Delete removes a job. It is idempotent: a missing job reports true.
func (c *Client) Delete(ctx context.Context, name, namespace string, opts DeleteOptions) (bool, error) {
	namespace = c.ns(namespace)
	log := c.log.With().Str("job", name).Str("namespace", namespace).Logger()
	ok, err := deleteJob(ctx, c.store, c.clock, log, namespace, name, opts)
	if err == nil && ok {
		log.Info().Msg("mpijob deleted")
	}
	return ok, err
}
