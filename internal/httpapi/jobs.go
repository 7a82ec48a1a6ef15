package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"mpijobctl/internal/mpijob"
	"mpijobctl/pkg/types"
)

type handlers struct {
	svc Service
}

// fail writes err with its mapped status and logs the outcome.
func fail(w http.ResponseWriter, r *http.Request, op string, start time.Time, err error) {
	code := statusFor(err)
	writeJSONError(w, code, err.Error())
	logEnd(r, op, code, start, err)
}

// create godoc
//
// @Summary      Create an MPIJob
// @Description  Builds a job from worker/launcher templates, or submits a full document.
// @Tags         mpijobs
// @Accept       json
// @Produce      json
// @Param        namespace  path  string                  true  "Namespace"
// @Param        body       body  types.CreateJobRequest  true  "Job request"
// @Success      201  {object}  map[string]any
// @Success      200  {object}  map[string]any  "dry run"
// @Failure      400  {object}  types.ErrorResponse
// @Failure      409  {object}  types.ErrorResponse
// @Router       /api/v1/namespaces/{namespace}/mpijobs [post]
func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ns := chi.URLParam(r, "namespace")
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		IncrementRejected("content_type")
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req types.CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			IncrementRejected("body_too_large")
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		IncrementRejected("invalid_json")
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	logStart(r, "create", ns, req.Name)
	// the route namespace is authoritative for submitted documents
	if docNS, _, _ := unstructured.NestedString(req.Document, "metadata", "namespace"); docNS != "" && docNS != ns {
		IncrementRejected("namespace_mismatch")
		fail(w, r, "create", start, mpijob.ErrValidation("document namespace %q does not match request namespace %q", docNS, ns))
		return
	}

	job, err := h.svc.Create(r.Context(), mpijob.CreateOptions{
		Name:              req.Name,
		Namespace:         ns,
		Worker:            req.Worker,
		Launcher:          req.Launcher,
		FromDocument:      req.Document,
		MPIImplementation: req.MPIImplementation,
		SlotsPerWorker:    req.SlotsPerWorker,
		RunPolicy:         req.RunPolicy,
		NetworkPolicy:     req.NetworkPolicy,
		DryRun:            req.DryRun,
	})
	if err != nil {
		fail(w, r, "create", start, err)
		return
	}
	code := http.StatusCreated
	if req.DryRun {
		code = http.StatusOK
	}
	writeJSON(w, code, job.Raw().Object)
	logEnd(r, "create", code, start, nil)
}

// list godoc
//
// @Summary      List MPIJobs
// @Tags         mpijobs
// @Produce      json
// @Param        namespace      path   string  true   "Namespace"
// @Param        labelSelector  query  string  false  "Label selector"
// @Param        status         query  string  false  "Phase filter (Created, Running, Succeeded, Failed, Unknown)"
// @Success      200  {object}  types.JobListResponse
// @Failure      400  {object}  types.ErrorResponse
// @Router       /api/v1/namespaces/{namespace}/mpijobs [get]
func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	// empty on /api/v1/mpijobs: every namespace
	ns := chi.URLParam(r, "namespace")
	var filter *mpijob.Phase
	if s := r.URL.Query().Get("status"); s != "" {
		p, ok := mpijob.ParsePhase(s)
		if !ok {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", s))
			return
		}
		filter = &p
	}
	jobs, err := h.svc.List(r.Context(), ns, r.URL.Query().Get("labelSelector"))
	if err != nil {
		fail(w, r, "list", start, err)
		return
	}
	out := types.JobListResponse{Items: make([]types.JobSummary, 0, len(jobs))}
	for _, j := range jobs {
		if filter != nil && j.Phase() != *filter {
			continue
		}
		out.Items = append(out.Items, j.Summary())
	}
	writeJSON(w, http.StatusOK, out)
}

// get godoc
//
// @Summary      Get an MPIJob document
// @Tags         mpijobs
// @Produce      json
// @Param        namespace  path  string  true  "Namespace"
// @Param        name       path  string  true  "Job name"
// @Success      200  {object}  map[string]any
// @Failure      404  {object}  types.ErrorResponse
// @Router       /api/v1/namespaces/{namespace}/mpijobs/{name} [get]
func (h *handlers) get(w http.ResponseWriter, r *http.Request) {
	job, ok := h.lookup(w, r, "get")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, job.Raw().Object)
}

// status godoc
//
// @Summary      Get the derived status of an MPIJob
// @Tags         mpijobs
// @Produce      json
// @Param        namespace  path  string  true  "Namespace"
// @Param        name       path  string  true  "Job name"
// @Success      200  {object}  types.JobStatusResponse
// @Failure      404  {object}  types.ErrorResponse
// @Router       /api/v1/namespaces/{namespace}/mpijobs/{name}/status [get]
func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	job, ok := h.lookup(w, r, "status")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, job.StatusReport())
}

// delete godoc
//
// @Summary      Delete an MPIJob
// @Tags         mpijobs
// @Produce      json
// @Param        namespace       path   string  true   "Namespace"
// @Param        name            path   string  true   "Job name"
// @Param        wait            query  bool    false  "Block until the job is gone"
// @Param        timeoutSeconds  query  int     false  "Bound for wait"
// @Success      200  {object}  types.DeleteResponse
// @Failure      400  {object}  types.ErrorResponse
// @Router       /api/v1/namespaces/{namespace}/mpijobs/{name} [delete]
func (h *handlers) delete(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ns, name := chi.URLParam(r, "namespace"), chi.URLParam(r, "name")
	opts := mpijob.DeleteOptions{Timeout: deleteTimeout}
	q := r.URL.Query()
	if v := q.Get("wait"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "wait must be a boolean")
			return
		}
		opts.Wait = b
	}
	if v := q.Get("timeoutSeconds"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSONError(w, http.StatusBadRequest, "timeoutSeconds must be a non-negative integer")
			return
		}
		opts.Timeout = time.Duration(n) * time.Second
	}
	logStart(r, "delete", ns, name)

	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	deleted, err := h.svc.Delete(ctx, name, ns, opts)
	if err != nil {
		fail(w, r, "delete", start, err)
		return
	}
	resp := types.DeleteResponse{Deleted: deleted, Message: fmt.Sprintf("MPIJob %s deleted", name)}
	if !deleted {
		resp.Message = fmt.Sprintf("timed out waiting for MPIJob %s to be deleted", name)
	}
	writeJSON(w, http.StatusOK, resp)
	logEnd(r, "delete", http.StatusOK, start, nil)
}

// events godoc
//
// @Summary      Stream phase changes of an MPIJob
// @Description  NDJSON, one PhaseEvent per distinct phase; ends when the job completes.
// @Tags         mpijobs
// @Produce      application/x-ndjson
// @Param        namespace    path   string  true   "Namespace"
// @Param        name         path   string  true   "Job name"
// @Param        pollSeconds  query  int     false  "Poll interval"
// @Success      200  {object}  types.PhaseEvent
// @Failure      404  {object}  types.ErrorResponse
// @Router       /api/v1/namespaces/{namespace}/mpijobs/{name}/events [get]
func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	poll := pollInterval
	if v := r.URL.Query().Get("pollSeconds"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSONError(w, http.StatusBadRequest, "pollSeconds must be a positive integer")
			return
		}
		poll = time.Duration(n) * time.Second
	}
	job, ok := h.lookup(w, r, "events")
	if !ok {
		return
	}
	start := time.Now()

	w.Header().Set("Content-Type", "application/x-ndjson")
	var flush func()
	if f, ok := w.(http.Flusher); ok {
		flush = f.Flush
	}
	out := io.Writer(w)
	if requestLogLevel(r) >= LevelDebug {
		out = io.MultiWriter(w, &loggingLineWriter{})
	}
	enc := json.NewEncoder(out)

	// Join server base context with request context so shutdown ends streams too.
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	err := job.Monitor(ctx, poll, func(p mpijob.Phase, st types.JobStatus) {
		_ = enc.Encode(types.PhaseEvent{Name: job.Name(), Phase: p.String(), Status: st})
		if flush != nil {
			flush()
		}
	})
	if err != nil && ctx.Err() == nil {
		// headers are gone; report the failure in-band
		_ = enc.Encode(types.ErrorResponse{Error: err.Error(), Code: statusFor(err)})
	}
	logEnd(r, "events", http.StatusOK, start, err)
}

// logs godoc
//
// @Summary      Read pod logs of an MPIJob
// @Description  Without worker the launcher is read; worker=all reads every worker.
// @Tags         mpijobs
// @Produce      json
// @Param        namespace  path   string  true   "Namespace"
// @Param        name       path   string  true   "Job name"
// @Param        worker     query  string  false  "Worker index or all"
// @Param        container  query  string  false  "Container name"
// @Param        tailLines  query  int     false  "Last N lines"
// @Success      200  {object}  types.LogsResponse
// @Failure      404  {object}  types.ErrorResponse
// @Router       /api/v1/namespaces/{namespace}/mpijobs/{name}/logs [get]
func (h *handlers) logs(w http.ResponseWriter, r *http.Request) {
	opts := mpijob.LauncherLogs()
	if v := r.URL.Query().Get("worker"); v != "" {
		idx, err := parseWorker(v)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts = mpijob.WorkerLogs(idx)
	}
	h.serveLogs(w, r, opts)
}

func (h *handlers) launcherLogs(w http.ResponseWriter, r *http.Request) {
	h.serveLogs(w, r, mpijob.LauncherLogs())
}

func (h *handlers) workerLogs(w http.ResponseWriter, r *http.Request) {
	idx, err := parseWorker(chi.URLParam(r, "index"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.serveLogs(w, r, mpijob.WorkerLogs(idx))
}

func (h *handlers) serveLogs(w http.ResponseWriter, r *http.Request, opts mpijob.LogOptions) {
	q := r.URL.Query()
	opts.Container = q.Get("container")
	if v := q.Get("tailLines"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			writeJSONError(w, http.StatusBadRequest, "tailLines must be a non-negative integer")
			return
		}
		opts.TailLines = n
	}
	job, ok := h.lookup(w, r, "logs")
	if !ok {
		return
	}
	start := time.Now()
	logs, err := job.Logs(r.Context(), opts)
	if err != nil {
		fail(w, r, "logs", start, err)
		return
	}
	writeJSON(w, http.StatusOK, types.LogsResponse{Logs: logs})
}

// lookup fetches the job named by the path, writing the error response
// when it cannot.
func (h *handlers) lookup(w http.ResponseWriter, r *http.Request, op string) (*mpijob.Job, bool) {
	start := time.Now()
	ns, name := chi.URLParam(r, "namespace"), chi.URLParam(r, "name")
	job, err := h.svc.Get(r.Context(), name, ns)
	if err != nil {
		fail(w, r, op, start, err)
		return nil, false
	}
	return job, true
}

// parseWorker accepts a non-negative index, or "all" / "-1" for every worker.
func parseWorker(v string) (int, error) {
	if strings.EqualFold(v, "all") {
		return mpijob.AllWorkers, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < mpijob.AllWorkers {
		return 0, fmt.Errorf("worker must be an index or \"all\", got %q", v)
	}
	return n, nil
}
