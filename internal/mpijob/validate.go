package mpijob

import (
	"sort"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/validation"
	"k8s.io/apimachinery/pkg/util/validation/field"

	"mpijobctl/pkg/types"
)

var (
	mpiImplementations = []string{types.MPIImplementationOpenMPI, types.MPIImplementationIntelMPI, types.MPIImplementationMPICH}
	cleanPodPolicies   = []string{types.CleanPodPolicyAll, types.CleanPodPolicyRunning, types.CleanPodPolicyNone}
	networkTemplates   = []string{types.NetworkPolicyDefault, types.NetworkPolicyRestricted}
)

// Validate runs the structural checks the operator's admission webhook
// applies, so bad documents fail before reaching the store. All problems
// are reported together in a *ValidationError.
func Validate(u *unstructured.Unstructured) error {
	job, err := decodeDocument(u)
	if err != nil {
		return err
	}
	errs := validateJob(job)
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Errs: errs}
}

func validateJob(job *types.MPIJob) field.ErrorList {
	var errs field.ErrorList
	meta := field.NewPath("metadata")
	switch {
	case job.Metadata.Name != "":
		for _, msg := range validation.IsDNS1123Subdomain(job.Metadata.Name) {
			errs = append(errs, field.Invalid(meta.Child("name"), job.Metadata.Name, msg))
		}
	case job.Metadata.GenerateName == "":
		errs = append(errs, field.Required(meta.Child("name"), "name or generateName is required"))
	}

	spec := field.NewPath("spec")
	errs = append(errs, validateReplicaSpecs(job.Spec.MPIReplicaSpecs, spec.Child("mpiReplicaSpecs"))...)
	if n := job.Spec.SlotsPerWorker; n != nil && *n < 1 {
		errs = append(errs, field.Invalid(spec.Child("slotsPerWorker"), *n, "must be >= 1"))
	}
	if impl := job.Spec.MPIImplementation; impl != "" && !contains(mpiImplementations, impl) {
		errs = append(errs, field.NotSupported(spec.Child("mpiImplementation"), impl, mpiImplementations))
	}
	if rp := job.Spec.RunPolicy; rp != nil {
		errs = append(errs, validateRunPolicy(rp, spec.Child("runPolicy"))...)
	}
	if np := job.Spec.NetworkPolicy; np != nil && np.Template != "" && !contains(networkTemplates, np.Template) {
		errs = append(errs, field.NotSupported(spec.Child("networkPolicy", "template"), np.Template, networkTemplates))
	}
	return errs
}

func validateReplicaSpecs(specs map[string]types.ReplicaSpec, path *field.Path) field.ErrorList {
	if len(specs) == 0 {
		return field.ErrorList{field.Required(path, "Launcher and Worker replica specs are required")}
	}
	var errs field.ErrorList
	launcher, ok := specs[types.RoleLauncher]
	switch {
	case !ok:
		errs = append(errs, field.Required(path.Key(types.RoleLauncher), "Launcher replica spec is required"))
	case launcher.Replicas == nil || *launcher.Replicas != 1:
		errs = append(errs, field.Invalid(path.Key(types.RoleLauncher).Child("replicas"), derefReplicas(launcher.Replicas), "must be exactly 1"))
	}
	worker, ok := specs[types.RoleWorker]
	switch {
	case !ok:
		errs = append(errs, field.Required(path.Key(types.RoleWorker), "Worker replica spec is required"))
	case worker.Replicas == nil || *worker.Replicas < 1:
		errs = append(errs, field.Invalid(path.Key(types.RoleWorker).Child("replicas"), derefReplicas(worker.Replicas), "must be >= 1"))
	}

	roles := make([]string, 0, len(specs))
	for role := range specs {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	for _, role := range roles {
		rs := specs[role]
		errs = append(errs, validatePodSpec(&rs.Template.Spec, path.Key(role).Child("template", "spec"))...)
	}
	return errs
}

func validatePodSpec(pod *corev1.PodSpec, path *field.Path) field.ErrorList {
	if len(pod.Containers) == 0 {
		return field.ErrorList{field.Required(path.Child("containers"), "at least one container is required")}
	}
	volumes := make(map[string]bool, len(pod.Volumes))
	for _, v := range pod.Volumes {
		volumes[v.Name] = true
	}
	var errs field.ErrorList
	for i, c := range pod.Containers {
		cp := path.Child("containers").Index(i)
		if c.Image == "" {
			errs = append(errs, field.Required(cp.Child("image"), "image is required"))
		}
		errs = append(errs, validateResources(c.Resources, cp.Child("resources"))...)
		for j, m := range c.VolumeMounts {
			if !volumes[m.Name] {
				errs = append(errs, field.NotFound(cp.Child("volumeMounts").Index(j).Child("name"), m.Name))
			}
		}
		if sc := c.SecurityContext; sc != nil && sc.Privileged != nil && *sc.Privileged {
			errs = append(errs, field.Forbidden(cp.Child("securityContext", "privileged"), "privileged containers are not allowed"))
		}
	}
	return errs
}

func validateResources(r corev1.ResourceRequirements, path *field.Path) field.ErrorList {
	var errs field.ErrorList
	names := make([]string, 0, len(r.Requests))
	for name := range r.Requests {
		names = append(names, string(name))
	}
	sort.Strings(names)
	for _, name := range names {
		req := r.Requests[corev1.ResourceName(name)]
		if strings.Contains(strings.ToLower(name), "gpu") && req.Sign() < 0 {
			errs = append(errs, field.Invalid(path.Child("requests").Key(name), req.String(), "must be >= 0"))
		}
		if limit, ok := r.Limits[corev1.ResourceName(name)]; ok && limit.Cmp(req) < 0 {
			errs = append(errs, field.Invalid(path.Child("limits").Key(name), limit.String(), "must be >= request "+req.String()))
		}
	}
	return errs
}

func validateRunPolicy(rp *types.RunPolicy, path *field.Path) field.ErrorList {
	var errs field.ErrorList
	if rp.CleanPodPolicy != "" && !contains(cleanPodPolicies, rp.CleanPodPolicy) {
		errs = append(errs, field.NotSupported(path.Child("cleanPodPolicy"), rp.CleanPodPolicy, cleanPodPolicies))
	}
	if v := rp.TTLSecondsAfterFinished; v != nil && *v < 0 {
		errs = append(errs, field.Invalid(path.Child("ttlSecondsAfterFinished"), *v, "must be >= 0"))
	}
	if v := rp.ActiveDeadlineSeconds; v != nil && *v < 0 {
		errs = append(errs, field.Invalid(path.Child("activeDeadlineSeconds"), *v, "must be >= 0"))
	}
	if v := rp.BackoffLimit; v != nil && *v < 0 {
		errs = append(errs, field.Invalid(path.Child("backoffLimit"), *v, "must be >= 0"))
	}
	if sp := rp.SchedulingPolicy; sp != nil && sp.Queue != "" {
		q := sp.Queue
		for _, msg := range validation.IsDNS1123Label(q) {
			errs = append(errs, field.Invalid(path.Child("schedulingPolicy", "queue"), q, msg))
		}
	}
	return errs
}

func derefReplicas(p *int32) any {
	if p == nil {
		return "<nil>"
	}
	return *p
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
