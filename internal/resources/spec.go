package resources

import (
	"fmt"
	"sort"
	"strings"

	"mpijobctl/pkg/types"
)

// Default accelerator identifiers, combined as "<vendor>/<product>".
const (
	DefaultGPUVendor  = "nvidia.com"
	DefaultGPUProduct = "gpu"
)

// Spec bundles the CPU, memory and accelerator quantities of one replica.
// GPUVendor and GPUProduct only matter when GPU is present.
type Spec struct {
	CPU        Quantity
	Memory     Quantity
	GPU        Quantity
	GPUVendor  string
	GPUProduct string
}

// NewSpec builds a Spec from user-facing strings. CPU and memory are parsed
// leniently per kind; a non-positive gpu count leaves GPU absent.
func NewSpec(cpu, memory string, gpu int64) Spec {
	s := Spec{
		CPU:        ParseCPU(cpu),
		Memory:     ParseMemory(memory),
		GPUVendor:  DefaultGPUVendor,
		GPUProduct: DefaultGPUProduct,
	}
	if gpu > 0 {
		s.GPU = Count(gpu)
	}
	return s
}

// FromRequirements extracts a Spec from container requirements. CPU and
// memory come from requests. Accelerators are any key containing "gpu"
// (case-insensitive), searched in requests first and then in limits; a
// match in limits replaces one found in requests.
func FromRequirements(r types.ResourceRequirements) (Spec, error) {
	s := Spec{GPUVendor: DefaultGPUVendor, GPUProduct: DefaultGPUProduct}
	if v, ok := r.Requests["cpu"]; ok {
		s.CPU = ParseCPU(v)
	}
	if v, ok := r.Requests["memory"]; ok {
		s.Memory = ParseMemory(v)
	}
	for _, section := range []types.ResourceList{r.Requests, r.Limits} {
		key, ok := firstGPUKey(section)
		if !ok {
			continue
		}
		if parts := strings.Split(key, "/"); len(parts) == 2 {
			s.GPUVendor, s.GPUProduct = parts[0], parts[1]
		}
		q, err := ParseCount(section[key])
		if err != nil {
			return Spec{}, fmt.Errorf("accelerator %s: %w", key, err)
		}
		s.GPU = q
	}
	return s, nil
}

func firstGPUKey(l types.ResourceList) (string, bool) {
	keys := make([]string, 0, len(l))
	for k := range l {
		if strings.Contains(strings.ToLower(k), "gpu") {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return "", false
	}
	sort.Strings(keys)
	return keys[0], true
}

// GPUResourceName returns "<vendor>/<product>".
func (s Spec) GPUResourceName() string {
	return s.GPUVendor + "/" + s.GPUProduct
}

func (s Spec) hasGPU() bool { return !s.GPU.IsZero() && s.GPU.Int64() > 0 }

// ToRequirements renders identical requests and limits for every present
// quantity.
func (s Spec) ToRequirements() types.ResourceRequirements {
	req := types.ResourceList{}
	lim := types.ResourceList{}
	if !s.CPU.IsZero() {
		req["cpu"], lim["cpu"] = s.CPU.Format(), s.CPU.Format()
	}
	if !s.Memory.IsZero() {
		req["memory"], lim["memory"] = s.Memory.Format(), s.Memory.Format()
	}
	if s.hasGPU() {
		name := s.GPUResourceName()
		req[name], lim[name] = s.GPU.Format(), s.GPU.Format()
	}
	return types.ResourceRequirements{Requests: req, Limits: lim}
}

// Scale returns the totals for the given number of replicas. Each quantity
// is scaled on its own.
func (s Spec) Scale(replicas int64) Spec {
	out := Spec{
		CPU:        s.CPU.Scale(replicas),
		Memory:     s.Memory.Scale(replicas),
		GPUVendor:  DefaultGPUVendor,
		GPUProduct: DefaultGPUProduct,
	}
	if s.hasGPU() {
		out.GPU = s.GPU.Scale(replicas)
		out.GPUVendor, out.GPUProduct = s.GPUVendor, s.GPUProduct
	}
	return out
}

func (s Spec) String() string {
	var parts []string
	if !s.CPU.IsZero() {
		parts = append(parts, s.CPU.Format()+" CPU")
	}
	if !s.Memory.IsZero() {
		parts = append(parts, s.Memory.Format()+" Memory")
	}
	if s.hasGPU() {
		parts = append(parts, fmt.Sprintf("%s GPU (%s)", s.GPU.Format(), s.GPUResourceName()))
	}
	if len(parts) == 0 {
		return "No resources specified"
	}
	return strings.Join(parts, ", ")
}
