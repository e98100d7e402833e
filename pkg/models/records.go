package models

// WorkloadKind is the closed set of controller kinds the reports know
// about. Anything outside this set is never silently counted.
type WorkloadKind string

const (
	KindDeployment       WorkloadKind = "Deployment"
	KindDeploymentConfig WorkloadKind = "DeploymentConfig"
	KindStatefulSet      WorkloadKind = "StatefulSet"
	KindDaemonSet        WorkloadKind = "DaemonSet"
	KindCronJob          WorkloadKind = "CronJob"
)

// NotAvailable marks a join target that could not be resolved,
// as opposed to a field that is legitimately empty.
const NotAvailable = "N/A"

// ContainerResourceRecord is one row of the workload table: a single
// container's requests and limits, already formatted at container
// granularity (m / Mi). Missing fields stay "".
type ContainerResourceRecord struct {
	Namespace     string
	WorkloadKind  WorkloadKind
	WorkloadName  string
	ContainerName string
	CPURequest    string
	MemoryRequest string
	CPULimit      string
	MemoryLimit   string
}

// QuotaRecord is one ResourceQuota flattened to the fixed metric
// schema. Resource metrics are formatted at quota granularity
// (cores / Gi); count metrics pass through as raw strings.
type QuotaRecord struct {
	Namespace string
	QuotaName string

	PodsHard string
	PodsUsed string

	RequestsCPUHard    string
	RequestsCPUUsed    string
	RequestsMemoryHard string
	RequestsMemoryUsed string

	LimitsCPUHard    string
	LimitsCPUUsed    string
	LimitsMemoryHard string
	LimitsMemoryUsed string

	PVCsHard            string
	PVCsUsed            string
	RequestsStorageHard string
	RequestsStorageUsed string

	ConfigMapsHard string
	ConfigMapsUsed string
	SecretsHard    string
	SecretsUsed    string
	ServicesHard   string
	ServicesUsed   string
}

// LimitRangeRecord is one LimitRange projected onto the fixed
// scope/kind/resource layout at m / Mi granularity.
type LimitRangeRecord struct {
	Namespace      string
	LimitRangeName string

	ContainerDefaultCPURequest    string
	ContainerDefaultMemoryRequest string
	ContainerDefaultCPULimit      string
	ContainerDefaultMemoryLimit   string
	ContainerMaxCPU               string
	ContainerMaxMemory            string
	ContainerMinCPU               string
	ContainerMinMemory            string

	PodMaxCPU               string
	PodMaxMemory            string
	PodMinCPU               string
	PodMinMemory            string
	PodDefaultCPURequest    string
	PodDefaultMemoryRequest string
	PodDefaultCPULimit      string
	PodDefaultMemoryLimit   string

	PVCDefaultStorage string
	PVCMaxStorage     string
}

// NodeSummary merges a node's structured capacity with the allocation
// figures scraped from its describe report. The two sources are
// fetched independently and may reflect slightly different instants.
type NodeSummary struct {
	Name           string
	CPURequest     string
	CPULimit       string
	MemoryRequest  string
	MemoryLimit    string
	CPUCapacity    string
	MemoryCapacity string
	PodCount       int
}

// PodDetailRecord is one non-terminated pod scheduled on a node,
// formatted at container granularity.
type PodDetailRecord struct {
	Namespace     string
	PodName       string
	CPURequest    string
	CPULimit      string
	MemoryRequest string
	MemoryLimit   string
}

// NodeReport is the complete per-node block written to the nodes table.
type NodeReport struct {
	Summary NodeSummary
	Pods    []PodDetailRecord
}

// VolumeRecord is one row of the volumes table. A PV referenced by k
// workloads produces k rows with identical pv/pvc columns; a PV whose
// chain breaks anywhere produces a single row with NotAvailable
// sentinels.
type VolumeRecord struct {
	PVName          string
	PVCName         string
	PVCNamespace    string
	PVSize          string
	AccessModes     string
	PodCount        string
	RelatedWorkload string
}

// UsageRecord is one row of the optional usage table: instant CPU and
// memory consumption of a single container, formatted at container
// granularity.
type UsageRecord struct {
	Namespace     string
	PodName       string
	ContainerName string
	CPUUsage      string
	MemoryUsage   string
}
