package reporter

import (
	"strconv"

	"github.com/opscart/k8s-resource-gather/pkg/models"
)

// Report filenames within the run directory.
const (
	WorkloadFile = "workload.csv"
	QuotasFile   = "quotas-limits.csv"
	NodesFile    = "nodes.csv"
	VolumesFile  = "volumes.csv"
	UsageFile    = "usage.csv"
)

var WorkloadHeader = []string{
	"Namespace", "WorkloadType", "WorkloadName", "ContainerName",
	"CpuRequest (m)", "MemoryRequest (Mi)", "CpuLimit (m)", "MemoryLimit (Mi)",
}

var QuotaHeader = []string{
	"Namespace", "QuotaName", "PodsHard", "PodsUsed",
	"RequestsCpuHard (cores)", "RequestsCpuUsed (cores)",
	"RequestsMemoryHard (Gi)", "RequestsMemoryUsed (Gi)",
	"LimitsCpuHard (cores)", "LimitsCpuUsed (cores)",
	"LimitsMemoryHard (Gi)", "LimitsMemoryUsed (Gi)",
	"PvcsHard", "PvcsUsed", "RequestsStorageHard (Gi)",
	"RequestsStorageUsed (Gi)", "ConfigMapsHard", "ConfigMapsUsed",
	"SecretsHard", "SecretsUsed", "ServicesHard", "ServicesUsed",
}

var LimitRangeHeader = []string{
	"Namespace", "LimitRangeName",
	"ContainerDefaultCpuRequest (m)", "ContainerDefaultMemoryRequest (Mi)",
	"ContainerDefaultCpuLimit (m)", "ContainerDefaultMemoryLimit (Mi)",
	"ContainerMaxCpu (m)", "ContainerMaxMemory (Mi)",
	"ContainerMinCpu (m)", "ContainerMinMemory (Mi)",
	"PodMaxCpu (m)", "PodMaxMemory (Mi)",
	"PodMinCpu (m)", "PodMinMemory (Mi)",
	"PodDefaultCpuRequest (m)", "PodDefaultMemoryRequest (Mi)",
	"PodDefaultCpuLimit (m)", "PodDefaultMemoryLimit (Mi)",
	"PvcDefaultStorage (Mi)", "PvcMaxStorage (Mi)",
}

var NodeSummaryHeader = []string{
	"CpuRequest (cores)", "CpuLimit (cores)", "MemoryRequest (Gi)", "MemoryLimit (Gi)",
	"CpuCapacity (cores)", "MemoryCapacity (Gi)", "PodsCount",
}

var PodDetailHeader = []string{
	"Namespace", "PodName", "CpuRequest (m)", "CpuLimit (m)", "MemRequest (Mi)", "MemLimit (Mi)",
}

var VolumeHeader = []string{
	"PVName", "PVCName", "PVCNamespace", "PVSize", "AccessMode", "PodCount", "RelatedWorkload",
}

var UsageHeader = []string{
	"Namespace", "PodName", "ContainerName", "CpuUsage (m)", "MemoryUsage (Mi)",
}

func WorkloadRow(r models.ContainerResourceRecord) []string {
	return []string{
		r.Namespace, string(r.WorkloadKind), r.WorkloadName, r.ContainerName,
		r.CPURequest, r.MemoryRequest, r.CPULimit, r.MemoryLimit,
	}
}

func QuotaRow(r models.QuotaRecord) []string {
	return []string{
		r.Namespace, r.QuotaName, r.PodsHard, r.PodsUsed,
		r.RequestsCPUHard, r.RequestsCPUUsed,
		r.RequestsMemoryHard, r.RequestsMemoryUsed,
		r.LimitsCPUHard, r.LimitsCPUUsed,
		r.LimitsMemoryHard, r.LimitsMemoryUsed,
		r.PVCsHard, r.PVCsUsed, r.RequestsStorageHard,
		r.RequestsStorageUsed, r.ConfigMapsHard, r.ConfigMapsUsed,
		r.SecretsHard, r.SecretsUsed, r.ServicesHard, r.ServicesUsed,
	}
}

func LimitRangeRow(r models.LimitRangeRecord) []string {
	return []string{
		r.Namespace, r.LimitRangeName,
		r.ContainerDefaultCPURequest, r.ContainerDefaultMemoryRequest,
		r.ContainerDefaultCPULimit, r.ContainerDefaultMemoryLimit,
		r.ContainerMaxCPU, r.ContainerMaxMemory,
		r.ContainerMinCPU, r.ContainerMinMemory,
		r.PodMaxCPU, r.PodMaxMemory,
		r.PodMinCPU, r.PodMinMemory,
		r.PodDefaultCPURequest, r.PodDefaultMemoryRequest,
		r.PodDefaultCPULimit, r.PodDefaultMemoryLimit,
		r.PVCDefaultStorage, r.PVCMaxStorage,
	}
}

func NodeSummaryRow(s models.NodeSummary) []string {
	return []string{
		s.CPURequest, s.CPULimit, s.MemoryRequest, s.MemoryLimit,
		s.CPUCapacity, s.MemoryCapacity, strconv.Itoa(s.PodCount),
	}
}

func PodDetailRow(p models.PodDetailRecord) []string {
	return []string{
		p.Namespace, p.PodName, p.CPURequest, p.CPULimit, p.MemoryRequest, p.MemoryLimit,
	}
}

func VolumeRow(v models.VolumeRecord) []string {
	return []string{
		v.PVName, v.PVCName, v.PVCNamespace, v.PVSize, v.AccessModes, v.PodCount, v.RelatedWorkload,
	}
}

func UsageRow(u models.UsageRecord) []string {
	return []string{
		u.Namespace, u.PodName, u.ContainerName, u.CPUUsage, u.MemoryUsage,
	}
}

// WriteNodeBlock writes one node's complete block: name marker,
// summary table, pods marker, pod-detail table, and three padding
// rows. Rows of one node are never interleaved with another's.
func WriteNodeBlock(t *Table, rep *models.NodeReport) error {
	if err := t.Comment(rep.Summary.Name); err != nil {
		return err
	}
	if err := t.Header(NodeSummaryHeader); err != nil {
		return err
	}
	if err := t.Row(NodeSummaryRow(rep.Summary)); err != nil {
		return err
	}
	if err := t.Comment("Pods"); err != nil {
		return err
	}
	if err := t.Header(PodDetailHeader); err != nil {
		return err
	}
	for _, pod := range rep.Pods {
		if err := t.Row(PodDetailRow(pod)); err != nil {
			return err
		}
	}
	for i := 0; i < 3; i++ {
		if err := t.Blank(); err != nil {
			return err
		}
	}
	return nil
}
