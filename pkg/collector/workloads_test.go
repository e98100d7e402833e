package collector

import (
	"testing"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"

	"github.com/opscart/k8s-resource-gather/pkg/models"
)

func container(name, cpuReq, memReq, cpuLim, memLim string) corev1.Container {
	c := corev1.Container{Name: name}
	c.Resources.Requests = corev1.ResourceList{}
	c.Resources.Limits = corev1.ResourceList{}
	if cpuReq != "" {
		c.Resources.Requests[corev1.ResourceCPU] = resource.MustParse(cpuReq)
	}
	if memReq != "" {
		c.Resources.Requests[corev1.ResourceMemory] = resource.MustParse(memReq)
	}
	if cpuLim != "" {
		c.Resources.Limits[corev1.ResourceCPU] = resource.MustParse(cpuLim)
	}
	if memLim != "" {
		c.Resources.Limits[corev1.ResourceMemory] = resource.MustParse(memLim)
	}
	return c
}

func TestExtractContainerResources(t *testing.T) {
	containers := []corev1.Container{
		container("app", "250m", "512Mi", "500m", "1Gi"),
		container("sidecar", "100m", "128Mi", "", ""),
		container("init-like", "", "", "", ""),
	}

	records := ExtractContainerResources("team-a", models.KindDeployment, "web", containers)

	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	for _, rec := range records {
		if rec.Namespace != "team-a" || rec.WorkloadKind != models.KindDeployment || rec.WorkloadName != "web" {
			t.Errorf("record identity = %s/%s/%s, want team-a/Deployment/web",
				rec.Namespace, rec.WorkloadKind, rec.WorkloadName)
		}
	}

	names := map[string]bool{}
	for _, rec := range records {
		names[rec.ContainerName] = true
	}
	if len(names) != 3 {
		t.Errorf("container names not distinct: %v", names)
	}

	app := records[0]
	if app.CPURequest != "250m" || app.MemoryRequest != "512Mi" {
		t.Errorf("app requests = %q/%q, want 250m/512Mi", app.CPURequest, app.MemoryRequest)
	}
	if app.CPULimit != "500m" || app.MemoryLimit != "1024Mi" {
		t.Errorf("app limits = %q/%q, want 500m/1024Mi", app.CPULimit, app.MemoryLimit)
	}

	sidecar := records[1]
	if sidecar.CPULimit != "" || sidecar.MemoryLimit != "" {
		t.Errorf("missing limits must stay empty, got %q/%q", sidecar.CPULimit, sidecar.MemoryLimit)
	}

	bare := records[2]
	if bare.CPURequest != "" || bare.MemoryRequest != "" || bare.CPULimit != "" || bare.MemoryLimit != "" {
		t.Errorf("container without resources must produce empty fields, got %+v", bare)
	}
}

func TestExtractContainerResourcesWholeCores(t *testing.T) {
	records := ExtractContainerResources("ns", models.KindStatefulSet, "db",
		[]corev1.Container{container("pg", "2", "2Gi", "", "")})

	if records[0].CPURequest != "2000m" {
		t.Errorf("whole-core request = %q, want \"2000m\"", records[0].CPURequest)
	}
	if records[0].MemoryRequest != "2048Mi" {
		t.Errorf("2Gi request = %q, want \"2048Mi\"", records[0].MemoryRequest)
	}
}
