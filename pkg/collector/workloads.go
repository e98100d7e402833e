package collector

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/opscart/k8s-resource-gather/pkg/models"
	"github.com/opscart/k8s-resource-gather/pkg/quantity"
)

// deploymentConfigGVR addresses the OpenShift DeploymentConfig group,
// which has no typed client here; reads go through the dynamic client.
var deploymentConfigGVR = schema.GroupVersionResource{
	Group:    "apps.openshift.io",
	Version:  "v1",
	Resource: "deploymentconfigs",
}

// WorkloadCollector produces container resource records for the
// workload kinds of the workload table.
type WorkloadCollector struct {
	client  kubernetes.Interface
	dynamic dynamic.Interface
}

func NewWorkloadCollector(client kubernetes.Interface, dyn dynamic.Interface) *WorkloadCollector {
	return &WorkloadCollector{client: client, dynamic: dyn}
}

// Collect lists Deployments, DeploymentConfigs and StatefulSets in one
// namespace and flattens them to per-container records. A kind whose
// list call fails is skipped with a warning; the others still report.
func (c *WorkloadCollector) Collect(ctx context.Context, namespace string) []models.ContainerResourceRecord {
	var records []models.ContainerResourceRecord

	deployments, err := c.client.AppsV1().Deployments(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		fmt.Printf("[WARN] Failed to list deployments in %s: %v\n", namespace, err)
	} else {
		for _, d := range deployments.Items {
			records = append(records, ExtractContainerResources(
				namespace, models.KindDeployment, d.Name, d.Spec.Template.Spec.Containers)...)
		}
	}

	records = append(records, c.collectDeploymentConfigs(ctx, namespace)...)

	statefulSets, err := c.client.AppsV1().StatefulSets(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		fmt.Printf("[WARN] Failed to list statefulsets in %s: %v\n", namespace, err)
	} else {
		for _, s := range statefulSets.Items {
			records = append(records, ExtractContainerResources(
				namespace, models.KindStatefulSet, s.Name, s.Spec.Template.Spec.Containers)...)
		}
	}

	return records
}

func (c *WorkloadCollector) collectDeploymentConfigs(ctx context.Context, namespace string) []models.ContainerResourceRecord {
	list, err := c.dynamic.Resource(deploymentConfigGVR).Namespace(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		// Expected on plain Kubernetes where the group does not exist.
		return nil
	}

	var records []models.ContainerResourceRecord
	for _, item := range list.Items {
		spec, err := podTemplateSpec(&item)
		if err != nil {
			fmt.Printf("[WARN] Skipping deploymentconfig %s/%s: %v\n", namespace, item.GetName(), err)
			continue
		}
		records = append(records, ExtractContainerResources(
			namespace, models.KindDeploymentConfig, item.GetName(), spec.Containers)...)
	}
	return records
}

// podTemplateSpec converts an unstructured workload's pod template
// spec into a typed PodSpec.
func podTemplateSpec(obj *unstructured.Unstructured) (*corev1.PodSpec, error) {
	specMap, found, err := unstructured.NestedMap(obj.Object, "spec", "template", "spec")
	if err != nil || !found {
		return nil, fmt.Errorf("no pod template spec: %v", err)
	}

	var podSpec corev1.PodSpec
	if err := runtime.DefaultUnstructuredConverter.FromUnstructured(specMap, &podSpec); err != nil {
		return nil, fmt.Errorf("decode pod template spec: %w", err)
	}
	return &podSpec, nil
}

func unstructuredInt64(obj map[string]interface{}, fields ...string) int64 {
	v, found, err := unstructured.NestedInt64(obj, fields...)
	if err != nil || !found {
		return 0
	}
	return v
}

// ExtractContainerResources builds one record per container with its
// four quantity fields formatted at container granularity. Containers
// are independent rows; nothing is aggregated across them. Absent
// requests/limits stay empty, never zero.
func ExtractContainerResources(namespace string, kind models.WorkloadKind, name string, containers []corev1.Container) []models.ContainerResourceRecord {
	records := make([]models.ContainerResourceRecord, 0, len(containers))

	for _, container := range containers {
		records = append(records, models.ContainerResourceRecord{
			Namespace:     namespace,
			WorkloadKind:  kind,
			WorkloadName:  name,
			ContainerName: container.Name,
			CPURequest:    cpuField(container.Resources.Requests),
			MemoryRequest: memoryField(container.Resources.Requests),
			CPULimit:      cpuField(container.Resources.Limits),
			MemoryLimit:   memoryField(container.Resources.Limits),
		})
	}
	return records
}

func cpuField(list corev1.ResourceList) string {
	return quantity.Parse(resourceString(list, corev1.ResourceCPU), quantity.CPU).Millicores()
}

func memoryField(list corev1.ResourceList) string {
	return quantity.Parse(resourceString(list, corev1.ResourceMemory), quantity.Memory).Mebibytes()
}

// resourceString returns the raw quantity string for one resource
// name, or "" when the entry is absent.
func resourceString(list corev1.ResourceList, name corev1.ResourceName) string {
	if list == nil {
		return ""
	}
	q, ok := list[name]
	if !ok {
		return ""
	}
	return q.String()
}
