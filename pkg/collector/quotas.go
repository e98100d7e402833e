package collector

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/opscart/k8s-resource-gather/pkg/models"
	"github.com/opscart/k8s-resource-gather/pkg/quantity"
)

// QuotaCollector flattens ResourceQuotas and LimitRanges per namespace.
type QuotaCollector struct {
	client kubernetes.Interface
}

func NewQuotaCollector(client kubernetes.Interface) *QuotaCollector {
	return &QuotaCollector{client: client}
}

func (c *QuotaCollector) Quotas(ctx context.Context, namespace string) []models.QuotaRecord {
	list, err := c.client.CoreV1().ResourceQuotas(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		fmt.Printf("[WARN] Failed to list resourcequotas in %s: %v\n", namespace, err)
		return nil
	}

	records := make([]models.QuotaRecord, 0, len(list.Items))
	for i := range list.Items {
		records = append(records, BuildQuotaRecord(namespace, &list.Items[i]))
	}
	return records
}

func (c *QuotaCollector) LimitRanges(ctx context.Context, namespace string) []models.LimitRangeRecord {
	list, err := c.client.CoreV1().LimitRanges(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		fmt.Printf("[WARN] Failed to list limitranges in %s: %v\n", namespace, err)
		return nil
	}

	records := make([]models.LimitRangeRecord, 0, len(list.Items))
	for i := range list.Items {
		records = append(records, BuildLimitRangeRecord(namespace, &list.Items[i]))
	}
	return records
}

// BuildQuotaRecord projects one ResourceQuota onto the fixed metric
// schema. CPU metrics format as cores, memory/storage as Gi; object
// count metrics (pods, pvcs, configmaps, secrets, services) pass
// through as raw count strings.
func BuildQuotaRecord(namespace string, rq *corev1.ResourceQuota) models.QuotaRecord {
	hard := rq.Spec.Hard
	used := rq.Status.Used

	return models.QuotaRecord{
		Namespace: namespace,
		QuotaName: rq.Name,

		PodsHard: resourceString(hard, corev1.ResourcePods),
		PodsUsed: resourceString(used, corev1.ResourcePods),

		RequestsCPUHard:    quotaCores(hard, corev1.ResourceRequestsCPU),
		RequestsCPUUsed:    quotaCores(used, corev1.ResourceRequestsCPU),
		RequestsMemoryHard: quotaGib(hard, corev1.ResourceRequestsMemory),
		RequestsMemoryUsed: quotaGib(used, corev1.ResourceRequestsMemory),

		LimitsCPUHard:    quotaCores(hard, corev1.ResourceLimitsCPU),
		LimitsCPUUsed:    quotaCores(used, corev1.ResourceLimitsCPU),
		LimitsMemoryHard: quotaGib(hard, corev1.ResourceLimitsMemory),
		LimitsMemoryUsed: quotaGib(used, corev1.ResourceLimitsMemory),

		PVCsHard:            resourceString(hard, corev1.ResourcePersistentVolumeClaims),
		PVCsUsed:            resourceString(used, corev1.ResourcePersistentVolumeClaims),
		RequestsStorageHard: quotaGib(hard, corev1.ResourceRequestsStorage),
		RequestsStorageUsed: quotaGib(used, corev1.ResourceRequestsStorage),

		ConfigMapsHard: resourceString(hard, corev1.ResourceConfigMaps),
		ConfigMapsUsed: resourceString(used, corev1.ResourceConfigMaps),
		SecretsHard:    resourceString(hard, corev1.ResourceSecrets),
		SecretsUsed:    resourceString(used, corev1.ResourceSecrets),
		ServicesHard:   resourceString(hard, corev1.ResourceServices),
		ServicesUsed:   resourceString(used, corev1.ResourceServices),
	}
}

// BuildLimitRangeRecord folds the limit entries into one map keyed by
// type, last entry winning on a duplicate type, then projects the
// fixed scope/kind/resource layout. Each field defaults to empty
// independently.
func BuildLimitRangeRecord(namespace string, lr *corev1.LimitRange) models.LimitRangeRecord {
	byType := make(map[corev1.LimitType]corev1.LimitRangeItem)
	for _, item := range lr.Spec.Limits {
		byType[item.Type] = item
	}

	container := byType[corev1.LimitTypeContainer]
	pod := byType[corev1.LimitTypePod]
	pvc := byType[corev1.LimitTypePersistentVolumeClaim]

	return models.LimitRangeRecord{
		Namespace:      namespace,
		LimitRangeName: lr.Name,

		ContainerDefaultCPURequest:    limitMillicores(container.DefaultRequest),
		ContainerDefaultMemoryRequest: limitMebibytes(container.DefaultRequest, corev1.ResourceMemory),
		ContainerDefaultCPULimit:      limitMillicores(container.Default),
		ContainerDefaultMemoryLimit:   limitMebibytes(container.Default, corev1.ResourceMemory),
		ContainerMaxCPU:               limitMillicores(container.Max),
		ContainerMaxMemory:            limitMebibytes(container.Max, corev1.ResourceMemory),
		ContainerMinCPU:               limitMillicores(container.Min),
		ContainerMinMemory:            limitMebibytes(container.Min, corev1.ResourceMemory),

		PodMaxCPU:               limitMillicores(pod.Max),
		PodMaxMemory:            limitMebibytes(pod.Max, corev1.ResourceMemory),
		PodMinCPU:               limitMillicores(pod.Min),
		PodMinMemory:            limitMebibytes(pod.Min, corev1.ResourceMemory),
		PodDefaultCPURequest:    limitMillicores(pod.DefaultRequest),
		PodDefaultMemoryRequest: limitMebibytes(pod.DefaultRequest, corev1.ResourceMemory),
		PodDefaultCPULimit:      limitMillicores(pod.Default),
		PodDefaultMemoryLimit:   limitMebibytes(pod.Default, corev1.ResourceMemory),

		PVCDefaultStorage: limitMebibytes(pvc.Default, corev1.ResourceStorage),
		PVCMaxStorage:     limitMebibytes(pvc.Max, corev1.ResourceStorage),
	}
}

func quotaCores(list corev1.ResourceList, name corev1.ResourceName) string {
	return quantity.Parse(resourceString(list, name), quantity.CPU).Cores()
}

func quotaGib(list corev1.ResourceList, name corev1.ResourceName) string {
	return quantity.Parse(resourceString(list, name), quantity.Memory).Gibibytes()
}

func limitMillicores(list corev1.ResourceList) string {
	return quantity.Parse(resourceString(list, corev1.ResourceCPU), quantity.CPU).Millicores()
}

func limitMebibytes(list corev1.ResourceList, name corev1.ResourceName) string {
	return quantity.Parse(resourceString(list, name), quantity.Memory).Mebibytes()
}
