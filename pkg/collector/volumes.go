package collector

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"

	"github.com/opscart/k8s-resource-gather/pkg/models"
)

// WorkloadMatch is one workload found referencing a claim, with the
// pod-count signal appropriate to its kind.
type WorkloadMatch struct {
	Kind     models.WorkloadKind
	Name     string
	PodCount int64
}

// VolumeCollector resolves each PV through its claim to the workloads
// mounting it. Every stage of the join is independently fallible;
// a broken link substitutes N/A sentinels instead of dropping the PV.
type VolumeCollector struct {
	client  kubernetes.Interface
	dynamic dynamic.Interface
}

func NewVolumeCollector(client kubernetes.Interface, dyn dynamic.Interface) *VolumeCollector {
	return &VolumeCollector{client: client, dynamic: dyn}
}

// Collect emits one row per workload referencing the PV's claim, or a
// single N/A row when the claim is unbound or nothing references it.
func (c *VolumeCollector) Collect(ctx context.Context, pv *corev1.PersistentVolume) []models.VolumeRecord {
	base := models.VolumeRecord{
		PVName:          pv.Name,
		PVCName:         models.NotAvailable,
		PVCNamespace:    models.NotAvailable,
		PVSize:          resourceString(pv.Spec.Capacity, corev1.ResourceStorage),
		AccessModes:     models.NotAvailable,
		PodCount:        models.NotAvailable,
		RelatedWorkload: models.NotAvailable,
	}

	claim := pv.Spec.ClaimRef
	if claim == nil || claim.Name == "" {
		return []models.VolumeRecord{base}
	}
	base.PVCName = claim.Name
	base.PVCNamespace = claim.Namespace

	pvc, err := c.client.CoreV1().PersistentVolumeClaims(claim.Namespace).Get(ctx, claim.Name, metav1.GetOptions{})
	if err != nil {
		fmt.Printf("[WARN] Failed to get pvc %s/%s: %v\n", claim.Namespace, claim.Name, err)
	} else {
		base.AccessModes = JoinAccessModes(pvc.Spec.AccessModes)
	}

	matches := c.matchWorkloads(ctx, claim.Namespace, claim.Name)
	if len(matches) == 0 {
		return []models.VolumeRecord{base}
	}

	records := make([]models.VolumeRecord, 0, len(matches))
	for _, m := range matches {
		rec := base
		rec.PodCount = strconv.FormatInt(m.PodCount, 10)
		rec.RelatedWorkload = string(m.Kind) + "/" + m.Name
		records = append(records, rec)
	}
	return records
}

// matchWorkloads scans every known workload kind in the claim's
// namespace. A kind whose list call fails is skipped with a warning;
// matches from the remaining kinds still count.
func (c *VolumeCollector) matchWorkloads(ctx context.Context, namespace, claimName string) []WorkloadMatch {
	var matches []WorkloadMatch

	deployments, err := c.client.AppsV1().Deployments(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		fmt.Printf("[WARN] Failed to list deployments in %s: %v\n", namespace, err)
	} else {
		for _, d := range deployments.Items {
			if SpecReferencesClaim(d.Spec.Template.Spec, claimName) {
				matches = append(matches, WorkloadMatch{models.KindDeployment, d.Name, int64(d.Status.Replicas)})
			}
		}
	}

	matches = append(matches, c.matchDeploymentConfigs(ctx, namespace, claimName)...)

	statefulSets, err := c.client.AppsV1().StatefulSets(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		fmt.Printf("[WARN] Failed to list statefulsets in %s: %v\n", namespace, err)
	} else {
		for _, s := range statefulSets.Items {
			if SpecReferencesClaim(s.Spec.Template.Spec, claimName) {
				matches = append(matches, WorkloadMatch{models.KindStatefulSet, s.Name, int64(s.Status.CurrentReplicas)})
			}
		}
	}

	daemonSets, err := c.client.AppsV1().DaemonSets(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		fmt.Printf("[WARN] Failed to list daemonsets in %s: %v\n", namespace, err)
	} else {
		for _, d := range daemonSets.Items {
			if SpecReferencesClaim(d.Spec.Template.Spec, claimName) {
				matches = append(matches, WorkloadMatch{models.KindDaemonSet, d.Name, int64(d.Status.NumberReady)})
			}
		}
	}

	cronJobs, err := c.client.BatchV1().CronJobs(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		fmt.Printf("[WARN] Failed to list cronjobs in %s: %v\n", namespace, err)
	} else {
		for _, cj := range cronJobs.Items {
			// CronJob nests its pod template one level deeper,
			// through the job template.
			if SpecReferencesClaim(cj.Spec.JobTemplate.Spec.Template.Spec, claimName) {
				matches = append(matches, WorkloadMatch{models.KindCronJob, cj.Name, PodCountSignal(models.KindCronJob, 0)})
			}
		}
	}

	return matches
}

func (c *VolumeCollector) matchDeploymentConfigs(ctx context.Context, namespace, claimName string) []WorkloadMatch {
	list, err := c.dynamic.Resource(deploymentConfigGVR).Namespace(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil
	}

	var matches []WorkloadMatch
	for _, item := range list.Items {
		spec, err := podTemplateSpec(&item)
		if err != nil {
			continue
		}
		if !SpecReferencesClaim(*spec, claimName) {
			continue
		}

		replicas := unstructuredInt64(item.Object, "status", "replicas")
		matches = append(matches, WorkloadMatch{models.KindDeploymentConfig, item.GetName(), replicas})
	}
	return matches
}

// SpecReferencesClaim reports whether any volume of the pod spec is
// backed by the named claim.
func SpecReferencesClaim(spec corev1.PodSpec, claimName string) bool {
	for _, vol := range spec.Volumes {
		if vol.PersistentVolumeClaim != nil && vol.PersistentVolumeClaim.ClaimName == claimName {
			return true
		}
	}
	return false
}

// PodCountSignal maps a workload kind to its standing pod count.
// CronJobs have no standing replica concept and always report 0, as
// does any kind outside the known set.
func PodCountSignal(kind models.WorkloadKind, observed int64) int64 {
	switch kind {
	case models.KindDeployment, models.KindDeploymentConfig, models.KindStatefulSet, models.KindDaemonSet:
		return observed
	case models.KindCronJob:
		return 0
	}
	return 0
}

// JoinAccessModes renders a claim's access modes as a comma-joined list.
func JoinAccessModes(modes []corev1.PersistentVolumeAccessMode) string {
	if len(modes) == 0 {
		return ""
	}
	parts := make([]string, 0, len(modes))
	for _, m := range modes {
		parts = append(parts, string(m))
	}
	return strings.Join(parts, ",")
}
