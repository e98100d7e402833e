package collector

import (
	"context"
	"testing"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/opscart/k8s-resource-gather/pkg/models"
)

func newFakeDynamic() *dynamicfake.FakeDynamicClient {
	return dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(),
		map[schema.GroupVersionResource]string{
			deploymentConfigGVR: "DeploymentConfigList",
		})
}

func claimPodSpec(claimName string) corev1.PodSpec {
	return corev1.PodSpec{
		Volumes: []corev1.Volume{{
			Name: "data",
			VolumeSource: corev1.VolumeSource{
				PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{ClaimName: claimName},
			},
		}},
	}
}

func deployment(name, claim string, replicas int32) *appsv1.Deployment {
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: "team-a"},
		Spec: appsv1.DeploymentSpec{
			Template: corev1.PodTemplateSpec{Spec: claimPodSpec(claim)},
		},
		Status: appsv1.DeploymentStatus{Replicas: replicas},
	}
}

func boundPV(name, claimNS, claimName string) *corev1.PersistentVolume {
	return &corev1.PersistentVolume{
		ObjectMeta: metav1.ObjectMeta{Name: name},
		Spec: corev1.PersistentVolumeSpec{
			Capacity: corev1.ResourceList{corev1.ResourceStorage: resource.MustParse("10Gi")},
			ClaimRef: &corev1.ObjectReference{Namespace: claimNS, Name: claimName},
		},
	}
}

func TestVolumeCollectorTwoDeployments(t *testing.T) {
	pvc := &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{Name: "data-claim", Namespace: "team-a"},
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce, corev1.ReadOnlyMany},
		},
	}

	client := fake.NewSimpleClientset(pvc,
		deployment("web", "data-claim", 3),
		deployment("worker", "data-claim", 2),
		deployment("other", "unrelated-claim", 5),
	)

	vc := NewVolumeCollector(client, newFakeDynamic())
	records := vc.Collect(context.Background(), boundPV("pv-1", "team-a", "data-claim"))

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	for _, rec := range records {
		if rec.PVName != "pv-1" || rec.PVCName != "data-claim" || rec.PVCNamespace != "team-a" {
			t.Errorf("pv/pvc columns differ across rows: %+v", rec)
		}
		if rec.PVSize != "10Gi" {
			t.Errorf("PVSize = %q, want 10Gi", rec.PVSize)
		}
		if rec.AccessModes != "ReadWriteOnce,ReadOnlyMany" {
			t.Errorf("AccessModes = %q", rec.AccessModes)
		}
	}

	byWorkload := map[string]string{}
	for _, rec := range records {
		byWorkload[rec.RelatedWorkload] = rec.PodCount
	}
	if byWorkload["Deployment/web"] != "3" || byWorkload["Deployment/worker"] != "2" {
		t.Errorf("pod counts = %v, want web=3 worker=2", byWorkload)
	}
}

func TestVolumeCollectorUnboundPV(t *testing.T) {
	client := fake.NewSimpleClientset()
	vc := NewVolumeCollector(client, newFakeDynamic())

	pv := &corev1.PersistentVolume{
		ObjectMeta: metav1.ObjectMeta{Name: "orphan"},
		Spec: corev1.PersistentVolumeSpec{
			Capacity: corev1.ResourceList{corev1.ResourceStorage: resource.MustParse("5Gi")},
		},
	}

	records := vc.Collect(context.Background(), pv)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	rec := records[0]
	if rec.PVCName != models.NotAvailable || rec.PVCNamespace != models.NotAvailable {
		t.Errorf("unbound PV pvc columns = %q/%q, want N/A", rec.PVCName, rec.PVCNamespace)
	}
	if rec.PodCount != models.NotAvailable || rec.RelatedWorkload != models.NotAvailable {
		t.Errorf("unbound PV join columns = %q/%q, want N/A", rec.PodCount, rec.RelatedWorkload)
	}
}

func TestVolumeCollectorNoReferencingWorkload(t *testing.T) {
	pvc := &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{Name: "lonely-claim", Namespace: "team-a"},
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
		},
	}

	client := fake.NewSimpleClientset(pvc)
	vc := NewVolumeCollector(client, newFakeDynamic())
	records := vc.Collect(context.Background(), boundPV("pv-2", "team-a", "lonely-claim"))

	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	rec := records[0]
	if rec.PVCName != "lonely-claim" || rec.PVCNamespace != "team-a" {
		t.Errorf("pvc columns = %q/%q, want resolved claim", rec.PVCName, rec.PVCNamespace)
	}
	if rec.AccessModes != "ReadWriteOnce" {
		t.Errorf("AccessModes = %q, want ReadWriteOnce", rec.AccessModes)
	}
	if rec.PodCount != models.NotAvailable || rec.RelatedWorkload != models.NotAvailable {
		t.Errorf("join columns = %q/%q, want N/A", rec.PodCount, rec.RelatedWorkload)
	}
}

func TestVolumeCollectorStatefulSetAndDaemonSet(t *testing.T) {
	pvc := &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{Name: "shared", Namespace: "team-a"},
	}

	sts := &appsv1.StatefulSet{
		ObjectMeta: metav1.ObjectMeta{Name: "db", Namespace: "team-a"},
		Spec: appsv1.StatefulSetSpec{
			Template: corev1.PodTemplateSpec{Spec: claimPodSpec("shared")},
		},
		Status: appsv1.StatefulSetStatus{CurrentReplicas: 3},
	}
	ds := &appsv1.DaemonSet{
		ObjectMeta: metav1.ObjectMeta{Name: "agent", Namespace: "team-a"},
		Spec: appsv1.DaemonSetSpec{
			Template: corev1.PodTemplateSpec{Spec: claimPodSpec("shared")},
		},
		Status: appsv1.DaemonSetStatus{NumberReady: 5},
	}

	client := fake.NewSimpleClientset(pvc, sts, ds)
	vc := NewVolumeCollector(client, newFakeDynamic())
	records := vc.Collect(context.Background(), boundPV("pv-3", "team-a", "shared"))

	byWorkload := map[string]string{}
	for _, rec := range records {
		byWorkload[rec.RelatedWorkload] = rec.PodCount
	}
	if byWorkload["StatefulSet/db"] != "3" {
		t.Errorf("statefulset signal = %q, want 3 (current replicas)", byWorkload["StatefulSet/db"])
	}
	if byWorkload["DaemonSet/agent"] != "5" {
		t.Errorf("daemonset signal = %q, want 5 (ready count)", byWorkload["DaemonSet/agent"])
	}
}

func TestSpecReferencesClaim(t *testing.T) {
	spec := claimPodSpec("data-claim")
	if !SpecReferencesClaim(spec, "data-claim") {
		t.Error("expected match for data-claim")
	}
	if SpecReferencesClaim(spec, "other-claim") {
		t.Error("unexpected match for other-claim")
	}
	if SpecReferencesClaim(corev1.PodSpec{}, "data-claim") {
		t.Error("unexpected match on empty spec")
	}
}

func TestPodCountSignal(t *testing.T) {
	if got := PodCountSignal(models.KindDeployment, 4); got != 4 {
		t.Errorf("deployment = %d, want 4", got)
	}
	if got := PodCountSignal(models.KindCronJob, 9); got != 0 {
		t.Errorf("cronjob = %d, want 0: no standing replicas", got)
	}
	if got := PodCountSignal(models.WorkloadKind("Job"), 9); got != 0 {
		t.Errorf("unknown kind = %d, want 0", got)
	}
}
