package collector

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/opscart/k8s-resource-gather/pkg/describe"
	"github.com/opscart/k8s-resource-gather/pkg/models"
	"github.com/opscart/k8s-resource-gather/pkg/quantity"
)

// NodeCollector merges a node's structured capacity with the
// allocation and pod figures scraped from its describe report. The
// two fetches are independent and may observe the node at slightly
// different instants; that staleness window is accepted.
type NodeCollector struct {
	client    kubernetes.Interface
	describer describe.Describer
}

func NewNodeCollector(client kubernetes.Interface, describer describe.Describer) *NodeCollector {
	return &NodeCollector{client: client, describer: describer}
}

// Collect builds the per-node report block. A failed describe fetch
// degrades to a capacity-only summary; only a failed node get loses
// the block entirely.
func (c *NodeCollector) Collect(ctx context.Context, nodeName string) (*models.NodeReport, error) {
	node, err := c.client.CoreV1().Nodes().Get(ctx, nodeName, metav1.GetOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get node %s: %w", nodeName, err)
	}

	summary := models.NodeSummary{
		Name:           nodeName,
		CPUCapacity:    quantity.Parse(resourceString(node.Status.Capacity, corev1.ResourceCPU), quantity.CPU).Cores(),
		MemoryCapacity: quantity.Parse(resourceString(node.Status.Capacity, corev1.ResourceMemory), quantity.Memory).Gibibytes(),
	}

	text, err := c.describer.DescribeNode(ctx, nodeName)
	if err != nil {
		fmt.Printf("[WARN] Describe report unavailable for node %s: %v\n", nodeName, err)
		return &models.NodeReport{Summary: summary}, nil
	}

	rep := describe.ParseReport(text)
	summary.CPURequest = quantity.Parse(rep.Allocated.CPURequest, quantity.CPU).Cores()
	summary.CPULimit = quantity.Parse(rep.Allocated.CPULimit, quantity.CPU).Cores()
	summary.MemoryRequest = quantity.Parse(rep.Allocated.MemoryRequest, quantity.Memory).Gibibytes()
	summary.MemoryLimit = quantity.Parse(rep.Allocated.MemoryLimit, quantity.Memory).Gibibytes()
	summary.PodCount = rep.PodCount

	pods := make([]models.PodDetailRecord, 0, len(rep.Pods))
	for _, pl := range rep.Pods {
		pods = append(pods, models.PodDetailRecord{
			Namespace:     pl.Namespace,
			PodName:       pl.Name,
			CPURequest:    quantity.Parse(pl.CPURequest, quantity.CPU).Millicores(),
			CPULimit:      quantity.Parse(pl.CPULimit, quantity.CPU).Millicores(),
			MemoryRequest: quantity.Parse(pl.MemoryRequest, quantity.Memory).Mebibytes(),
			MemoryLimit:   quantity.Parse(pl.MemoryLimit, quantity.Memory).Mebibytes(),
		})
	}

	return &models.NodeReport{Summary: summary, Pods: pods}, nil
}
