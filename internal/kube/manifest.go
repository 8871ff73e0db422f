// Package kube renders plans into Kubernetes manifests and applies them to a cluster.
package kube

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"

	"github.com/namansh70747/greenops-planner/internal/planner"
)

const (
	labelApp      = "app.kubernetes.io/name"
	labelManaged  = "app.kubernetes.io/managed-by"
	labelPlan     = "greenops.io/plan"
	labelRegion   = "greenops.io/region"
	annotCarbon   = "greenops.io/carbon-intensity"
	annotSource   = "greenops.io/carbon-source"
	annotInstance = "greenops.io/instance-class"
	managedBy     = "greenops-planner"
	containerPort = 8080
)

var invalidNameChars = regexp.MustCompile(`[^a-z0-9-]+`)

// Renderer builds Deployment manifests for plans.
type Renderer struct {
	Namespace string
	Image     string
}

func NewRenderer(namespace, image string) *Renderer {
	if namespace == "" {
		namespace = "default"
	}
	return &Renderer{Namespace: namespace, Image: image}
}

// Deployment builds the apps/v1 Deployment for a plan: one container per component,
// replicas and placement taken from the plan target.
func (r *Renderer) Deployment(plan planner.Plan, components []planner.Component) *appsv1.Deployment {
	name := "greenops-" + dnsName(plan.ID)
	labels := map[string]string{
		labelApp:    name,
		labelPlan:   plan.ID,
		labelRegion: strings.ToLower(plan.Target.Region),
	}
	replicas := int32(plan.Target.Replicas)

	containers := make([]corev1.Container, 0, len(components))
	seen := make(map[string]int)
	for _, c := range components {
		cname := dnsName(c.Name)
		if cname == "" {
			cname = "component"
		}
		seen[cname]++
		if n := seen[cname]; n > 1 {
			cname = fmt.Sprintf("%s-%d", cname, n)
		}
		containers = append(containers, corev1.Container{
			Name:  cname,
			Image: r.Image,
			Env: []corev1.EnvVar{
				{Name: "COMPONENT_TYPE", Value: c.Type},
				{Name: "GREENOPS_REGION", Value: plan.Target.Region},
			},
			Ports: []corev1.ContainerPort{{ContainerPort: containerPort, Protocol: corev1.ProtocolTCP}},
		})
	}

	return &appsv1.Deployment{
		TypeMeta: metav1.TypeMeta{APIVersion: "apps/v1", Kind: "Deployment"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: r.Namespace,
			Labels: map[string]string{
				labelApp:     name,
				labelManaged: managedBy,
				labelPlan:    plan.ID,
				labelRegion:  strings.ToLower(plan.Target.Region),
			},
			Annotations: map[string]string{
				annotCarbon:   strconv.FormatFloat(plan.CarbonIntensity.ValueGCo2PerKwh, 'f', -1, 64),
				annotSource:   string(plan.CarbonIntensity.Source),
				annotInstance: plan.Target.InstanceClass,
			},
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{MatchLabels: map[string]string{labelApp: name}},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec:       corev1.PodSpec{Containers: containers},
			},
		},
	}
}

// Render returns the plan's Deployment as YAML.
func (r *Renderer) Render(plan planner.Plan, components []planner.Component) (string, error) {
	out, err := yaml.Marshal(r.Deployment(plan, components))
	if err != nil {
		return "", fmt.Errorf("failed to marshal deployment: %w", err)
	}
	return string(out), nil
}

// ParseDeployment decodes a Deployment manifest.
func ParseDeployment(manifest string) (*appsv1.Deployment, error) {
	var d appsv1.Deployment
	if err := yaml.UnmarshalStrict([]byte(manifest), &d); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if d.Kind != "" && d.Kind != "Deployment" {
		return nil, fmt.Errorf("unsupported manifest kind %q", d.Kind)
	}
	if d.Name == "" {
		return nil, fmt.Errorf("manifest has no metadata.name")
	}
	return &d, nil
}

func dnsName(s string) string {
	s = invalidNameChars.ReplaceAllString(strings.ToLower(s), "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = strings.TrimRight(s[:50], "-")
	}
	return s
}
