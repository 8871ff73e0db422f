package kube

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// Apply outcomes.
const (
	StatusOK     = "ok"
	StatusDryRun = "dry-run"
	StatusError  = "error"
)

// Result mirrors what a kubectl apply would have reported.
type Result struct {
	Status  string
	Message string
	Command string
	Stdout  string
	Stderr  string
}

// Applier creates or updates plan Deployments in a cluster. A disabled applier only
// reports the command that would have run.
type Applier struct {
	client    kubernetes.Interface
	namespace string
	enabled   bool
	logger    *zap.Logger
}

// NewApplier connects to the cluster when enabled. Connection failures are returned
// so the caller can fall back to a dry-run applier.
func NewApplier(kubeconfig, namespace string, enabled bool, logger *zap.Logger) (*Applier, error) {
	if !enabled {
		return NewApplierWithClient(nil, namespace, false, logger), nil
	}
	clientset, err := createKubernetesClient(kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("could not create kubernetes client: %w", err)
	}
	return NewApplierWithClient(clientset, namespace, true, logger), nil
}

func NewApplierWithClient(client kubernetes.Interface, namespace string, enabled bool, logger *zap.Logger) *Applier {
	if namespace == "" {
		namespace = "default"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Applier{
		client:    client,
		namespace: namespace,
		enabled:   enabled && client != nil,
		logger:    logger,
	}
}

func (a *Applier) Enabled() bool { return a.enabled }

func createKubernetesClient(kubeconfig string) (*kubernetes.Clientset, error) {
	config, err := rest.InClusterConfig()
	if err == nil {
		return kubernetes.NewForConfig(config)
	}

	kubeconfigPath := kubeconfig
	if kubeconfigPath == "" {
		kubeconfigPath = os.Getenv("KUBECONFIG")
	}
	if kubeconfigPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not get home directory: %w", err)
		}
		kubeconfigPath = filepath.Join(home, ".kube", "config")
	}

	if _, err := os.Stat(kubeconfigPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("kubeconfig not found at %s", kubeconfigPath)
	}

	config, err = clientcmd.BuildConfigFromFlags("", kubeconfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to build config from kubeconfig: %w", err)
	}
	config.Timeout = 15 * time.Second

	return kubernetes.NewForConfig(config)
}

// Apply creates the Deployment described by manifest, or updates it if it exists.
func (a *Applier) Apply(ctx context.Context, manifest string) Result {
	command := fmt.Sprintf("kubectl apply -n %s -f -", a.namespace)

	if !a.enabled {
		return Result{
			Status:  StatusDryRun,
			Message: "Cluster deployment disabled; manifest recorded but not applied",
			Command: command,
		}
	}
	if manifest == "" {
		return Result{Status: StatusError, Message: "No manifest supplied", Command: command, Stderr: "empty manifest"}
	}

	deployment, err := ParseDeployment(manifest)
	if err != nil {
		return Result{Status: StatusError, Message: "Invalid manifest", Command: command, Stderr: err.Error()}
	}
	deployment.Namespace = a.namespace

	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	deployments := a.client.AppsV1().Deployments(a.namespace)
	existing, err := deployments.Get(ctx, deployment.Name, metav1.GetOptions{})
	switch {
	case apierrors.IsNotFound(err):
		if _, err := deployments.Create(ctx, deployment, metav1.CreateOptions{}); err != nil {
			return a.failed(command, deployment.Name, err)
		}
		a.logger.Info("Deployment created",
			zap.String("name", deployment.Name),
			zap.String("namespace", a.namespace))
		return Result{
			Status:  StatusOK,
			Message: "Deployment created",
			Command: command,
			Stdout:  fmt.Sprintf("deployment.apps/%s created", deployment.Name),
		}
	case err != nil:
		return a.failed(command, deployment.Name, err)
	}

	deployment.ResourceVersion = existing.ResourceVersion
	if _, err := deployments.Update(ctx, deployment, metav1.UpdateOptions{}); err != nil {
		return a.failed(command, deployment.Name, err)
	}
	a.logger.Info("Deployment updated",
		zap.String("name", deployment.Name),
		zap.String("namespace", a.namespace))
	return Result{
		Status:  StatusOK,
		Message: "Deployment updated",
		Command: command,
		Stdout:  fmt.Sprintf("deployment.apps/%s configured", deployment.Name),
	}
}

func (a *Applier) failed(command, name string, err error) Result {
	a.logger.Error("Deployment apply failed",
		zap.String("name", name),
		zap.String("namespace", a.namespace),
		zap.Error(err))
	return Result{Status: StatusError, Message: "Deployment apply failed", Command: command, Stderr: err.Error()}
}
