// Package k8sjob implements internal/containerruntime.Runtime by running
// each worker as a Kubernetes batch/v1.Job: create, poll for readiness,
// exec or stream logs, then delete on stop.
package k8sjob

import (
	"context"
	"fmt"
	"io"
	"time"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	restclient "k8s.io/client-go/rest"
	"k8s.io/client-go/tools/remotecommand"
	"k8s.io/utils/ptr"

	"github.com/gpuorch/gpud/internal/containerruntime"
)

const labelJobID = "app.kubernetes.io/managed-by-task"

// Runtime runs worker tasks as Kubernetes Jobs in a single namespace.
type Runtime struct {
	Clientset kubernetes.Interface
	RestConfig *restclient.Config
	Namespace string
}

// New builds a Runtime against clientset/restConfig in namespace.
func New(clientset kubernetes.Interface, restConfig *restclient.Config, namespace string) *Runtime {
	return &Runtime{Clientset: clientset, RestConfig: restConfig, Namespace: namespace}
}

func (r *Runtime) create(ctx context.Context, spec containerruntime.CreateSpec, longLived bool) (string, error) {
	jobName := fmt.Sprintf("gpud-task-%s", randomSuffix())

	if err := r.deleteAndAwait(ctx, jobName); err != nil {
		return "", fmt.Errorf("clearing existing job %s: %w", jobName, err)
	}

	job := r.buildJob(jobName, spec, longLived)
	if _, err := r.Clientset.BatchV1().Jobs(r.Namespace).Create(ctx, job, metav1.CreateOptions{}); err != nil {
		return "", fmt.Errorf("creating job %s: %w", jobName, err)
	}

	if err := r.waitForPodReady(ctx, jobName, 2*time.Minute); err != nil {
		return "", fmt.Errorf("waiting for job %s pod: %w", jobName, err)
	}

	return jobName, nil
}

// CreateOneoff implements containerruntime.Runtime.
func (r *Runtime) CreateOneoff(ctx context.Context, spec containerruntime.CreateSpec) (string, error) {
	return r.create(ctx, spec, false)
}

// CreateLongLived implements containerruntime.Runtime.
func (r *Runtime) CreateLongLived(ctx context.Context, spec containerruntime.CreateSpec) (string, error) {
	return r.create(ctx, spec, true)
}

func (r *Runtime) buildJob(jobName string, spec containerruntime.CreateSpec, longLived bool) *batchv1.Job {
	env := []corev1.EnvVar{{Name: "MODEL_PATH", Value: "/models"}}
	for k, v := range spec.Env {
		env = append(env, corev1.EnvVar{Name: k, Value: v})
	}

	backoffLimit := int32(0)
	restartPolicy := corev1.RestartPolicyNever
	if longLived {
		// A session container is exec'd into repeatedly; keep it alive
		// until Stop explicitly deletes the Job.
		backoffLimit = 0
	}

	return &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Name:      jobName,
			Namespace: r.Namespace,
			Labels:    map[string]string{labelJobID: jobName},
		},
		Spec: batchv1.JobSpec{
			Completions:  ptr.To(int32(1)),
			Parallelism:  ptr.To(int32(1)),
			BackoffLimit: ptr.To(backoffLimit),
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: map[string]string{labelJobID: jobName},
				},
				Spec: corev1.PodSpec{
					RestartPolicy: restartPolicy,
					Containers: []corev1.Container{
						{
							Name:    "worker",
							Image:   spec.Image,
							Command: spec.Argv,
							Env:     env,
							Resources: corev1.ResourceRequirements{
								Limits: corev1.ResourceList{
									"nvidia.com/gpu": resourceQuantityOne(),
								},
							},
							VolumeMounts: []corev1.VolumeMount{
								{Name: "models", MountPath: "/models", ReadOnly: true},
							},
						},
					},
					Volumes: []corev1.Volume{
						{
							Name: "models",
							VolumeSource: corev1.VolumeSource{
								HostPath: &corev1.HostPathVolumeSource{Path: spec.ModelHostPath},
							},
						},
					},
				},
			},
		},
	}
}

func (r *Runtime) deleteAndAwait(ctx context.Context, jobName string) error {
	propagation := metav1.DeletePropagationForeground
	err := r.Clientset.BatchV1().Jobs(r.Namespace).Delete(ctx, jobName, metav1.DeleteOptions{
		PropagationPolicy: &propagation,
	})
	if err != nil && !apierrors.IsNotFound(err) {
		return err
	}
	if err == nil {
		return wait.PollUntilContextTimeout(ctx, 500*time.Millisecond, 30*time.Second, true,
			func(ctx context.Context) (bool, error) {
				_, getErr := r.Clientset.BatchV1().Jobs(r.Namespace).Get(ctx, jobName, metav1.GetOptions{})
				return apierrors.IsNotFound(getErr), nil
			})
	}
	return nil
}

func (r *Runtime) waitForPodReady(ctx context.Context, jobName string, timeout time.Duration) error {
	return wait.PollUntilContextTimeout(ctx, 500*time.Millisecond, timeout, true,
		func(ctx context.Context) (bool, error) {
			pod, err := r.findPod(ctx, jobName)
			if err != nil {
				return false, nil
			}
			if pod.Status.Phase == corev1.PodFailed {
				return false, fmt.Errorf("pod failed: %s", pod.Status.Message)
			}
			return pod.Status.Phase == corev1.PodRunning, nil
		})
}

func (r *Runtime) findPod(ctx context.Context, jobName string) (*corev1.Pod, error) {
	pods, err := r.Clientset.CoreV1().Pods(r.Namespace).List(ctx, metav1.ListOptions{
		LabelSelector: fmt.Sprintf("%s=%s", labelJobID, jobName),
	})
	if err != nil {
		return nil, err
	}
	if len(pods.Items) == 0 {
		return nil, fmt.Errorf("no pods found for job %s", jobName)
	}
	return &pods.Items[0], nil
}

// Exec implements containerruntime.Runtime via the remotecommand SPDY
// executor, mirroring kubectl exec.
func (r *Runtime) Exec(ctx context.Context, containerID string, argv []string) (*containerruntime.ExecResult, error) {
	pod, err := r.findPod(ctx, containerID)
	if err != nil {
		return nil, err
	}

	req := r.Clientset.CoreV1().RESTClient().Post().
		Resource("pods").
		Name(pod.Name).
		Namespace(r.Namespace).
		SubResource("exec").
		VersionedParams(&corev1.PodExecOptions{
			Command: argv,
			Stdout:  true,
			Stderr:  true,
		}, scheme.ParameterCodec)

	exec, err := remotecommand.NewSPDYExecutor(r.RestConfig, "POST", req.URL())
	if err != nil {
		return nil, fmt.Errorf("building exec executor: %w", err)
	}

	pr, pw := io.Pipe()
	exitCodeCh := make(chan error, 1)
	go func() {
		err := exec.StreamWithContext(ctx, remotecommand.StreamOptions{
			Stdout: pw,
			Stderr: pw,
		})
		exitCodeCh <- err
		pw.Close()
	}()

	exitCode := func(ctx context.Context) (int, error) {
		select {
		case err := <-exitCodeCh:
			if err != nil {
				return 1, nil
			}
			return 0, nil
		case <-ctx.Done():
			return -1, ctx.Err()
		}
	}

	return &containerruntime.ExecResult{Stdout: pr, ExitCode: exitCode}, nil
}

// StreamLogs implements containerruntime.Runtime. The returned ReadCloser's
// Read blocks on the Kubernetes log stream when follow is true.
func (r *Runtime) StreamLogs(ctx context.Context, containerID string, follow bool) (io.ReadCloser, error) {
	pod, err := r.findPod(ctx, containerID)
	if err != nil {
		return nil, err
	}
	req := r.Clientset.CoreV1().Pods(r.Namespace).GetLogs(pod.Name, &corev1.PodLogOptions{Follow: follow})
	stream, err := req.Stream(ctx)
	if err != nil {
		return nil, fmt.Errorf("streaming logs for job %s: %w", containerID, err)
	}
	return stream, nil
}

// Stop implements containerruntime.Runtime by deleting the Job; Kubernetes
// Jobs have no graceful-stop-then-kill primitive distinct from deletion.
func (r *Runtime) Stop(ctx context.Context, containerID string, _ time.Duration) error {
	return r.Remove(ctx, containerID)
}

// Remove implements containerruntime.Runtime.
func (r *Runtime) Remove(ctx context.Context, containerID string) error {
	propagation := metav1.DeletePropagationForeground
	err := r.Clientset.BatchV1().Jobs(r.Namespace).Delete(ctx, containerID, metav1.DeleteOptions{
		PropagationPolicy: &propagation,
	})
	if apierrors.IsNotFound(err) {
		return nil
	}
	return err
}

func randomSuffix() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

func resourceQuantityOne() resource.Quantity {
	return resource.MustParse("1")
}
