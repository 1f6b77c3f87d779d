// Copyright 2025 Patrick J. Scruggs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package slograygun

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/compute/metadata"
)

// RuntimePlatform names the hosting environment detected by [DetectRuntimeInfo].
type RuntimePlatform string

// Known runtime platforms.
const (
	RuntimeUnknown         RuntimePlatform = ""
	RuntimeCloudRunService RuntimePlatform = "cloud_run_service"
	RuntimeCloudRunJob     RuntimePlatform = "cloud_run_job"
	RuntimeCloudFunctions  RuntimePlatform = "cloud_functions"
	RuntimeAppEngine       RuntimePlatform = "app_engine"
	RuntimeKubernetes      RuntimePlatform = "kubernetes"
	RuntimeComputeEngine   RuntimePlatform = "compute_engine"
)

const (
	runtimeLabelPrefix      = "runtime:"
	metadataLookupTimeout   = 500 * time.Millisecond
	kubernetesNamespaceFile = "/var/run/secrets/kubernetes.io/serviceaccount/namespace"
)

// RuntimeInfo captures metadata about the hosting platform.
type RuntimeInfo struct {
	Platform RuntimePlatform
	Labels   map[string]string
}

var (
	runtimeInfo     RuntimeInfo
	runtimeInfoOnce sync.Once
)

// metadataClient is the subset of the GCE metadata client used for detection.
type metadataClient interface {
	OnGCE() bool
	Get(ctx context.Context, path string) (string, error)
}

type gceMetadataClient struct {
	client *metadata.Client
}

// OnGCE reports whether the metadata server is reachable.
func (c gceMetadataClient) OnGCE() bool { return metadata.OnGCE() }

// Get fetches a metadata value relative to computeMetadata/v1.
func (c gceMetadataClient) Get(ctx context.Context, path string) (string, error) {
	return c.client.GetWithContext(ctx, path)
}

var metadataClientFactory = func() metadataClient {
	return gceMetadataClient{client: metadata.NewClient(nil)}
}

// DetectRuntimeInfo inspects well-known environment variables and, on Google
// Compute Engine, the metadata server. Results are cached for reuse.
func DetectRuntimeInfo() RuntimeInfo {
	runtimeInfoOnce.Do(func() {
		runtimeInfo = detectRuntimeInfo()
	})
	return runtimeInfo
}

// detectRuntimeInfo runs the platform probes in order of specificity.
func detectRuntimeInfo() RuntimeInfo {
	info := RuntimeInfo{}
	switch {
	case detectCloudFunction(&info):
	case detectCloudRunService(&info):
	case detectCloudRunJob(&info):
	case detectAppEngine(&info):
	case detectKubernetes(&info):
	default:
		detectComputeEngine(&info, metadataClientFactory())
	}
	return info
}

// detectCloudFunction recognises Cloud Functions (gen2 exposes K_SERVICE too).
func detectCloudFunction(info *RuntimeInfo) bool {
	service := trimmedEnv("K_SERVICE")
	target := trimmedEnv("FUNCTION_TARGET")
	if service == "" || target == "" {
		return false
	}
	info.Platform = RuntimeCloudFunctions
	info.Labels = nonEmptyLabels(map[string]string{
		"cloud_function.name":   service,
		"cloud_function.target": target,
		"cloud_function.region": firstNonEmpty(trimmedEnv("FUNCTION_REGION"), trimmedEnv("GOOGLE_CLOUD_REGION")),
	})
	return true
}

// detectCloudRunService recognises Cloud Run services.
func detectCloudRunService(info *RuntimeInfo) bool {
	service := trimmedEnv("K_SERVICE")
	revision := trimmedEnv("K_REVISION")
	if service == "" || revision == "" {
		return false
	}
	info.Platform = RuntimeCloudRunService
	info.Labels = nonEmptyLabels(map[string]string{
		"cloud_run.service":       service,
		"cloud_run.revision":      revision,
		"cloud_run.configuration": trimmedEnv("K_CONFIGURATION"),
	})
	return true
}

// detectCloudRunJob recognises Cloud Run jobs.
func detectCloudRunJob(info *RuntimeInfo) bool {
	job := trimmedEnv("CLOUD_RUN_JOB")
	execution := trimmedEnv("CLOUD_RUN_EXECUTION")
	if job == "" || execution == "" {
		return false
	}
	info.Platform = RuntimeCloudRunJob
	info.Labels = nonEmptyLabels(map[string]string{
		"cloud_run.job":          job,
		"cloud_run.execution":    execution,
		"cloud_run.task_index":   trimmedEnv("CLOUD_RUN_TASK_INDEX"),
		"cloud_run.task_attempt": trimmedEnv("CLOUD_RUN_TASK_ATTEMPT"),
	})
	return true
}

// detectAppEngine recognises App Engine standard and flexible.
func detectAppEngine(info *RuntimeInfo) bool {
	service := trimmedEnv("GAE_SERVICE")
	version := trimmedEnv("GAE_VERSION")
	if service == "" && version == "" {
		return false
	}
	info.Platform = RuntimeAppEngine
	info.Labels = nonEmptyLabels(map[string]string{
		"appengine.service":  service,
		"appengine.version":  version,
		"appengine.instance": trimmedEnv("GAE_INSTANCE"),
	})
	return true
}

// detectKubernetes recognises pods through the injected service host variable.
func detectKubernetes(info *RuntimeInfo) bool {
	if trimmedEnv("KUBERNETES_SERVICE_HOST") == "" {
		return false
	}
	info.Platform = RuntimeKubernetes
	info.Labels = nonEmptyLabels(map[string]string{
		"k8s.namespace.name": firstNonEmpty(readNamespace(), trimmedEnv("POD_NAMESPACE"), trimmedEnv("NAMESPACE")),
		"k8s.pod.name":       firstNonEmpty(trimmedEnv("POD_NAME"), trimmedEnv("HOSTNAME")),
		"k8s.container.name": trimmedEnv("CONTAINER_NAME"),
	})
	return true
}

// detectComputeEngine asks the metadata server for the instance identity.
func detectComputeEngine(info *RuntimeInfo, md metadataClient) bool {
	if md == nil || !md.OnGCE() {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), metadataLookupTimeout)
	defer cancel()

	instanceID, err := md.Get(ctx, "instance/id")
	if err != nil || strings.TrimSpace(instanceID) == "" {
		return false
	}
	zone, _ := md.Get(ctx, "instance/zone")
	if idx := strings.LastIndex(zone, "/"); idx >= 0 {
		zone = zone[idx+1:]
	}

	info.Platform = RuntimeComputeEngine
	info.Labels = nonEmptyLabels(map[string]string{
		"gce.instance_id": strings.TrimSpace(instanceID),
		"gce.zone":        strings.TrimSpace(zone),
	})
	return true
}

// runtimeLabelData converts labels into custom data entries.
func runtimeLabelData(info RuntimeInfo, data map[string]string) {
	for k, v := range info.Labels {
		data[runtimeLabelPrefix+k] = v
	}
}

// nonEmptyLabels drops labels whose value is empty.
func nonEmptyLabels(labels map[string]string) map[string]string {
	for k, v := range labels {
		if v == "" {
			delete(labels, k)
		}
	}
	return labels
}

// trimmedEnv reads an environment variable and trims surrounding whitespace.
func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// readNamespace reads the Kubernetes namespace from the service account mount.
func readNamespace() string {
	data, err := os.ReadFile(kubernetesNamespaceFile)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
