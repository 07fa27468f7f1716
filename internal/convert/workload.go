package convert

import (
	"fmt"
	"strconv"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/hupe1980/helm2compose/internal/compose"
	"github.com/hupe1980/helm2compose/internal/k8s"
	"github.com/hupe1980/helm2compose/internal/transform/envsecrets"
)

// convertWorkload converts one workload resource into compose services: one
// per pod container, plus one per init container the main service depends on.
func (c *Converter) convertWorkload(r *k8s.Resource, result *Result, state *collectState) error {
	if r.Object == nil {
		return fmt.Errorf("missing object body")
	}

	podSpec, found, err := unstructured.NestedMap(r.Object.Object, "spec", "template", "spec")
	if err != nil || !found {
		return fmt.Errorf("no pod template spec")
	}

	podLabels, _, _ := unstructured.NestedStringMap(r.Object.Object, "spec", "template", "metadata", "labels")

	containers, _, _ := unstructured.NestedSlice(podSpec, "containers")
	if len(containers) == 0 {
		return fmt.Errorf("no containers in pod template")
	}

	restart := compose.RestartUnlessStopped
	if r.GVK.Kind == "Job" {
		restart = compose.RestartOnFailure
	}

	// Init containers become their own one-shot services the main service
	// waits for.
	var initNames []string

	initContainers, _, _ := unstructured.NestedSlice(podSpec, "initContainers")
	for _, ic := range initContainers {
		cm, ok := ic.(map[string]interface{})
		if !ok {
			continue
		}

		cname, _ := cm["name"].(string)
		svcName := r.Name + "-init-" + cname

		svc, err := c.buildService(r.Name, cm, state)
		if err != nil {
			return fmt.Errorf("init container %s: %w", cname, err)
		}

		svc.Restart = compose.RestartNo
		result.Services[svcName] = svc
		initNames = append(initNames, svcName)

		c.warnImage(result, svcName, svc.Image)
	}

	for i, container := range containers {
		cm, ok := container.(map[string]interface{})
		if !ok {
			continue
		}

		cname, _ := cm["name"].(string)

		// The first container owns the workload name; extra sidecars get a
		// suffixed name.
		svcName := r.Name
		if i > 0 {
			svcName = r.Name + "-" + cname
		}

		svc, err := c.buildService(svcName, cm, state)
		if err != nil {
			return fmt.Errorf("container %s: %w", cname, err)
		}

		svc.Restart = restart
		svc.Labels = r.Labels
		svc.Ports = matchServicePorts(podLabels, state.services)

		for _, initName := range initNames {
			if svc.DependsOn == nil {
				svc.DependsOn = make(map[string]compose.DependsOnCondition)
			}

			svc.DependsOn[initName] = compose.DependsOnCondition{
				Condition: compose.ConditionCompletedSuccessfully,
			}
		}

		result.Services[svcName] = svc

		c.warnImage(result, svcName, svc.Image)
	}

	return nil
}

// buildService maps one container spec onto a compose service. Kubernetes
// command/args map to compose entrypoint/command.
func (c *Converter) buildService(svcName string, container map[string]interface{}, state *collectState) (*compose.Service, error) {
	svc := &compose.Service{}
	svc.Image, _ = container["image"].(string)

	if cmd, found, _ := unstructured.NestedStringSlice(container, "command"); found {
		svc.Entrypoint = cmd
	}

	if args, found, _ := unstructured.NestedStringSlice(container, "args"); found {
		svc.Command = args
	}

	env, err := buildEnvironment(container, state)
	if err != nil {
		return nil, err
	}

	svc.Environment = env
	svc.Volumes = c.buildVolumes(svcName, container)

	return svc, nil
}

// buildEnvironment resolves container env entries. Literal values pass
// through, configMapKeyRef resolves against collected ConfigMaps, and
// secretKeyRef becomes a placeholder the env-secrets transform resolves
// against the secret store.
func buildEnvironment(container map[string]interface{}, state *collectState) (map[string]string, error) {
	envList, _, _ := unstructured.NestedSlice(container, "env")
	if len(envList) == 0 {
		return nil, nil
	}

	env := make(map[string]string, len(envList))

	for _, e := range envList {
		em, ok := e.(map[string]interface{})
		if !ok {
			continue
		}

		name, _ := em["name"].(string)
		if name == "" {
			continue
		}

		if value, ok := em["value"].(string); ok {
			env[name] = value
			continue
		}

		if ref, found, _ := unstructured.NestedMap(em, "valueFrom", "secretKeyRef"); found {
			secretName, _ := ref["name"].(string)
			key, _ := ref["key"].(string)
			env[name] = envsecrets.Ref(secretName, key)

			continue
		}

		if ref, found, _ := unstructured.NestedMap(em, "valueFrom", "configMapKeyRef"); found {
			cmName, _ := ref["name"].(string)
			key, _ := ref["key"].(string)

			if v, ok := state.configMaps[cmName][key]; ok {
				env[name] = v
			}

			continue
		}

		// fieldRef and resourceFieldRef have no compose equivalent.
	}

	if len(env) == 0 {
		return nil, nil
	}

	return env, nil
}

// buildVolumes maps volumeMounts to bind mounts under the volume root.
// ConfigMap/Secret-backed volumes are skipped; transforms repair the cases
// that matter (e.g. database data directories).
func (c *Converter) buildVolumes(svcName string, container map[string]interface{}) []string {
	mounts, _, _ := unstructured.NestedSlice(container, "volumeMounts")

	var volumes []string

	for _, m := range mounts {
		mm, ok := m.(map[string]interface{})
		if !ok {
			continue
		}

		volName, _ := mm["name"].(string)
		mountPath, _ := mm["mountPath"].(string)

		if volName == "" || mountPath == "" {
			continue
		}

		volumes = append(volumes, c.config.VolumeRoot+"/"+svcName+"-"+volName+":"+mountPath)
	}

	return volumes
}

// matchServicePorts returns published ports from v1 Services whose selector
// matches the pod labels.
func matchServicePorts(podLabels map[string]string, services []serviceSpec) []string {
	var ports []string

	for _, svc := range services {
		if len(svc.selector) == 0 || !labelsMatch(svc.selector, podLabels) {
			continue
		}

		for _, p := range svc.ports {
			ports = append(ports, strconv.FormatInt(p.port, 10)+":"+strconv.FormatInt(p.targetPort, 10))
		}
	}

	return ports
}

// labelsMatch reports whether every selector pair is present in labels.
func labelsMatch(selector, labels map[string]string) bool {
	for k, v := range selector {
		if labels[k] != v {
			return false
		}
	}

	return true
}
