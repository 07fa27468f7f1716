// Package compose defines the in-memory Docker Compose model that the
// conversion pipeline builds up and the transforms mutate.
package compose

import (
	"sort"

	"github.com/hupe1980/helm2compose/internal/maputil"
)

// Restart policy values understood by Docker Compose.
const (
	RestartNo            = "no"
	RestartAlways        = "always"
	RestartOnFailure     = "on-failure"
	RestartUnlessStopped = "unless-stopped"
)

// DependsOn condition values for long-form depends_on entries.
const (
	ConditionStarted               = "service_started"
	ConditionHealthy               = "service_healthy"
	ConditionCompletedSuccessfully = "service_completed_successfully"
)

// DependsOnCondition is a long-form depends_on entry.
type DependsOnCondition struct {
	Condition string `yaml:"condition"`
}

// Service is one service entry of the compose project. Field order follows
// the conventional compose.yaml layout.
type Service struct {
	Image       string                        `yaml:"image,omitempty"`
	Entrypoint  []string                      `yaml:"entrypoint,omitempty"`
	Command     []string                      `yaml:"command,omitempty"`
	Environment map[string]string             `yaml:"environment,omitempty"`
	Volumes     []string                      `yaml:"volumes,omitempty"`
	Ports       []string                      `yaml:"ports,omitempty"`
	DependsOn   map[string]DependsOnCondition `yaml:"depends_on,omitempty"`
	Restart     string                        `yaml:"restart,omitempty"`
	Labels      map[string]string             `yaml:"labels,omitempty"`
}

// Clone returns a deep copy of the service. Transforms mutate services in
// place; tests use Clone to snapshot the before state.
func (s *Service) Clone() *Service {
	if s == nil {
		return nil
	}

	c := &Service{
		Image:       s.Image,
		Entrypoint:  append([]string(nil), s.Entrypoint...),
		Command:     append([]string(nil), s.Command...),
		Environment: maputil.CloneStringMap(s.Environment),
		Volumes:     append([]string(nil), s.Volumes...),
		Ports:       append([]string(nil), s.Ports...),
		Restart:     s.Restart,
		Labels:      maputil.CloneStringMap(s.Labels),
	}

	if s.DependsOn != nil {
		c.DependsOn = make(map[string]DependsOnCondition, len(s.DependsOn))
		for k, v := range s.DependsOn {
			c.DependsOn[k] = v
		}
	}

	return c
}

// Equal reports whether two services are semantically identical.
func (s *Service) Equal(o *Service) bool {
	if s == nil || o == nil {
		return s == o
	}

	if s.Image != o.Image || s.Restart != o.Restart {
		return false
	}

	if !equalSlices(s.Entrypoint, o.Entrypoint) || !equalSlices(s.Command, o.Command) ||
		!equalSlices(s.Volumes, o.Volumes) || !equalSlices(s.Ports, o.Ports) {
		return false
	}

	if !equalStringMaps(s.Environment, o.Environment) || !equalStringMaps(s.Labels, o.Labels) {
		return false
	}

	if len(s.DependsOn) != len(o.DependsOn) {
		return false
	}

	for k, v := range s.DependsOn {
		if ov, ok := o.DependsOn[k]; !ok || ov != v {
			return false
		}
	}

	return true
}

// Project is a complete compose project: a named set of services.
type Project struct {
	Name     string              `yaml:"name,omitempty"`
	Services map[string]*Service `yaml:"services"`
}

// NewProject creates an empty project with the given name.
func NewProject(name string) *Project {
	return &Project{
		Name:     name,
		Services: make(map[string]*Service),
	}
}

// ServiceNames returns the service names in sorted order.
func (p *Project) ServiceNames() []string {
	names := make([]string, 0, len(p.Services))
	for name := range p.Services {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func equalStringMaps(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}

	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}

	return true
}
