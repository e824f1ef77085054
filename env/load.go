package env

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/fxsml/knative-http-core/transporterr"
)

// document is the on-disk shape of an environment file: a top-level
// services list, each entry mirroring ServiceDefinition directly.
type document struct {
	Services []serviceDoc `yaml:"services"`
}

type serviceDoc struct {
	Name     string            `yaml:"name"`
	Kind     string            `yaml:"kind"`
	Role     string            `yaml:"role"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Metadata map[string]string `yaml:"metadata"`
}

// Load parses a YAML environment document into an Environment. Port
// defaults to UnsetPort when omitted (YAML's zero value of 0 would
// otherwise be indistinguishable from "no port").
func Load(r io.Reader) (*Environment, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading environment: %v", transporterr.ErrConfig, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing environment: %v", transporterr.ErrConfig, err)
	}

	services := make([]ServiceDefinition, len(doc.Services))
	for i, d := range doc.Services {
		kind := Kind(d.Kind)
		switch kind {
		case KindEndpoint, KindChannel, KindEvent:
		default:
			return nil, fmt.Errorf("%w: service %q has unknown kind %q", transporterr.ErrConfig, d.Name, d.Kind)
		}

		role := Role(d.Role)
		switch role {
		case RoleSource, RoleSink:
		default:
			return nil, fmt.Errorf("%w: service %q has unknown role %q", transporterr.ErrConfig, d.Name, d.Role)
		}

		port := d.Port
		if port == 0 {
			port = UnsetPort
		}

		services[i] = ServiceDefinition{
			Name:     d.Name,
			Kind:     kind,
			Role:     role,
			Host:     d.Host,
			Port:     port,
			Metadata: d.Metadata,
		}
	}

	return New(services), nil
}
