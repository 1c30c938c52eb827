// pkg/apps/registry_other.go

//go:build !windows

package apps

import "github.com/windowsadmins/appsweep/pkg/logging"

type registryLister struct{}

// NewRegistryLister returns a Lister that reports every source as unsupported.
func NewRegistryLister(logger *logging.Logger) Lister {
	return registryLister{}
}

func (registryLister) List(source Source) ([]Application, error) {
	return nil, ErrUnsupported
}
