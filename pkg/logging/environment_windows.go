//go:build windows

package logging

import "github.com/yusufpapurcu/wmi"

type win32ComputerSystem struct {
	Manufacturer string
	Model        string
	Domain       string
	PartOfDomain bool
}

type win32OperatingSystem struct {
	Caption     string
	Version     string
	BuildNumber string
}

// platformEnvironment queries WMI; failures leave the facts out.
func platformEnvironment() map[string]interface{} {
	env := make(map[string]interface{})

	var systems []win32ComputerSystem
	if err := wmi.Query("SELECT Manufacturer, Model, Domain, PartOfDomain FROM Win32_ComputerSystem", &systems); err == nil && len(systems) > 0 {
		env["manufacturer"] = systems[0].Manufacturer
		env["model"] = systems[0].Model
		if systems[0].PartOfDomain {
			env["domain"] = systems[0].Domain
		}
	}

	var systemsOS []win32OperatingSystem
	if err := wmi.Query("SELECT Caption, Version, BuildNumber FROM Win32_OperatingSystem", &systemsOS); err == nil && len(systemsOS) > 0 {
		env["os_caption"] = systemsOS[0].Caption
		env["os_version"] = systemsOS[0].Version
		env["os_build"] = systemsOS[0].BuildNumber
	}
	return env
}
