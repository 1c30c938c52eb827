//go:build !windows

package logging

func platformEnvironment() map[string]interface{} {
	return nil
}
