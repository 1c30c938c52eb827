//go:build !windows

package config

// loadFromPolicy has no policy store outside Windows.
func loadFromPolicy(config *Configuration) (bool, error) {
	return false, nil
}
