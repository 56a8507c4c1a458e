package configloader

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvConfig overrides config discovery with an explicit file path.
const EnvConfig = "SETGEIST_CONFIG"

var (
	userHomeDir = os.UserHomeDir
	systemDir   = "/etc/setgeist"
)

// ResolveConfigPath returns the config file for a subsystem, checking in order:
//  1. $SETGEIST_CONFIG
//  2. ~/.setgeist/<subsystem>/<file>
//  3. /etc/setgeist/<file>
func ResolveConfigPath(subsystem, file string) (string, error) {
	if env := os.Getenv(EnvConfig); env != "" {
		return env, nil
	}
	if home, err := userHomeDir(); err == nil {
		userPath := filepath.Join(home, ".setgeist", subsystem, file)
		if _, err := os.Stat(userPath); err == nil {
			return userPath, nil
		}
	}
	systemPath := filepath.Join(systemDir, file)
	if _, err := os.Stat(systemPath); err == nil {
		return systemPath, nil
	}
	return "", fmt.Errorf("no config found for %s/%s", subsystem, file)
}
