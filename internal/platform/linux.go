package platform

import (
	"os"
	"path/filepath"
)

// getLinuxInfo returns platform-specific information for Linux
func getLinuxInfo(homeDir, username string) *Info {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		dataDir = filepath.Join(homeDir, ".local/share")
	}

	return &Info{
		OS:       Linux,
		HomeDir:  homeDir,
		Username: username,
		DataDir:  dataDir,
		TrashDir: filepath.Join(dataDir, "Trash"),
		ProtectedPaths: []string{
			"/",
			"/bin",
			"/boot",
			"/dev",
			"/etc",
			"/home",
			"/lib",
			"/lib64",
			"/opt",
			"/proc",
			"/root",
			"/run",
			"/sbin",
			"/srv",
			"/sys",
			"/usr",
			"/var",
			"/var/lib",
			filepath.Join(homeDir, ".config"),
			filepath.Join(homeDir, ".local/share"),
			filepath.Join(homeDir, ".ssh"),
			filepath.Join(homeDir, "Documents"),
			filepath.Join(homeDir, "Desktop"),
			filepath.Join(homeDir, "Pictures"),
			filepath.Join(homeDir, "Music"),
			filepath.Join(homeDir, "Videos"),
		},
	}
}
