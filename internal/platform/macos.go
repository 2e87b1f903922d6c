package platform

import "path/filepath"

// getMacOSInfo returns platform-specific information for macOS
func getMacOSInfo(homeDir, username string) *Info {
	return &Info{
		OS:       MacOS,
		HomeDir:  homeDir,
		Username: username,
		DataDir:  filepath.Join(homeDir, "Library/Application Support"),
		TrashDir: filepath.Join(homeDir, ".Trash"),
		ProtectedPaths: []string{
			"/",
			"/System",
			"/Applications",
			"/Library",
			"/bin",
			"/sbin",
			"/usr",
			"/etc",
			"/var",
			"/dev",
			"/private/etc",
			"/private/var/db",
			filepath.Join(homeDir, "Library/Application Support"),
			filepath.Join(homeDir, "Library/Preferences"),
			filepath.Join(homeDir, "Documents"),
			filepath.Join(homeDir, "Desktop"),
			filepath.Join(homeDir, "Pictures"),
			filepath.Join(homeDir, "Music"),
			filepath.Join(homeDir, "Movies"),
		},
	}
}
