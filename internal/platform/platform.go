package platform

import (
	"os/user"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"
)

// Platform represents the operating system platform
type Platform string

const (
	MacOS   Platform = "darwin"
	Linux   Platform = "linux"
	Unknown Platform = "unknown"
)

// Info contains platform-specific paths and safety boundaries
type Info struct {
	OS       Platform
	HomeDir  string
	Username string
	// DataDir is where per-user application state lives (trash records).
	DataDir string
	// TrashDir is the OS recoverable-trash location for this user.
	TrashDir string
	// ProtectedPaths are never valid deletion targets, nor are their direct
	// parents up to the filesystem root.
	ProtectedPaths []string
}

// Detect returns the current platform
func Detect() Platform {
	switch runtime.GOOS {
	case "darwin":
		return MacOS
	case "linux":
		return Linux
	default:
		return Unknown
	}
}

// GetInfo returns platform-specific information for the current user
func GetInfo() (*Info, error) {
	currentUser, err := user.Current()
	if err != nil {
		return nil, err
	}

	homeDir := currentUser.HomeDir
	username := currentUser.Username

	switch Detect() {
	case MacOS:
		return getMacOSInfo(homeDir, username), nil
	case Linux:
		return getLinuxInfo(homeDir, username), nil
	default:
		return nil, ErrUnsupportedPlatform
	}
}

// IsProtected reports whether path may never be deleted. The protected set
// covers system roots, the home directory itself, and user data directories.
func (i *Info) IsProtected(path string) bool {
	cleaned := filepath.Clean(path)
	if cleaned == i.HomeDir {
		return true
	}
	for _, protected := range i.ProtectedPaths {
		if cleaned == protected {
			return true
		}
	}
	return false
}

// ContainsProtected reports whether path is an ancestor of any protected
// path, which would make a recursive delete sweep protected data away.
func (i *Info) ContainsProtected(path string) bool {
	cleaned := filepath.Clean(path)
	if cleaned == "/" {
		return true
	}
	prefix := cleaned + string(filepath.Separator)
	for _, protected := range i.ProtectedPaths {
		if strings.HasPrefix(protected, prefix) {
			return true
		}
	}
	return false
}

// DiskUsage describes capacity of the filesystem containing a path
type DiskUsage struct {
	Total       uint64
	Free        uint64
	Used        uint64
	UsedPercent float64
}

// GetDiskUsage probes the filesystem holding path
func GetDiskUsage(path string) (*DiskUsage, error) {
	stat, err := disk.Usage(path)
	if err != nil {
		return nil, err
	}
	return &DiskUsage{
		Total:       stat.Total,
		Free:        stat.Free,
		Used:        stat.Used,
		UsedPercent: stat.UsedPercent,
	}, nil
}

// Errors
var (
	ErrUnsupportedPlatform = &PlatformError{"unsupported platform"}
)

// PlatformError represents a platform-related error
type PlatformError struct {
	Message string
}

func (e *PlatformError) Error() string {
	return e.Message
}
