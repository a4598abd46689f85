package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// AppName names the per-user config and data directories
const AppName = "filerules"

// NormalizePath normalizes a path for the current platform
func NormalizePath(path string) string {
	// Convert to platform-specific separators
	normalized := filepath.Clean(path)

	// On Windows, ensure UNC paths are preserved
	if runtime.GOOS == "windows" {
		if strings.HasPrefix(path, "\\\\") && !strings.HasPrefix(normalized, "\\\\") {
			normalized = "\\\\" + normalized
		}
	}

	return normalized
}

// IsUNCPath checks if a path is a UNC path (Windows network share)
func IsUNCPath(path string) bool {
	if runtime.GOOS != "windows" {
		return false
	}
	return strings.HasPrefix(path, "\\\\") || strings.HasPrefix(path, "//")
}

// IsAbsolute checks if a path is absolute
func IsAbsolute(path string) bool {
	if IsUNCPath(path) {
		return true
	}
	return filepath.IsAbs(path)
}

// IsHomeRelative reports whether path is "~" or starts with "~/"
func IsHomeRelative(path string) bool {
	return path == "~" || strings.HasPrefix(path, "~/") ||
		(runtime.GOOS == "windows" && strings.HasPrefix(path, `~\`))
}

// ExpandHome replaces a leading "~" with the user's home directory.
// Other paths are returned unchanged.
func ExpandHome(path string) (string, error) {
	if !IsHomeRelative(path) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", &PathError{Path: path, Message: "cannot resolve home directory: " + err.Error()}
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

// ValidatePath checks if a path is valid for the current platform
func ValidatePath(path string) error {
	if path == "" {
		return &PathError{Path: path, Message: "path is empty"}
	}

	// Check for invalid characters based on OS
	if runtime.GOOS == "windows" {
		invalidChars := []string{"<", ">", ":", "\"", "|", "?", "*"}
		for _, char := range invalidChars {
			if strings.Contains(path, char) && !IsUNCPath(path) {
				return &PathError{Path: path, Message: "path contains invalid character: " + char}
			}
		}
	}

	return nil
}

// ValidateTarget checks that path can be stored as an action target:
// it must be absolute or relative to the home directory.
func ValidateTarget(path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if !IsAbsolute(path) && !IsHomeRelative(path) {
		return &PathError{Path: path, Message: "target must be absolute or start with ~"}
	}
	return nil
}

// ConfigDir returns $XDG_CONFIG_HOME/filerules, falling back to
// ~/.config/filerules
func ConfigDir() (string, error) {
	return resolveDir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns $XDG_DATA_HOME/filerules, falling back to
// ~/.local/share/filerules
func DataDir() (string, error) {
	return resolveDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// DataHome returns the base XDG data directory without the application name
func DataHome() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share"), nil
}

func resolveDir(envVar, homeRelative string) (string, error) {
	if dir := os.Getenv(envVar); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeRelative, AppName), nil
}

// PathError represents a path validation error
type PathError struct {
	Path    string
	Message string
}

func (e *PathError) Error() string {
	return "invalid path '" + e.Path + "': " + e.Message
}
