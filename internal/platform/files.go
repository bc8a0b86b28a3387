package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// File permissions
const (
	DefaultDirPermissions = 0755
)

// Operating system constants
const (
	OSAndroid = "android"
)

// Android downloads location, visible to the Gallery and file managers
const AndroidDownloadsDir = "/sdcard/Download"

// CreateDirectoryIfNotExists creates the directory and any parents. It is safe
// to call concurrently for the same path: a directory created by another
// goroutine between the check and the create is not an error.
func CreateDirectoryIfNotExists(dirPath string) error {
	if dirPath == "" {
		return fmt.Errorf("directory path is empty")
	}
	if err := os.MkdirAll(dirPath, DefaultDirPermissions); err != nil {
		if info, statErr := os.Stat(dirPath); statErr == nil && info.IsDir() {
			return nil
		}
		return fmt.Errorf("create directory %q: %w", dirPath, err)
	}
	return nil
}

// GetHomeDownloadsDir returns the standard Downloads directory for the user
func GetHomeDownloadsDir() (string, error) {
	isAndroid := runtime.GOOS == OSAndroid ||
		os.Getenv("ANDROID_DATA") != "" ||
		os.Getenv("ANDROID_ROOT") != ""
	if isAndroid {
		return AndroidDownloadsDir, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, "Downloads"), nil
}

// SanitizeFolderName keeps letters, digits, spaces, hyphens and underscores,
// dropping everything else, and trims surrounding whitespace. Input is NFC
// normalized first so composed and decomposed accents behave alike.
//
//	SanitizeFolderName("My/Folder!") == "MyFolder"
func SanitizeFolderName(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// DestinationDir joins a sanitized folder onto the downloads root. An empty
// folder resolves to the root itself.
func DestinationDir(root, folder string) string {
	if folder == "" {
		return root
	}
	return filepath.Join(root, folder)
}
