package nativehost

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// HostName must match the "name" of the manifest and the name the
// extension connects to.
const HostName = "com.warpdl.warplock"

const hostDescription = "warplock screen lock scheduler"

type Browser string

const (
	BrowserChrome   Browser = "chrome"
	BrowserFirefox  Browser = "firefox"
	BrowserChromium Browser = "chromium"
	BrowserEdge     Browser = "edge"
	BrowserBrave    Browser = "brave"
)

func SupportedBrowsers() []Browser {
	return []Browser{BrowserChrome, BrowserFirefox, BrowserChromium, BrowserEdge, BrowserBrave}
}

// ParseBrowser resolves a browser name; "all" returns every browser.
func ParseBrowser(name string) ([]Browser, error) {
	if name == "all" {
		return SupportedBrowsers(), nil
	}
	for _, b := range SupportedBrowsers() {
		if string(b) == name {
			return []Browser{b}, nil
		}
	}
	return nil, fmt.Errorf("unknown browser: %s", name)
}

// IsFirefox reports whether b uses the Firefox manifest format.
func (b Browser) IsFirefox() bool {
	return b == BrowserFirefox
}

// ChromeManifest is the manifest format of Chromium-based browsers.
type ChromeManifest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Path           string   `json:"path"`
	Type           string   `json:"type"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// FirefoxManifest is the manifest format of Firefox.
type FirefoxManifest struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	Path              string   `json:"path"`
	Type              string   `json:"type"`
	AllowedExtensions []string `json:"allowed_extensions"`
}

func GenerateChromeManifest(hostPath, extensionID string) []byte {
	b, _ := json.MarshalIndent(ChromeManifest{
		Name:           HostName,
		Description:    hostDescription,
		Path:           hostPath,
		Type:           "stdio",
		AllowedOrigins: []string{"chrome-extension://" + extensionID + "/"},
	}, "", "  ")
	return b
}

func GenerateFirefoxManifest(hostPath, extensionID string) []byte {
	b, _ := json.MarshalIndent(FirefoxManifest{
		Name:              HostName,
		Description:       hostDescription,
		Path:              hostPath,
		Type:              "stdio",
		AllowedExtensions: []string{extensionID},
	}, "", "  ")
	return b
}

// ManifestPath returns where browser b looks for the manifest on
// platform, or "" when unsupported.
func ManifestPath(b Browser, platform, homeDir string) string {
	manifestFile := HostName + ".json"

	switch platform {
	case "darwin":
		appSupport := filepath.Join(homeDir, "Library", "Application Support")
		switch b {
		case BrowserChrome:
			return filepath.Join(appSupport, "Google", "Chrome", "NativeMessagingHosts", manifestFile)
		case BrowserChromium:
			return filepath.Join(appSupport, "Chromium", "NativeMessagingHosts", manifestFile)
		case BrowserFirefox:
			return filepath.Join(appSupport, "Mozilla", "NativeMessagingHosts", manifestFile)
		case BrowserEdge:
			return filepath.Join(appSupport, "Microsoft Edge", "NativeMessagingHosts", manifestFile)
		case BrowserBrave:
			return filepath.Join(appSupport, "BraveSoftware", "Brave-Browser", "NativeMessagingHosts", manifestFile)
		}
	case "linux", "freebsd":
		switch b {
		case BrowserChrome:
			return filepath.Join(homeDir, ".config", "google-chrome", "NativeMessagingHosts", manifestFile)
		case BrowserChromium:
			return filepath.Join(homeDir, ".config", "chromium", "NativeMessagingHosts", manifestFile)
		case BrowserFirefox:
			return filepath.Join(homeDir, ".mozilla", "native-messaging-hosts", manifestFile)
		case BrowserEdge:
			return filepath.Join(homeDir, ".config", "microsoft-edge", "NativeMessagingHosts", manifestFile)
		case BrowserBrave:
			return filepath.Join(homeDir, ".config", "BraveSoftware", "Brave-Browser", "NativeMessagingHosts", manifestFile)
		}
	case "windows":
		// browsers find this file through a registry key the installer
		// package creates
		return filepath.Join(homeDir, "AppData", "Local", "warplock", "NativeMessagingHosts", string(b), manifestFile)
	}
	return ""
}

// ManifestInstaller writes and removes manifests under a home directory.
type ManifestInstaller struct {
	HostPath           string
	ChromeExtensionID  string
	FirefoxExtensionID string
	// BaseDir replaces the home directory when set.
	BaseDir string
	// Platform replaces runtime.GOOS when set.
	Platform string
}

func (m *ManifestInstaller) homeDir() string {
	if m.BaseDir != "" {
		return m.BaseDir
	}
	home, _ := os.UserHomeDir()
	return home
}

func (m *ManifestInstaller) platform() string {
	if m.Platform != "" {
		return m.Platform
	}
	return runtime.GOOS
}

// Path returns the manifest location for b.
func (m *ManifestInstaller) Path(b Browser) string {
	return ManifestPath(b, m.platform(), m.homeDir())
}

// Install writes the manifest for b and returns its path.
func (m *ManifestInstaller) Install(b Browser) (string, error) {
	if m.HostPath == "" {
		return "", errors.New("host path is required")
	}
	var manifest []byte
	if b.IsFirefox() {
		if m.FirefoxExtensionID == "" {
			return "", errors.New("firefox extension ID is required")
		}
		manifest = GenerateFirefoxManifest(m.HostPath, m.FirefoxExtensionID)
	} else {
		if m.ChromeExtensionID == "" {
			return "", errors.New("chrome extension ID is required")
		}
		manifest = GenerateChromeManifest(m.HostPath, m.ChromeExtensionID)
	}

	path := m.Path(b)
	if path == "" {
		return "", fmt.Errorf("unsupported browser/platform: %s/%s", b, m.platform())
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create manifest directory: %w", err)
	}
	if err := os.WriteFile(path, manifest, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return path, nil
}

// Installed reports whether a manifest exists for b.
func (m *ManifestInstaller) Installed(b Browser) bool {
	path := m.Path(b)
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// Uninstall removes the manifest for b. A missing manifest is not an
// error.
func (m *ManifestInstaller) Uninstall(b Browser) error {
	path := m.Path(b)
	if path == "" {
		return nil
	}
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
