package services

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/custodia-labs/lexrag/internal/core/domain"
)

// launchers holds the command that opens a path or URL on each platform.
var launchers = map[string][]string{
	"darwin":  {"open"},
	"linux":   {"xdg-open"},
	"windows": {"rundll32", "url.dll,FileProtocolHandler"},
}

// openURL hands target to the platform's default handler without waiting.
func openURL(target string) error {
	launcher, ok := launchers[runtime.GOOS]
	if !ok {
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return exec.Command(launcher[0], append(launcher[1:], target)...).Start()
}

// openableLocation turns a stored URI into something a browser or file
// manager accepts. Uploads through stdin or MCP have no location.
func openableLocation(uri string) string {
	if path, ok := strings.CutPrefix(uri, "file://"); ok {
		return path
	}
	if strings.HasPrefix(uri, "stdin:") || strings.HasPrefix(uri, "mcp:") {
		return ""
	}
	return uri
}

// openDocument opens doc's location with open.
func openDocument(doc *domain.Document, open func(string) error) error {
	target := openableLocation(doc.URI)
	if target == "" {
		return fmt.Errorf("%w: document %s has no location", domain.ErrInvalidInput, doc.ID)
	}
	return open(target)
}
