package lastfm

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// OpenBrowser starts a browser on the authorization page. $BROWSER wins
// over the platform opener; the process is not waited for.
func OpenBrowser(ctx context.Context, url string) error {
	argv := browserCommand(os.Getenv("BROWSER"), runtime.GOOS, url)
	return exec.CommandContext(ctx, argv[0], argv[1:]...).Start()
}

func browserCommand(browser, goos, url string) []string {
	if fields := strings.Fields(browser); len(fields) > 0 {
		return append(fields, url)
	}
	if goos == "darwin" {
		return []string{"open", url}
	}
	return []string{"xdg-open", url}
}
