package docker

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// localBin is where Docker Desktop on macOS links the docker binary. It is
// often missing from the PATH of non login shells.
const localBin = "/usr/local/bin"

// CheckEnvironment makes sure `docker compose` can be used.
func CheckEnvironment(ctx context.Context, compose Compose, log *zap.Logger) error {
	ensureLocalBinOnPath(localBin, log)
	if !compose.IsInstalled(ctx) {
		return ErrComposeNotInstalled
	}
	return nil
}

func ensureLocalBinOnPath(dir string, log *zap.Logger) {
	if _, err := os.Lstat(filepath.Join(dir, "docker")); err != nil {
		return
	}
	path := os.Getenv("PATH")
	for _, p := range filepath.SplitList(path) {
		if p == dir {
			return
		}
	}
	log.Debug("adding to PATH", zap.String("dir", dir))
	os.Setenv("PATH", strings.Join([]string{path, dir}, string(os.PathListSeparator)))
}
