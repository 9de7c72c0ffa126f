package processor

import (
	"os"

	"zoomclip/internal/pkg/logger"
	"zoomclip/internal/ports"
)

type Cleanup struct {
	cleanupLocal bool
	sp           ports.StorageProvider
	log          *logger.Logger
}

func NewCleanup(cleanupLocal bool, sp ports.StorageProvider, log *logger.Logger) *Cleanup {
	return &Cleanup{cleanupLocal: cleanupLocal, sp: sp, log: log}
}

// CleanupJob removes local render artifacts once they are safely stored
// elsewhere. With localfs the work directory copy is kept.
func (c *Cleanup) CleanupJob(paths ...string) {
	if !c.shouldCleanup() {
		return
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			c.log.Warn("cleanup failed", "path", p, "error", err.Error())
		}
	}
}

func (c *Cleanup) shouldCleanup() bool {
	return c.cleanupLocal && c.sp.Provider() != "localfs"
}
