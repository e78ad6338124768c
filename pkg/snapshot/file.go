package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/newtron-network/tnmigrate/pkg/util"
)

// Default snapshot directories, relative to the snapshot root.
const (
	DirSource       = "config/tn3"
	DirPrevious     = "config/tn4/previous"
	DirCurrent      = "config/tn4/current"
	defaultFileMode = 0644
)

// FileSink writes each snapshot to <Dir>/<hostname>_<suffix>.
type FileSink struct {
	Dir string
}

// NewFileSink creates a sink writing under dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{Dir: dir}
}

// Path returns the file a snapshot is written to.
func (s *FileSink) Path(hostname, suffix string) string {
	return filepath.Join(s.Dir, util.SanitizeName(hostname)+"_"+suffix)
}

// Write creates Dir if needed and replaces the snapshot file. Content is
// written to a temporary file first so a failed write never truncates an
// earlier backup.
func (s *FileSink) Write(_ context.Context, hostname, suffix string, content []byte) error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}
	path := s.Path(hostname, suffix)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, content, defaultFileMode); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
