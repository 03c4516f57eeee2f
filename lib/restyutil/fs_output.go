package restyutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemOutput writes every captured ERP exchange into its own file of a directory, it
// implements telemetry.CaptureOutput.
type FilesystemOutput struct {
	directory string
	prefix    string
}

// NewFilesystemOutput creates the directory if needed, files of earlier runs are kept and new
// files are told apart by prefix.
func NewFilesystemOutput(dir, prefix string) (FilesystemOutput, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir, prefix: prefix}, nil
}

func (o FilesystemOutput) Write(id string, contents string) {
	name := strings.ReplaceAll(o.prefix+id, string(filepath.Separator), "_") + ".txt"
	err := os.WriteFile(filepath.Join(o.directory, name), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write captured exchange", "id", id, "err", err)
	}
}
