package enhance

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/soniclab/denoise/internal/audio"
)

// OutputPath mirrors the last three segments of sourcePath under
// outDir: outDir/<class>/<recording>/<filename>, where class and
// recording are the 3rd- and 2nd-from-last path components.
func OutputPath(outDir, sourcePath string) string {
	name := filepath.Base(sourcePath)
	recording := filepath.Base(filepath.Dir(sourcePath))
	class := filepath.Base(filepath.Dir(filepath.Dir(sourcePath)))
	return filepath.Join(outDir, class, recording, name)
}

// Save writes the estimate to its mirrored location under outDir,
// creating missing destination directories. Creation is idempotent, so
// concurrent ranks racing on the same subdirectory are safe.
func Save(estimate *audio.Buffer, sourcePath, outDir string, sampleRate int) (string, error) {
	dest := OutputPath(outDir, sourcePath)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory for %s: %w", sourcePath, err)
	}
	if err := audio.WriteWAV(dest, estimate, sampleRate); err != nil {
		return "", err
	}
	return dest, nil
}
