// Package checkpoint provides versioned model weight persistence.
//
// Checkpoints are gob-encoded with a CRC32 integrity checksum and named
//
//	<ModelName>-<role>-checkpoint.<epoch>.pth
//
// so that training runs can emit one file per epoch and inference can load
// any of them interchangeably. The checksum guards against truncated writes
// from killed batch jobs; a corrupt checkpoint fails loudly at load time
// instead of producing silently wrong predictions.
package checkpoint

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
)

// Errors returned when loading checkpoints.
var (
	ErrChecksumMismatch = errors.New("checkpoint: checksum mismatch (file corrupt or truncated)")
	ErrNoCheckpoints    = errors.New("checkpoint: no checkpoints found")
)

// envelope is the on-disk representation: the gob payload plus its CRC32.
type envelope struct {
	Payload  []byte
	Checksum uint32
}

// Name returns the conventional checkpoint filename for a model, role, and
// epoch, e.g. "GraphModel-joiner-checkpoint.3.pth".
func Name(modelName, role string, epoch int) string {
	return fmt.Sprintf("%s-%s-checkpoint.%d.pth", modelName, role, epoch)
}

// Save writes a checkpoint to path. The value must be gob-encodable.
// The parent directory is created if absent.
func Save(path string, value any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating checkpoint directory: %w", err)
		}
	}

	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(value); err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}

	env := envelope{
		Payload:  payload.Bytes(),
		Checksum: crc32.ChecksumIEEE(payload.Bytes()),
	}

	var out bytes.Buffer
	if err := gob.NewEncoder(&out).Encode(env); err != nil {
		return fmt.Errorf("encoding checkpoint envelope: %w", err)
	}

	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing checkpoint %s: %w", path, err)
	}
	return nil
}

// Load reads a checkpoint from path into value, verifying the checksum.
func Load(path string, value any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading checkpoint %s: %w", path, err)
	}

	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return fmt.Errorf("decoding checkpoint envelope %s: %w", path, err)
	}

	if crc32.ChecksumIEEE(env.Payload) != env.Checksum {
		return fmt.Errorf("%s: %w", path, ErrChecksumMismatch)
	}

	if err := gob.NewDecoder(bytes.NewReader(env.Payload)).Decode(value); err != nil {
		return fmt.Errorf("decoding checkpoint %s: %w", path, err)
	}
	return nil
}

// checkpointPattern matches conventional checkpoint filenames and captures
// the epoch number.
var checkpointPattern = regexp.MustCompile(`^(.+)-(.+)-checkpoint\.(\d+)\.pth$`)

// Latest returns the path of the highest-epoch checkpoint for the given
// model and role in a directory.
func Latest(dir, modelName, role string) (string, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", 0, fmt.Errorf("reading checkpoint directory: %w", err)
	}

	best := -1
	bestName := ""
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := checkpointPattern.FindStringSubmatch(entry.Name())
		if m == nil || m[1] != modelName || m[2] != role {
			continue
		}
		epoch, err := strconv.Atoi(m[3])
		if err != nil {
			continue
		}
		if epoch > best {
			best = epoch
			bestName = entry.Name()
		}
	}

	if best < 0 {
		return "", 0, ErrNoCheckpoints
	}
	return filepath.Join(dir, bestName), best, nil
}
