package graph

import (
	"errors"
	"fmt"

	"github.com/tsawler/textbite/checkpoint"
)

// ArtifactVersion identifies the container layout. Bump when PageGraph
// changes shape.
const ArtifactVersion = 1

// Artifact errors.
var (
	ErrVersionMismatch = errors.New("graph: artifact version mismatch")
)

// Artifact is the on-disk container for one data split's graphs.
type Artifact struct {
	Version int
	Graphs  []*PageGraph
}

// SaveArtifact writes a split's graphs to path. The container reuses the
// checkpoint envelope (gob + CRC32); the conventional extension is .pkl for
// compatibility with the original pipeline's paths.
func SaveArtifact(path string, graphs []*PageGraph) error {
	artifact := Artifact{
		Version: ArtifactVersion,
		Graphs:  graphs,
	}
	return checkpoint.Save(path, artifact)
}

// LoadArtifact reads a split's graphs from path. An artifact with zero
// graphs is valid (an empty split); a version or checksum mismatch is not.
func LoadArtifact(path string) ([]*PageGraph, error) {
	var artifact Artifact
	if err := checkpoint.Load(path, &artifact); err != nil {
		return nil, err
	}
	if artifact.Version != ArtifactVersion {
		return nil, fmt.Errorf("%s: %w (have %d, want %d)",
			path, ErrVersionMismatch, artifact.Version, ArtifactVersion)
	}
	return artifact.Graphs, nil
}
