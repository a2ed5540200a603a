package store

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/getzep/textlab/pkg/models"
	"github.com/vmihailenco/msgpack/v5"
)

// formatConstraint accepts any artifact written with the same major format version.
var formatConstraint = mustFormatConstraint(models.ArtifactFormatVersion)

func mustFormatConstraint(current string) *semver.Constraints {
	v := semver.MustParse(current)
	c, err := semver.NewConstraint(fmt.Sprintf("^%d.0.0", v.Major()))
	if err != nil {
		panic(err)
	}
	return c
}

// EncodeArtifact serializes an artifact, fitted representation and classifier together, into a
// single msgpack blob.
func EncodeArtifact(a *models.ModelArtifact) ([]byte, error) {
	if a == nil {
		return nil, NewStorageError("nil artifact", nil)
	}
	cp := *a
	if cp.FormatVersion == "" {
		cp.FormatVersion = models.ArtifactFormatVersion
	}
	b, err := msgpack.Marshal(&cp)
	if err != nil {
		return nil, NewStorageError("failed to encode artifact", err)
	}
	return b, nil
}

// DecodeArtifact is the inverse of EncodeArtifact. Artifacts from an incompatible format version
// are rejected.
func DecodeArtifact(b []byte) (*models.ModelArtifact, error) {
	var a models.ModelArtifact
	if err := msgpack.Unmarshal(b, &a); err != nil {
		return nil, NewStorageError("failed to decode artifact", err)
	}
	if err := CheckFormatVersion(a.FormatVersion); err != nil {
		return nil, NewStorageError("failed to decode artifact", err)
	}
	a.TrainedAt = a.TrainedAt.UTC()
	return &a, nil
}

// CheckFormatVersion reports whether an artifact written with version can be loaded.
func CheckFormatVersion(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid artifact format version %q: %w", version, err)
	}
	if !formatConstraint.Check(v) {
		return &IncompatibleFormatError{Version: version, Constraint: formatConstraint.String()}
	}
	return nil
}
