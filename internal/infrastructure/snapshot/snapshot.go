// Package snapshot writes roadmap exports to a directory or a GCS bucket.
//
// Objects are named roadmaps/<owner>/<business>/<timestamp>.json so that a lexical
// listing of one business prefix is also chronological.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/rezkam/compass/internal/domain"
)

// Root is the prefix under which every roadmap snapshot is stored.
const Root = "roadmaps"

// ErrNotExist is returned by Get for a snapshot that was never written.
var ErrNotExist = errors.New("snapshot does not exist")

const stampLayout = "20060102T150405.000000000Z"

// ObjectName returns the snapshot name for a business at the given time.
// Owner and business IDs are path-escaped so each always stays one segment.
func ObjectName(ref domain.BusinessRef, at time.Time) string {
	return path.Join(Prefix(ref), at.UTC().Format(stampLayout)+".json")
}

// Prefix returns the listing prefix of one business, ending in a slash.
func Prefix(ref domain.BusinessRef) string {
	return Root + "/" + url.PathEscape(ref.OwnerID) + "/" + url.PathEscape(ref.BusinessID) + "/"
}

// Encode renders a snapshot document.
func Encode(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

func validName(name string) error {
	if name == "" || strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return fmt.Errorf("invalid snapshot name %q", name)
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("invalid snapshot name %q", name)
		}
	}
	return nil
}
