package pageindex

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// Manifest maps a source path to the fingerprint it had when it was indexed.
type Manifest map[string]string

// Fingerprint identifies a file version by modification time (ns) and size.
// Content edits that keep both unchanged go unnoticed.
func Fingerprint(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", path, err)
	}
	h := md5.New()
	h.Write([]byte(strconv.FormatInt(info.ModTime().UnixNano(), 10)))
	h.Write([]byte(strconv.FormatInt(info.Size(), 10)))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ScanManifest fingerprints every path.
func ScanManifest(paths []string) (Manifest, error) {
	m := make(Manifest, len(paths))
	for _, p := range paths {
		fp, err := Fingerprint(p)
		if err != nil {
			return nil, err
		}
		m[p] = fp
	}
	return m, nil
}

// Clone returns a copy that can be changed without touching m.
func (m Manifest) Clone() Manifest {
	out := make(Manifest, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ChangeSet partitions the paths of two manifests. Every slice is sorted.
type ChangeSet struct {
	Unchanged      []string
	ChangedOrAdded []string
	Deleted        []string
}

func (c ChangeSet) Empty() bool {
	return len(c.ChangedOrAdded) == 0 && len(c.Deleted) == 0
}

// Diff compares the current source set against the manifest stored with the index.
func Diff(current, previous Manifest) ChangeSet {
	var cs ChangeSet
	for path, fp := range current {
		old, ok := previous[path]
		if ok && old == fp {
			cs.Unchanged = append(cs.Unchanged, path)
		} else {
			cs.ChangedOrAdded = append(cs.ChangedOrAdded, path)
		}
	}
	for path := range previous {
		if _, ok := current[path]; !ok {
			cs.Deleted = append(cs.Deleted, path)
		}
	}
	sort.Strings(cs.Unchanged)
	sort.Strings(cs.ChangedOrAdded)
	sort.Strings(cs.Deleted)
	return cs
}

// Digest identifies the whole source set. It changes whenever any file is
// added, removed or changes fingerprint.
func (m Manifest) Digest() string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	h := md5.New()
	for _, p := range paths {
		h.Write([]byte(p))
		h.Write([]byte{0})
		h.Write([]byte(m[p]))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
