package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/mdpl-cli/internal/utils"
	"github.com/google/uuid"
)

const (
	manifestFileName = "manifest.json"
)

// Kind classifies an output file.
type Kind string

const (
	KindTable  Kind = "table"
	KindReport Kind = "report"
	KindChart  Kind = "chart"
)

// Manifest records one run over a dataset and every file it produced.
type Manifest struct {
	ID        string               `json:"id"`
	Source    string               `json:"source"`
	Rows      int                  `json:"rows"`
	Columns   int                  `json:"columns"`
	Steps     []string             `json:"steps,omitempty"`
	Artifacts map[string]*Artifact `json:"artifacts"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`

	// Not serialized: directory holding manifest.json; artifact paths are relative to it
	rootDir string `json:"-"`
}

// Artifact describes one output file.
type Artifact struct {
	ID      string    `json:"id"`
	Path    string    `json:"path"`
	Kind    Kind      `json:"kind"`
	Title   string    `json:"title,omitempty"`
	Bytes   int64     `json:"bytes"`
	AddedAt time.Time `json:"added_at"`
}

// NewManifest constructs an in-memory manifest. Call Save() to persist.
func NewManifest(source, rootDir string) *Manifest {
	now := time.Now()
	return &Manifest{
		ID:        uuid.NewString(),
		Source:    source,
		Artifacts: make(map[string]*Artifact),
		CreatedAt: now,
		UpdatedAt: now,
		rootDir:   rootDir,
	}
}

// LoadManifest loads manifest.json from dir.
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, manifestFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("manifest not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Artifacts == nil {
		m.Artifacts = make(map[string]*Artifact)
	}
	m.rootDir = dir
	return &m, nil
}

// RootDir returns the directory the manifest lives in.
func (m *Manifest) RootDir() string { return m.rootDir }

// Path returns the manifest file location.
func (m *Manifest) Path() string { return filepath.Join(m.rootDir, manifestFileName) }

// SetShape records the table dimensions.
func (m *Manifest) SetShape(rows, cols int) {
	m.Rows, m.Columns = rows, cols
	m.UpdatedAt = time.Now()
}

// RecordStep appends a processing step such as "impute:mean".
func (m *Manifest) RecordStep(step string) {
	m.Steps = append(m.Steps, step)
	m.UpdatedAt = time.Now()
}

// Add registers a file that already exists on disk. Paths under the root are stored
// relative to it. Adding a path again replaces the earlier entry.
func (m *Manifest) Add(path string, kind Kind, title string) (*Artifact, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat artifact: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("artifact %s is a directory", path)
	}
	rel := path
	if m.rootDir != "" {
		if r, err := filepath.Rel(m.rootDir, path); err == nil && r != ".." && !strings.HasPrefix(r, ".."+string(filepath.Separator)) {
			rel = r
		}
	}
	a := &Artifact{
		ID:      uuid.NewString(),
		Path:    filepath.ToSlash(rel),
		Kind:    kind,
		Title:   title,
		Bytes:   info.Size(),
		AddedAt: time.Now(),
	}
	if m.Artifacts == nil {
		m.Artifacts = make(map[string]*Artifact)
	}
	for id, old := range m.Artifacts {
		if old.Path == a.Path {
			delete(m.Artifacts, id)
		}
	}
	m.Artifacts[a.ID] = a
	m.UpdatedAt = time.Now()
	return a, nil
}

// List returns artifacts ordered by path.
func (m *Manifest) List() []*Artifact {
	out := make([]*Artifact, 0, len(m.Artifacts))
	for _, a := range m.Artifacts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Save writes manifest.json using atomic write.
func (m *Manifest) Save() error {
	if m.rootDir == "" {
		return errors.New("manifest directory not set")
	}
	if err := utils.EnsureDir(m.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	m.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(m)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(m.Path(), data)
}
