package topics

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docnav/internal/catalog"
	naverrors "github.com/dgallion1/docnav/internal/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Manifest is the static content configuration: catalogs, defaults and the
// topic tree.
type Manifest struct {
	Versions []catalog.Entry `json:"versions" yaml:"versions"`
	Sections []catalog.Entry `json:"sections" yaml:"sections"`
	Defaults Defaults        `json:"defaults" yaml:"defaults"`
	Topics   Tree            `json:"topics" yaml:"topics"`
}

// Defaults designates the cold-start selection. Empty fields fall back to
// the first declared entry with content.
type Defaults struct {
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Section string `json:"section,omitempty" yaml:"section,omitempty"`
	Topic   string `json:"topic,omitempty" yaml:"topic,omitempty"`
}

// LoadManifest reads and validates a YAML or JSON manifest.
func LoadManifest(path string) (*Manifest, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
	default:
		return nil, fmt.Errorf("manifest %s: unsupported extension", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

// ParseManifest decodes and validates a manifest. JSON input is accepted as
// the YAML subset it is.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, naverrors.Wrap(err, naverrors.KindInvalidManifest, "decode manifest")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	m.fillLabels()
	return &m, nil
}

// Validate checks catalog ids, tree keys, sibling uniqueness, id syntax,
// depth and defaults.
func (m *Manifest) Validate() error {
	if len(m.Versions) == 0 {
		return naverrors.InvalidManifest("no versions declared")
	}
	if len(m.Sections) == 0 {
		return naverrors.InvalidManifest("no sections declared")
	}
	versions, sections, err := m.Catalogs()
	if err != nil {
		return naverrors.Wrap(err, naverrors.KindInvalidManifest, "build catalogs")
	}
	for _, e := range append(versions.Entries(), sections.Entries()...) {
		if err := validID(e.ID); err != nil {
			return naverrors.Wrap(err, naverrors.KindInvalidManifest, "invalid catalog id")
		}
	}
	for v, bySection := range m.Topics {
		if !versions.Contains(v) {
			return naverrors.InvalidManifest("topics reference undeclared version").WithContext("version", v)
		}
		for s, roots := range bySection {
			if !sections.Contains(s) {
				return naverrors.InvalidManifest("topics reference undeclared section").WithContext("section", s)
			}
			if Depth(roots) > MaxDepth {
				return naverrors.InvalidManifest(fmt.Sprintf("topics nested deeper than %d", MaxDepth)).
					WithContext("version", v).WithContext("section", s)
			}
			if err := validateNodes(roots, v+"/"+s); err != nil {
				return err
			}
		}
	}
	d := m.Defaults
	if d.Version != "" && !versions.Contains(d.Version) {
		return naverrors.InvalidManifest("default version not declared").WithContext("version", d.Version)
	}
	if d.Section != "" && !sections.Contains(d.Section) {
		return naverrors.InvalidManifest("default section not declared").WithContext("section", d.Section)
	}
	if d.Topic != "" {
		if d.Version == "" || d.Section == "" {
			return naverrors.InvalidManifest("default topic requires default version and section")
		}
		if _, ok := FindRoot(m.Topics.Roots(d.Version, d.Section), d.Topic); !ok {
			return naverrors.InvalidManifest("default topic is not a root of the default section").
				WithContext("version", d.Version).WithContext("section", d.Section).WithContext("topic", d.Topic)
		}
		return nil
	}
	if !m.defaultPairExists(versions, sections) {
		return naverrors.InvalidManifest("no version/section pair selected by the defaults has topics").
			WithContext("version", d.Version).WithContext("section", d.Section)
	}
	return nil
}

// defaultPairExists mirrors the cold-start search: the first declared pair
// matching the non-empty defaults that has content.
func (m *Manifest) defaultPairExists(versions, sections *catalog.Catalog) bool {
	d := m.Defaults
	for _, v := range versions.Entries() {
		if d.Version != "" && v.ID != d.Version {
			continue
		}
		for _, s := range sections.Entries() {
			if d.Section != "" && s.ID != d.Section {
				continue
			}
			if m.Topics.HasContent(v.ID, s.ID) {
				return true
			}
		}
	}
	return false
}

func validateNodes(nodes []Node, parent string) error {
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if err := validID(n.ID); err != nil {
			return naverrors.InvalidManifest(err.Error()).WithContext("path", parent)
		}
		if seen[n.ID] {
			return naverrors.InvalidManifest("duplicate sibling id").WithContext("path", parent+"/"+n.ID)
		}
		seen[n.ID] = true
		if err := validateNodes(n.Children, parent+"/"+n.ID); err != nil {
			return err
		}
	}
	return nil
}

func validID(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("empty topic id")
	case strings.ContainsAny(id, "/?#{}* \t"), id == ".", id == "..":
		return fmt.Errorf("topic id %q is not a path segment", id)
	}
	return nil
}

// Catalogs builds fresh version and section catalogs from the manifest.
func (m *Manifest) Catalogs() (*catalog.Catalog, *catalog.Catalog, error) {
	versions, err := catalog.New("version", m.Versions)
	if err != nil {
		return nil, nil, naverrors.Wrap(err, naverrors.KindInvalidManifest, "versions")
	}
	sections, err := catalog.New("section", m.Sections)
	if err != nil {
		return nil, nil, naverrors.Wrap(err, naverrors.KindInvalidManifest, "sections")
	}
	return versions, sections, nil
}

func (m *Manifest) fillLabels() {
	title := cases.Title(language.English)
	for i := range m.Versions {
		if m.Versions[i].Label == "" {
			m.Versions[i].Label = m.Versions[i].ID
		}
	}
	for i := range m.Sections {
		if m.Sections[i].Label == "" {
			m.Sections[i].Label = LabelFor(title, m.Sections[i].ID)
		}
	}
	for _, bySection := range m.Topics {
		for _, roots := range bySection {
			fillNodeLabels(title, roots)
		}
	}
}

func fillNodeLabels(title cases.Caser, nodes []Node) {
	for i := range nodes {
		if nodes[i].Label == "" {
			nodes[i].Label = LabelFor(title, nodes[i].ID)
		}
		fillNodeLabels(title, nodes[i].Children)
	}
}

// LabelFor turns an id such as "getting-started" into "Getting Started".
func LabelFor(title cases.Caser, id string) string {
	return title.String(strings.NewReplacer("-", " ", "_", " ").Replace(id))
}
