package ra

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// PersistedSpec is the on-disk YAML document for a persisted SpecDraft.
// Text is a human-readable multi-section rendering generated at persist
// time; Reviewed is absent until a human marks the document read, and is
// reset to absent by UpdateText.
type PersistedSpec struct {
	SpecDraft `yaml:",inline"`
	Text      string `yaml:"text"`
	Reviewed  *bool  `yaml:"reviewed,omitempty"`
}

// Persister writes specs as a YAML document plus a BDD-style feature
// file per directory, and generates monotonic document ids of the form
// <prefix><zero-padded-number>.
type Persister struct {
	dir    string
	prefix string
	width  int
}

// NewPersister returns a persister rooted at dir, generating ids like
// REQ-00001 for prefix "REQ-" and width 5.
func NewPersister(dir, prefix string, width int) *Persister {
	return &Persister{dir: dir, prefix: prefix, width: width}
}

func (p *Persister) idPattern() *regexp.Regexp {
	return regexp.MustCompile("^" + regexp.QuoteMeta(p.prefix) + `(\d+)`)
}

// NextID scans dir for existing yaml documents matching the configured
// prefix and returns prefix + (max existing number + 1), zero-padded.
func (p *Persister) NextID() (string, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("ra: scan spec dir: %w", err)
	}
	max := 0
	pat := p.idPattern()
	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		m := pat.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err == nil && n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%0*d", p.prefix, p.width, max+1), nil
}

func (p *Persister) specPath(id string) string    { return filepath.Join(p.dir, id+".yaml") }
func (p *Persister) featurePath(id string) string { return filepath.Join(p.dir, id+".feature") }

// Persist assigns draft.DraftID via NextID if absent, rejects collisions
// with an explicit id that already exists on disk, renders the
// human-readable text section, and writes both the YAML document and the
// BDD feature file.
func (p *Persister) Persist(draft SpecDraft) (*PersistedSpec, error) {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return nil, fmt.Errorf("ra: create spec dir: %w", err)
	}

	if draft.DraftID == "" {
		id, err := p.NextID()
		if err != nil {
			return nil, err
		}
		draft.DraftID = id
	} else if _, err := os.Stat(p.specPath(draft.DraftID)); err == nil {
		return nil, fmt.Errorf("ra: spec id %q already exists", draft.DraftID)
	}

	persisted := &PersistedSpec{SpecDraft: draft, Text: renderText(draft)}

	out, err := yaml.Marshal(persisted)
	if err != nil {
		return nil, fmt.Errorf("ra: marshal spec: %w", err)
	}
	if err := os.WriteFile(p.specPath(draft.DraftID), out, 0o644); err != nil {
		return nil, fmt.Errorf("ra: write spec: %w", err)
	}
	if err := os.WriteFile(p.featurePath(draft.DraftID), []byte(renderFeature(draft)), 0o644); err != nil {
		return nil, fmt.Errorf("ra: write feature file: %w", err)
	}
	return persisted, nil
}

// Read loads a persisted spec by id.
func (p *Persister) Read(id string) (*PersistedSpec, error) {
	raw, err := os.ReadFile(p.specPath(id))
	if err != nil {
		return nil, fmt.Errorf("ra: read spec %s: %w", id, err)
	}
	var ps PersistedSpec
	if err := yaml.Unmarshal(raw, &ps); err != nil {
		return nil, fmt.Errorf("ra: decode spec %s: %w", id, err)
	}
	return &ps, nil
}

// ListItems returns every persisted spec id in dir, sorted.
func (p *Persister) ListItems() ([]string, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("ra: list spec dir: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), ".yaml"))
	}
	sort.Strings(ids)
	return ids, nil
}

// UpdateText overwrites the persisted text field and resets Reviewed to
// absent, requiring re-review.
func (p *Persister) UpdateText(id, text string) (*PersistedSpec, error) {
	ps, err := p.Read(id)
	if err != nil {
		return nil, err
	}
	ps.Text = text
	ps.Reviewed = nil
	out, err := yaml.Marshal(ps)
	if err != nil {
		return nil, fmt.Errorf("ra: marshal spec: %w", err)
	}
	if err := os.WriteFile(p.specPath(id), out, 0o644); err != nil {
		return nil, fmt.Errorf("ra: write spec: %w", err)
	}
	return ps, nil
}

// SpecDiff is a field-level difference between two draft revisions.
type SpecDiff struct {
	Field string
	Old   string
	New   string
}

// Diff compares the persisted spec id against newSpec, field by field.
func (p *Persister) Diff(id string, newSpec SpecDraft) ([]SpecDiff, error) {
	ps, err := p.Read(id)
	if err != nil {
		return nil, err
	}
	var diffs []SpecDiff
	if ps.Goal != newSpec.Goal {
		diffs = append(diffs, SpecDiff{Field: "goal", Old: ps.Goal, New: newSpec.Goal})
	}
	if strings.Join(ps.Constraints, ";") != strings.Join(newSpec.Constraints, ";") {
		diffs = append(diffs, SpecDiff{Field: "constraints", Old: strings.Join(ps.Constraints, ";"), New: strings.Join(newSpec.Constraints, ";")})
	}
	if len(ps.AcceptanceCriteria) != len(newSpec.AcceptanceCriteria) {
		diffs = append(diffs, SpecDiff{Field: "acceptance_criteria_count", Old: strconv.Itoa(len(ps.AcceptanceCriteria)), New: strconv.Itoa(len(newSpec.AcceptanceCriteria))})
	}
	return diffs, nil
}

func renderText(draft SpecDraft) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Goal\n%s\n\n", draft.Goal)
	b.WriteString("# Acceptance Criteria\n")
	for _, c := range draft.AcceptanceCriteria {
		fmt.Fprintf(&b, "- %s\n", c.Text)
	}
	b.WriteString("\n# Constraints\n")
	for _, c := range draft.Constraints {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	b.WriteString("\n# Non-Goals\n")
	for _, ng := range draft.NonGoals {
		fmt.Fprintf(&b, "- %s\n", ng)
	}
	b.WriteString("\n# Risk Mitigations\n")
	for _, rm := range draft.RiskMitigations {
		fmt.Fprintf(&b, "- %s\n", rm)
	}
	b.WriteString("\n# Open Items\n")
	for _, oi := range draft.OpenItems {
		fmt.Fprintf(&b, "- %s\n", oi)
	}
	return b.String()
}

func renderFeature(draft SpecDraft) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Feature: %s\n\n", draft.Goal)
	for i, c := range draft.AcceptanceCriteria {
		fmt.Fprintf(&b, "  Scenario: criterion %d\n    Then %s\n\n", i+1, c.Text)
	}
	return b.String()
}
