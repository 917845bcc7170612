// Package manifest models the pip requirements manifest that ships with the
// LightX2V node pack. The manifest format is the only external contract of
// the pack's install surface: newline-delimited requirement specifiers,
// with commented-out specifiers marking optional extras such as
// quantization backends and attention kernels.
package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Requirement is a single package requirement specifier.
type Requirement struct {
	// Name is the normalized package name.
	Name string
	// Extras are the bracketed extras, e.g. "vllm[audio]".
	Extras []string
	// Constraints are the version constraints attached to the specifier.
	Constraints []Constraint
	// Marker is an environment marker following ';', stored verbatim.
	Marker string
	// Optional is true for specifiers that appear in commented-out lines.
	Optional bool
	// Annotation is the comment text most recently seen above the
	// requirement, used to document the purpose of optional entries.
	Annotation string
}

// Manifest is an ordered collection of requirements plus the prose comments
// around them. Serialization preserves source order; equivalence between
// manifests is order-insensitive.
type Manifest struct {
	lines []line
}

type lineKind int

const (
	lineBlank lineKind = iota
	lineComment
	lineRequirement
)

type line struct {
	kind lineKind
	text string // comment text without the leading '#'
	req  *Requirement
}

// ParseError reports a manifest line that could not be parsed as a
// requirement specifier.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("manifest line %d: %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// specifierPattern matches a bare requirement specifier with optional
// extras, version constraints and an environment marker. Whitespace inside
// the specifier disqualifies it, which is what separates an optional
// requirement comment from prose.
var specifierPattern = regexp.MustCompile(
	`^([A-Za-z0-9][A-Za-z0-9._-]*)(\[[A-Za-z0-9._,-]+\])?((?:~=|==|!=|<=|>=|<|>|===)[^;\s]+)?(;.*)?$`)

// ParseLine parses a single requirement specifier.
func ParseLine(text string) (Requirement, error) {
	var req Requirement
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return req, errors.New("empty specifier")
	}

	m := specifierPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return req, errors.Errorf("not a valid requirement specifier: %q", trimmed)
	}

	req.Name = NormalizeName(m[1])
	if m[2] != "" {
		inner := strings.Trim(m[2], "[]")
		for _, e := range strings.Split(inner, ",") {
			req.Extras = append(req.Extras, strings.TrimSpace(e))
		}
	}
	if m[3] != "" {
		cons, err := parseConstraints(m[3])
		if err != nil {
			return req, err
		}
		req.Constraints = cons
	}
	if m[4] != "" {
		req.Marker = strings.TrimSpace(strings.TrimPrefix(m[4], ";"))
	}
	return req, nil
}

// NormalizeName lowers a package name and collapses '_' and '.' to '-',
// following the normalization rule pip applies when comparing names.
func NormalizeName(name string) string {
	n := strings.ToLower(name)
	n = strings.ReplaceAll(n, "_", "-")
	n = strings.ReplaceAll(n, ".", "-")
	return n
}

// Parse reads a manifest from r. Non-comment, non-blank lines must parse as
// requirement specifiers. Comment lines holding a lone specifier are
// captured as optional requirements carrying the preceding comment text as
// their annotation.
func Parse(r io.Reader) (*Manifest, error) {
	m := &Manifest{}
	scanner := bufio.NewScanner(r)
	lineno := 0
	annotation := ""
	for scanner.Scan() {
		lineno++
		raw := scanner.Text()
		trimmed := strings.TrimSpace(raw)

		switch {
		case trimmed == "":
			annotation = ""
			m.lines = append(m.lines, line{kind: lineBlank})
		case strings.HasPrefix(trimmed, "#"):
			text := strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))
			if req, err := ParseLine(text); err == nil && text != "" {
				req.Optional = true
				req.Annotation = annotation
				m.lines = append(m.lines, line{kind: lineRequirement, req: &req})
			} else {
				annotation = text
				m.lines = append(m.lines, line{kind: lineComment, text: text})
			}
		default:
			// strip a trailing inline comment before parsing
			spec := trimmed
			if idx := strings.Index(spec, " #"); idx >= 0 {
				spec = strings.TrimSpace(spec[:idx])
			}
			req, err := ParseLine(spec)
			if err != nil {
				return nil, &ParseError{Line: lineno, Text: raw, Err: err}
			}
			req.Annotation = annotation
			m.lines = append(m.lines, line{kind: lineRequirement, req: &req})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading manifest")
	}
	return m, nil
}

// ParseString parses a manifest held in a string.
func ParseString(data string) (*Manifest, error) {
	return Parse(strings.NewReader(data))
}

// ParseFile parses a manifest from a file on disk.
func ParseFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening manifest %s", path)
	}
	defer f.Close()
	return Parse(f)
}

// Requirements returns every requirement in source order, optional entries
// included.
func (m *Manifest) Requirements() []Requirement {
	retv := make([]Requirement, 0)
	for _, l := range m.lines {
		if l.kind == lineRequirement {
			retv = append(retv, *l.req)
		}
	}
	return retv
}

// Mandatory returns the uncommented requirements in source order.
func (m *Manifest) Mandatory() []Requirement {
	retv := make([]Requirement, 0)
	for _, r := range m.Requirements() {
		if !r.Optional {
			retv = append(retv, r)
		}
	}
	return retv
}

// Optional returns the commented-out requirements in source order.
func (m *Manifest) Optional() []Requirement {
	retv := make([]Requirement, 0)
	for _, r := range m.Requirements() {
		if r.Optional {
			retv = append(retv, r)
		}
	}
	return retv
}

// Get returns the requirement with the given (normalized) name, or nil.
func (m *Manifest) Get(name string) *Requirement {
	want := NormalizeName(name)
	for _, l := range m.lines {
		if l.kind == lineRequirement && l.req.Name == want {
			r := *l.req
			return &r
		}
	}
	return nil
}

// Enable marks the named optional requirement as mandatory. It returns an
// error if the manifest holds no requirement with that name.
func (m *Manifest) Enable(name string) error {
	want := NormalizeName(name)
	for _, l := range m.lines {
		if l.kind == lineRequirement && l.req.Name == want {
			l.req.Optional = false
			return nil
		}
	}
	return errors.Errorf("manifest has no requirement %q", name)
}

// String serializes the manifest back to the requirements file format.
func (m *Manifest) String() string {
	var sb strings.Builder
	m.WriteTo(&sb)
	return sb.String()
}

// WriteTo writes the serialized manifest to w.
func (m *Manifest) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, l := range m.lines {
		var text string
		switch l.kind {
		case lineBlank:
			text = "\n"
		case lineComment:
			if l.text == "" {
				text = "#\n"
			} else {
				text = "# " + l.text + "\n"
			}
		case lineRequirement:
			if l.req.Optional {
				text = "# " + l.req.Specifier() + "\n"
			} else {
				text = l.req.Specifier() + "\n"
			}
		}
		n, err := io.WriteString(w, text)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Specifier renders the requirement back to specifier syntax.
func (r *Requirement) Specifier() string {
	var sb strings.Builder
	sb.WriteString(r.Name)
	if len(r.Extras) > 0 {
		sb.WriteString("[" + strings.Join(r.Extras, ",") + "]")
	}
	for i, c := range r.Constraints {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(c.String())
	}
	if r.Marker != "" {
		sb.WriteString("; " + r.Marker)
	}
	return sb.String()
}

// Equivalent reports whether two manifests declare the same requirement
// sets. Comparison is order-insensitive and keyed on normalized names and
// the optional flag.
func (m *Manifest) Equivalent(other *Manifest) bool {
	return setOf(m.Mandatory()) == setOf(other.Mandatory()) &&
		setOf(m.Optional()) == setOf(other.Optional())
}

func setOf(reqs []Requirement) string {
	names := make([]string, len(reqs))
	for i, r := range reqs {
		names[i] = r.Specifier()
	}
	// insertion sort keeps this dependency free for tiny sets
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
	return strings.Join(names, "\x00")
}

// Verify checks that every mandatory requirement appears in the installed
// package list and returns the names that are missing. Installing anything
// remains the job of the package manager; Verify only reports.
func (m *Manifest) Verify(installed []string) []string {
	have := make(map[string]bool, len(installed))
	for _, name := range installed {
		have[NormalizeName(name)] = true
	}
	missing := make([]string, 0)
	for _, r := range m.Mandatory() {
		if !have[r.Name] {
			missing = append(missing, r.Name)
		}
	}
	return missing
}
