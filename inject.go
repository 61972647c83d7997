package prismatenant

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// SkipReason says why a target model was left unchanged
// for reasons other than already having a tenant field and index.
type SkipReason int

const (
	NotSkipped   SkipReason = iota
	SkipNotFound            // no "model Name {" block
	SkipNoMarker            // block has no marker comment
	SkipNoIndex             // block does not end with an @@index line
)

func (s SkipReason) String() string {
	switch s {
	case NotSkipped:
		return "not skipped"
	case SkipNotFound:
		return "model not found"
	case SkipNoMarker:
		return "no marker comment"
	case SkipNoIndex:
		return "no trailing @@index"
	}
	return fmt.Sprintf("SkipReason(%d)", int(s))
}

// ModelResult reports what Inject did to one target model.
type ModelResult struct {
	Name  string
	Table string // database table name, empty if the model was not found

	FieldAdded bool
	IndexAdded bool

	Skip SkipReason
}

// Changed tells whether the model block was modified.
func (r ModelResult) Changed() bool {
	return r.FieldAdded || r.IndexAdded
}

// Transformed is the output of Inject:
// the patched schema text and a per-model report,
// in the order of the configured model list.
type Transformed struct {
	Schema string
	Models []ModelResult
}

// Changed tells whether any model block was modified.
func (t Transformed) Changed() bool {
	for _, m := range t.Models {
		if m.Changed() {
			return true
		}
	}
	return false
}

// Skipped returns the names of the target models that were left alone
// because their blocks were missing or had the wrong shape.
func (t Transformed) Skipped() []string {
	var result []string
	for _, m := range t.Models {
		if m.Skip != NotSkipped {
			result = append(result, m.Name)
		}
	}
	return result
}

// Injector adds tenant fields and indexes to schema text.
// It is safe for concurrent use.
type Injector struct {
	cfg    Config
	logger *zap.Logger
	cache  resultCache
}

// NewInjector validates cfg and produces an Injector for it.
// A nil logger discards log output.
func NewInjector(cfg Config, logger *zap.Logger) (*Injector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Injector{cfg: cfg, logger: logger}, nil
}

// Config returns the validated configuration of inj.
func (inj *Injector) Config() Config {
	return inj.cfg
}

// Inject patches each configured model in schema, in order.
// Models that are missing or malformed are skipped, not reported as errors;
// see ModelResult.Skip.
func (inj *Injector) Inject(schema string) Transformed {
	if found, ok := inj.cache.lookup(schema); ok {
		return found
	}

	result := Transformed{Schema: schema}
	for _, name := range inj.cfg.Models {
		var mr ModelResult
		result.Schema, mr = inj.injectModel(result.Schema, name)
		result.Models = append(result.Models, mr)

		switch {
		case mr.Skip != NotSkipped:
			inj.logger.Warn("skipping model", zap.String("model", name), zap.Stringer("reason", mr.Skip))
		case mr.Changed():
			inj.logger.Debug("patched model",
				zap.String("model", name),
				zap.Bool("field_added", mr.FieldAdded),
				zap.Bool("index_added", mr.IndexAdded))
		default:
			inj.logger.Debug("model already has tenant field and index", zap.String("model", name))
		}
	}

	inj.cache.add(schema, result)
	return result
}

func (inj *Injector) injectModel(text, name string) (string, ModelResult) {
	res := ModelResult{Name: name}

	b := Parse(text).Model(name)
	if b == nil {
		res.Skip = SkipNotFound
		return text, res
	}
	res.Table = b.TableName()

	// The block must end with an index line followed by the closing brace.
	n := len(b.Lines)
	if n < 3 || !closingRE.MatchString(b.Lines[n-1].Text) || !isIndexLine(b.Lines[n-2].Text) {
		res.Skip = SkipNoIndex
		return text, res
	}
	lastIndex := b.Lines[n-2]

	marker := -1
	for i := 1; i < n-1; i++ {
		if strings.HasPrefix(strings.TrimSpace(b.Lines[i].Text), inj.cfg.Marker) {
			marker = i
			break
		}
	}
	if marker < 0 {
		res.Skip = SkipNoMarker
		return text, res
	}

	// The field region ends at the first attribute line after the marker.
	// There is always one, since the block ends with an index line.
	attr := marker + 1
	for !isAttributeLine(b.Lines[attr].Text) {
		attr++
	}

	var (
		fieldRegion = text[b.Start:b.Lines[attr].Start]
		indexRegion = text[b.Start:lastIndex.End]
		markerLine  = b.Lines[marker]
	)
	res.FieldAdded = !strings.Contains(fieldRegion, inj.cfg.Field)
	res.IndexAdded = !strings.Contains(indexRegion, inj.cfg.indexDecl())

	// Splice from the end of the block backward so earlier offsets stay valid.
	if res.IndexAdded {
		at := lastIndex.End + 1
		text = text[:at] + inj.indexDecl(indentOf(lastIndex.Text), eolOf(lastIndex.Text)) + text[at:]
	}
	if res.FieldAdded {
		at := markerLine.Start
		text = text[:at] + inj.fieldDecl(indentOf(markerLine.Text), eolOf(markerLine.Text)) + text[at:]
	}

	return text, res
}

// fieldDecl is the text inserted before the marker line.
// The blank lines around it set it apart from neighboring fields.
func (inj *Injector) fieldDecl(indent, eol string) string {
	return eol + indent + inj.cfg.Comment + eol +
		fmt.Sprintf("%s%-15s %s", indent, inj.cfg.Field, inj.cfg.FieldType) + eol + eol
}

func (inj *Injector) indexDecl(indent, eol string) string {
	return indent + inj.cfg.indexDecl() + eol
}

func indentOf(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}

// eolOf is the line ending of a Line whose Text came from a CRLF file.
func eolOf(s string) string {
	if strings.HasSuffix(s, "\r") {
		return "\r\n"
	}
	return "\n"
}
