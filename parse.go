package prismatenant

import (
	"regexp"
	"strings"
)

// Document is a schema file scanned into its top-level blocks.
// Text between blocks is not represented, but is preserved in Text.
type Document struct {
	Text   string
	Blocks []*Block
}

// Block is one top-level declaration, such as "model Foo { ... }".
type Block struct {
	Keyword string // model, enum, view, datasource, ...
	Name    string

	// Start and End are byte offsets into the document text.
	// End is just past the closing brace line, including its newline if any.
	Start, End int

	// Lines holds every line of the block, header and closing brace included.
	Lines []Line
}

// Line is a single line of a block.
// Text excludes the trailing newline.
type Line struct {
	Start, End int // byte offsets into the document text, End excluding the newline
	Text       string
}

var (
	headerRE    = regexp.MustCompile(`^(\w+)\s+(\w+)\s*\{\s*(//.*)?$`)
	closingRE   = regexp.MustCompile(`^\s*\}\s*(//.*)?$`)
	attributeRE = regexp.MustCompile(`^@@(\w+)\((.*)\)\s*$`)
)

// Parse scans text into blocks.
// It never fails:
// anything it does not recognize as a block is simply not part of one.
// A block with no closing brace runs to the next block header,
// or to the end of the text.
func Parse(text string) *Document {
	doc := &Document{Text: text}

	var cur *Block
	for pos := 0; pos < len(text); {
		end := strings.IndexByte(text[pos:], '\n')
		next := len(text)
		if end < 0 {
			end = len(text)
		} else {
			end += pos
			next = end + 1
		}
		line := Line{Start: pos, End: end, Text: text[pos:end]}

		m := headerRE.FindStringSubmatch(strings.TrimRight(line.Text, "\r"))
		if cur != nil && m != nil {
			// Unterminated: the block ends where the next one begins.
			cur.End = pos
			doc.Blocks = append(doc.Blocks, cur)
			cur = nil
		}

		if cur == nil {
			if m != nil {
				cur = &Block{Keyword: m[1], Name: m[2], Start: pos}
				cur.Lines = append(cur.Lines, line)
			}
		} else {
			cur.Lines = append(cur.Lines, line)
			if closingRE.MatchString(line.Text) {
				cur.End = next
				doc.Blocks = append(doc.Blocks, cur)
				cur = nil
			}
		}
		pos = next
	}
	if cur != nil {
		cur.End = len(text)
		doc.Blocks = append(doc.Blocks, cur)
	}

	return doc
}

// Model returns the first model block with the given name, or nil.
func (d *Document) Model(name string) *Block {
	for _, b := range d.Blocks {
		if b.Keyword == "model" && b.Name == name {
			return b
		}
	}
	return nil
}

// Attribute returns the raw argument text of the first block attribute
// with the given name (e.g. `"users"` for `@@map("users")`)
// and whether one was found.
func (b *Block) Attribute(name string) (string, bool) {
	for _, line := range b.Lines {
		m := attributeRE.FindStringSubmatch(strings.TrimSpace(line.Text))
		if m != nil && m[1] == name {
			return m[2], true
		}
	}
	return "", false
}

// TableName is the database table backing a model block:
// the argument of its @@map attribute if it has one,
// otherwise the model name.
func (b *Block) TableName() string {
	if arg, ok := b.Attribute("map"); ok {
		arg = strings.TrimSpace(arg)
		if strings.HasPrefix(arg, "name:") {
			arg = strings.TrimSpace(strings.TrimPrefix(arg, "name:"))
		}
		if len(arg) >= 2 && arg[0] == '"' && arg[len(arg)-1] == '"' {
			return arg[1 : len(arg)-1]
		}
	}
	return b.Name
}

func isAttributeLine(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "@@")
}

func isIndexLine(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "@@index(") && strings.HasSuffix(s, ")")
}
