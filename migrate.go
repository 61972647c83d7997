package prismatenant

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	pg_query "github.com/lfittl/pg_query_go"
	nodes "github.com/lfittl/pg_query_go/nodes"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// maxIdentLen is Postgresql's NAMEDATALEN-1.
const maxIdentLen = 63

// pgTypes maps Prisma scalar types to the Postgresql column types
// Prisma Migrate creates for them.
var pgTypes = map[string]string{
	"String": "TEXT",
	"Int":    "INTEGER",
	"BigInt": "BIGINT",
}

// ErrUnknownType indicates a tenant field type with no known Postgresql equivalent.
var ErrUnknownType = errors.New("unknown field type")

// Migration renders the changes reported in t as Postgresql DDL,
// laid out the way Prisma Migrate lays out a migration.sql file:
// all column additions first, then all index creations.
// Each statement is checked with the Postgresql parser
// before it is included.
// The result is empty if t made no changes.
func (inj *Injector) Migration(t Transformed) (string, error) {
	colType, ok := pgTypes[inj.cfg.FieldType]
	if !ok {
		return "", errors.Wrap(ErrUnknownType, inj.cfg.FieldType)
	}

	var (
		alters, indexes []string
		col             = pq.QuoteIdentifier(inj.cfg.Field)
	)
	for _, m := range t.Models {
		table := pq.QuoteIdentifier(m.Table)
		if m.FieldAdded {
			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s NOT NULL;", table, col, colType)
			if err := checkStmt(stmt, m.Table, false); err != nil {
				return "", errors.Wrapf(err, "model %s", m.Name)
			}
			alters = append(alters, stmt)
		}
		if m.IndexAdded {
			name := pq.QuoteIdentifier(indexName(m.Table, inj.cfg.Field))
			stmt := fmt.Sprintf("CREATE INDEX %s ON %s(%s);", name, table, col)
			if err := checkStmt(stmt, m.Table, true); err != nil {
				return "", errors.Wrapf(err, "model %s", m.Name)
			}
			indexes = append(indexes, stmt)
		}
	}

	buf := new(bytes.Buffer)
	writeSection(buf, "AlterTable", alters)
	writeSection(buf, "CreateIndex", indexes)
	return buf.String(), nil
}

func writeSection(buf *bytes.Buffer, heading string, stmts []string) {
	for _, stmt := range stmts {
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		fmt.Fprintf(buf, "-- %s\n%s\n", heading, stmt)
	}
}

// indexName follows Prisma's default index naming, {table}_{column}_idx.
func indexName(table, col string) string {
	name := table + "_" + col + "_idx"
	if len(name) > maxIdentLen {
		n := maxIdentLen
		for n > 0 && !utf8.RuneStart(name[n]) {
			n--
		}
		name = name[:n]
	}
	return name
}

// checkStmt parses sql and makes sure it is a single statement
// of the expected kind that operates on table.
func checkStmt(sql, table string, wantIndex bool) error {
	tree, err := pg_query.Parse(sql)
	if err != nil {
		return errors.Wrapf(err, "parsing %s", sql)
	}
	if len(tree.Statements) != 1 {
		return fmt.Errorf("%d statements in parse tree, want 1", len(tree.Statements))
	}

	stmt := tree.Statements[0]
	if raw, ok := stmt.(nodes.RawStmt); ok {
		stmt = raw.Stmt
	}

	var rel *nodes.RangeVar
	switch stmt := stmt.(type) {
	case nodes.AlterTableStmt:
		if wantIndex {
			return fmt.Errorf("statement is ALTER TABLE, want CREATE INDEX")
		}
		rel = stmt.Relation
	case nodes.IndexStmt:
		if !wantIndex {
			return fmt.Errorf("statement is CREATE INDEX, want ALTER TABLE")
		}
		rel = stmt.Relation
	default:
		return fmt.Errorf("unexpected statement type %T", stmt)
	}

	if rel == nil || rel.Relname == nil {
		return fmt.Errorf("statement has no relation")
	}
	if *rel.Relname != table {
		return fmt.Errorf("statement is on relation %s, want %s", *rel.Relname, table)
	}
	return nil
}
