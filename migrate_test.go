package prismatenant

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigration(t *testing.T) {
	inj := newTestInjector(t)
	got, err := inj.Migration(Transformed{
		Models: []ModelResult{
			{Name: "Invoice", Table: "Invoice", FieldAdded: true, IndexAdded: true},
			{Name: "Task", Table: "Task", Skip: SkipNoMarker},
			{Name: "Deal", Table: "deals", IndexAdded: true},
			{Name: "Form", Table: "Form", FieldAdded: true},
		},
	})
	require.NoError(t, err)

	const want = `-- AlterTable
ALTER TABLE "Invoice" ADD COLUMN "tenantId" TEXT NOT NULL;

-- AlterTable
ALTER TABLE "Form" ADD COLUMN "tenantId" TEXT NOT NULL;

-- CreateIndex
CREATE INDEX "Invoice_tenantId_idx" ON "Invoice"("tenantId");

-- CreateIndex
CREATE INDEX "deals_tenantId_idx" ON "deals"("tenantId");
`
	assert.Equal(t, want, got)
}

func TestMigrationFromInject(t *testing.T) {
	inj := newTestInjector(t)
	result := inj.Inject(crmSchema)

	got, err := inj.Migration(result)
	require.NoError(t, err)
	assert.Contains(t, got, `ALTER TABLE "Invoice" ADD COLUMN "tenantId" TEXT NOT NULL;`)
	assert.NotContains(t, got, `"Task"`)

	// Nothing left to do on the second pass.
	got, err = inj.Migration(inj.Inject(result.Schema))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMigrationQuoting(t *testing.T) {
	inj := newTestInjector(t)
	got, err := inj.Migration(Transformed{
		Models: []ModelResult{{Name: "Odd", Table: `odd"table`, FieldAdded: true}},
	})
	require.NoError(t, err)
	assert.Contains(t, got, `ALTER TABLE "odd""table" ADD COLUMN`)
}

func TestMigrationUnknownType(t *testing.T) {
	inj, err := NewInjector(Config{Models: []string{"Deal"}, FieldType: "Json"}, nil)
	require.NoError(t, err)

	_, err = inj.Migration(Transformed{})
	assert.Equal(t, ErrUnknownType, errors.Cause(err))
}

func TestIndexName(t *testing.T) {
	assert.Equal(t, "Deal_tenantId_idx", indexName("Deal", "tenantId"))

	long := indexName(strings.Repeat("x", 80), "tenantId")
	assert.Len(t, long, maxIdentLen)

	// 61 ASCII bytes, then a 3-byte rune straddling the limit.
	wide := indexName(strings.Repeat("x", 61)+"表", "tenantId")
	assert.Equal(t, strings.Repeat("x", 61), wide)
	assert.True(t, utf8.ValidString(wide))
}

func TestCheckStmt(t *testing.T) {
	assert.NoError(t, checkStmt(`ALTER TABLE "Deal" ADD COLUMN "tenantId" TEXT NOT NULL;`, "Deal", false))
	assert.NoError(t, checkStmt(`CREATE INDEX "Deal_tenantId_idx" ON "Deal"("tenantId");`, "Deal", true))

	assert.Error(t, checkStmt(`ALTER TABLE "Deal" ADD COLUMN "tenantId" TEXT NOT NULL;`, "Deal", true))
	assert.Error(t, checkStmt(`ALTER TABLE "Deal" ADD COLUMN "tenantId" TEXT NOT NULL;`, "Task", false))
	assert.Error(t, checkStmt(`SELECT 1; SELECT 2;`, "Deal", false))
	assert.Error(t, checkStmt(`DROP TABLE "Deal";`, "Deal", false))
	assert.Error(t, checkStmt(`ALTER TABLE "Deal" ADD COLUMN`, "Deal", false))
}
