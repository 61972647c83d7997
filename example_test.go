package prismatenant_test

import (
	"fmt"
	"log"

	"github.com/bobg/prismatenant"
)

func Example() {
	// Only the models listed here are touched.
	// With no list, DefaultModels is used.
	inj, err := prismatenant.NewInjector(prismatenant.Config{Models: []string{"Deal"}}, nil)
	if err != nil {
		log.Fatal(err)
	}

	const schema = `model Deal {
  id    String @id
  title String
  // User relation
  userId String

  @@index([userId])
}
`

	result := inj.Inject(schema)
	fmt.Print(result.Schema)

	// Output:
	// model Deal {
	//   id    String @id
	//   title String
	//
	//   // Multi-tenant relationship
	//   tenantId        String
	//
	//   // User relation
	//   userId String
	//
	//   @@index([userId])
	//   @@index([tenantId])
	// }
}

func ExampleInjector_Migration() {
	inj, err := prismatenant.NewInjector(prismatenant.Config{Models: []string{"Deal"}}, nil)
	if err != nil {
		log.Fatal(err)
	}

	const schema = `model Deal {
  id String @id
  // User relation
  userId String

  @@index([userId])
  @@map("deals")
}
`

	// This model is skipped (its last attribute is not an index),
	// so the migration is empty.
	result := inj.Inject(schema)
	fmt.Printf("skipped: %v\n", result.Skipped())

	sql, err := inj.Migration(inj.Inject(`model Deal {
  id String @id
  // User relation
  userId String

  @@map("deals")
  @@index([userId])
}
`))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(sql)

	// Output:
	// skipped: [Deal]
	// -- AlterTable
	// ALTER TABLE "deals" ADD COLUMN "tenantId" TEXT NOT NULL;
	//
	// -- CreateIndex
	// CREATE INDEX "deals_tenantId_idx" ON "deals"("tenantId");
}
