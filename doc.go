// Package prismatenant adds a tenant column to the models of a Prisma schema.
//
// For each model in a configured list,
// Inject makes sure the model block declares a tenant field
// (by default "tenantId String", placed just before the block's "// User relation" comment)
// and a matching "@@index([tenantId])" line after the block's last index.
//
// The schema is scanned into top-level blocks first,
// so every edit stays inside the block it belongs to
// and blocks that are not targeted come out byte-for-byte unchanged.
// Within a block, though, "already present" is a plain substring test:
// a tenant field mentioned in a comment counts as present.
// This makes the patch idempotent,
// at the price of occasionally suppressing an insertion that was really needed.
//
// A targeted model whose block lacks the expected shape
// (no "// User relation" marker, or no trailing @@index line)
// is left alone and reported in the Skip field of its ModelResult.
//
// An Injector remembers the results of recent Inject calls, keyed by input text.
// A single CLI run gains nothing from this;
// long-lived callers do, such as editor integrations or CI hooks
// that re-check the same schema on every save or commit.
//
// Migration renders the same patch as Postgresql DDL,
// checked with the Postgresql parser,
// for projects that apply schema changes with hand-written migrations.
package prismatenant
