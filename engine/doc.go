// Package engine provides a schema-agnostic DynamoDB single-table client.
//
// Tessera is the data-access layer for single-table designs: many logical
// entity types co-located in one table, distinguished by partition and
// sort key prefixes. The engine knows nothing about any entity's schema;
// it gives every consumer the same read, write, query, and batch
// operations over a (partition, sort) keyed store with secondary indexes.
//
// # Values
//
// Attribute values are a closed tagged union built with constructors:
//
//	item := engine.Item{
//	    "PK":    engine.StringValue("USER#1"),
//	    "SK":    engine.StringValue("PROFILE"),
//	    "total": engine.FloatValue(12.0),
//	    "tags":  engine.ListValue([]engine.Value{engine.StringValue("a")}),
//	}
//
// Numbers travel as fixed-point wire decimals, so no precision is lost.
// On read, a decimal with a zero fractional part classifies as an
// integer: the 12.0 above reads back as IntValue(12).
//
// # Queries and pagination
//
// [Engine.Query] runs one page and reports HasMore plus an opaque
// NextToken. Tokens are self-contained; resubmit them verbatim via
// QuerySpec.StartToken or [Engine.QueryWithPagination] to resume.
// Callers never construct or inspect a token.
//
// # Optimistic concurrency
//
// A [WriteCondition] turns a write into a compare-and-swap. A failed
// predicate surfaces as [ConflictError]; callers re-read and retry. The
// engine itself never retries, so its behavior stays deterministic.
//
// # Errors
//
// Every failure is one of the closed set [ValidationError],
// [ConflictError], [DatabaseError], [InvalidTokenError], or
// [SerializationError]. Reads and writes never swallow backend errors;
// only [Engine.HealthCheck] converts failure to a boolean, since it
// exists purely for monitoring.
package engine
