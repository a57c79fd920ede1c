// Package salad loads, validates and saves documents described by a
// schema of records, enums, arrays and unions with JSON-LD style
// identifiers.
//
// A schema is compiled (see package compiler) into a Program: a graph of
// interned loaders, one per distinct type shape, plus a vocabulary of short
// terms. Loading a document walks that graph, resolving identifiers and
// references to absolute URIs and collecting every problem into a single
// ValidationError tree. Saving walks the loaded records and compacts the
// URIs again, so that loading the saved output yields an equal document.
package salad
