// Package compiler turns a resolved list of schema declarations into a
// salad.Program: one interned loader per distinct type shape, one record
// unit per concrete record and a root loader for whole documents.
package compiler

import (
	"github.com/sirupsen/logrus"

	salad "github.com/reoring/salad"
)

// Options controls compilation.
type Options struct {
	// Logger receives debug output; defaults to the logrus standard logger.
	Logger logrus.FieldLogger
	// TypeDSL recognises type shorthand in fields marked typeDSL; defaults
	// to salad.DefaultTypeDSL.
	TypeDSL salad.TypeDSLRule
	// RootTypes, when set, names the records accepted at the document root
	// instead of those flagged documentRoot.
	RootTypes []string
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger == nil {
		return logrus.StandardLogger()
	}
	return o.Logger
}

func (o Options) typeDSL() salad.TypeDSLRule {
	if o.TypeDSL == nil {
		return salad.DefaultTypeDSL
	}
	return o.TypeDSL
}
