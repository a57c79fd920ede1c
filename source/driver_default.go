// Package source switches the default document parser to the goccy/go-yaml
// driver. Import it for its side effect:
//
//	import _ "github.com/reoring/salad/source"
package source

import (
	salad "github.com/reoring/salad"
	"github.com/reoring/salad/source/goyaml"
)

func init() { salad.SetParser(goyaml.Parser()) }
