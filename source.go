package salad

import (
	"sync"

	"github.com/reoring/salad/internal/tree"
)

// Parser turns document text into a plain tree (map[string]any, []any and
// scalars) plus the source positions of its values. The default
// implementation is based on gopkg.in/yaml.v3 and may be swapped with
// SetParser.
type Parser interface {
	Parse(data []byte, uri string) (any, *Locations, error)
	Name() string
}

var (
	parserMu      sync.RWMutex
	currentParser Parser = defaultParser{}
)

// SetParser replaces the global parser; nil values are ignored.
func SetParser(p Parser) {
	if p == nil {
		return
	}
	parserMu.Lock()
	currentParser = p
	parserMu.Unlock()
}

// UseDefaultParser restores the default yaml.v3-backed parser.
func UseDefaultParser() {
	parserMu.Lock()
	currentParser = defaultParser{}
	parserMu.Unlock()
}

func getParser() Parser {
	parserMu.RLock()
	p := currentParser
	parserMu.RUnlock()
	return p
}

// CurrentParser reports the parser used by LoadDocumentFromText.
func CurrentParser() Parser { return getParser() }

// defaultParser wraps gopkg.in/yaml.v3, which also reads JSON.
type defaultParser struct{}

func (defaultParser) Parse(data []byte, uri string) (any, *Locations, error) {
	v, ix, err := tree.ParseYAML(data)
	if err != nil {
		return nil, nil, err
	}
	return v, NewLocations(uri, ix), nil
}

func (defaultParser) Name() string { return "yaml.v3" }
