package remote

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/quotesync/internal/model"
)

// recordSchema is the shape every remote element must satisfy. Author falls
// back to the unknown sentinel when absent.
const recordSchema = `
#Record: {
	text:     string & =~"\\S"
	author:   *"unknown" | string
	category: string & !=""
	...
}
`

// validator holds a compiled schema. cue.Context is not safe for concurrent
// use, so access is serialized.
type validator struct {
	mu     sync.Mutex
	ctx    *cue.Context
	record cue.Value
}

var defaultValidator = mustValidator()

func mustValidator() *validator {
	ctx := cuecontext.New()
	schema := ctx.CompileString(recordSchema)
	if err := schema.Err(); err != nil {
		panic(fmt.Sprintf("remote: compile record schema: %v", err))
	}
	return &validator{
		ctx:    ctx,
		record: schema.LookupPath(cue.ParsePath("#Record")),
	}
}

// check validates one decoded JSON element against #Record and returns the
// record with defaults applied.
func (v *validator) check(elem any) (model.Record, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	val := v.ctx.Encode(elem)
	if err := val.Err(); err != nil {
		return model.Record{}, fmt.Errorf("encode element: %w", err)
	}

	unified := v.record.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return model.Record{}, err
	}

	var r model.Record
	if err := unified.Decode(&r); err != nil {
		return model.Record{}, fmt.Errorf("decode element: %w", err)
	}
	return r.Normalize(), nil
}
