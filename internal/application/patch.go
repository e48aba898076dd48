package application

import (
	"encoding/json"
	"sort"

	"github.com/oksasatya/go-task-manager/pkg/validation"
)

// Patch is a partial update as sent by the client: field name to raw JSON value.
type Patch map[string]json.RawMessage

// checkAllowed rejects the whole patch when it names a field outside allowed
// or sets any field to null.
func (p Patch) checkAllowed(allowed ...string) error {
	ok := make(map[string]bool, len(allowed))
	for _, f := range allowed {
		ok[f] = true
	}
	fields := map[string]string{}
	for _, k := range p.keys() {
		switch {
		case !ok[k]:
			fields[k] = "is not allowed"
		case string(p[k]) == "null":
			fields[k] = "must not be null"
		}
	}
	if len(fields) > 0 {
		return invalid("invalid update", fields)
	}
	return nil
}

// decode copies the patch onto dst, whose pointer fields stay nil when absent.
func (p Patch) decode(dst any) error {
	b, err := json.Marshal(map[string]json.RawMessage(p))
	if err != nil {
		return invalid("invalid update", validation.ToDetails(err))
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return invalid("invalid update", validation.ToDetails(err))
	}
	return nil
}

func (p Patch) keys() []string {
	out := make([]string, 0, len(p))
	for k := range p {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
