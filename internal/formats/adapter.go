package formats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Decoder turns one authoring tool's export into raw test records.
// Decoders report unreadable input as an error; callers decide whether to
// degrade (the catalog treats it as an empty feed).
type Decoder interface {
	Decode(ctx context.Context, r io.Reader) ([]RawTest, error)
}

// Registry of decoders by profile key (e.g. "evalify.v1", "xlsx.v1").
var registry = map[string]Decoder{}

// Register a profile decoder. Call from init() in subpackages.
func Register(profile string, d Decoder) { registry[profile] = d }

// Lookup returns a registered decoder for a profile.
func Lookup(profile string) (Decoder, bool) { d, ok := registry[profile]; return d, ok }

// Profiles lists registered profile keys, sorted.
func Profiles() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Decode runs the decoder registered for profile.
func Decode(ctx context.Context, profile string, r io.Reader) ([]RawTest, error) {
	d, ok := Lookup(profile)
	if !ok {
		return nil, fmt.Errorf("unknown feed profile: %s", profile)
	}
	return d.Decode(ctx, r)
}

// EncodeFeed writes raw tests in the JSON feed shape.
func EncodeFeed(raw []RawTest) ([]byte, error) {
	if raw == nil {
		raw = []RawTest{}
	}
	return json.Marshal(raw)
}
