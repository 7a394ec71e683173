package aggregate

import (
	"encoding/json"
	"strconv"
)

// BlobKind tags the decoded shape of a record's value blob.
type BlobKind int

const (
	// BlobUnparseable covers empty blobs, invalid JSON and JSON values that
	// are neither a number nor an object.
	BlobUnparseable BlobKind = iota
	// BlobScalar is a bare number.
	BlobScalar
	// BlobKeyed is an object of channel-key to numeric value.
	BlobKeyed
)

// Blob is the tagged decoding of a value blob. Every read of stored vals goes
// through this type; nothing downstream branches on raw JSON.
type Blob struct {
	Kind   BlobKind
	Scalar float64
	Keyed  map[string]float64
}

// ParseBlob decodes a stored value blob. It never fails: anything that does
// not decode becomes BlobUnparseable.
func ParseBlob(raw string) Blob {
	// json.Unmarshal accepts "null" into any target without error, so it has
	// to be rejected before the type probes below.
	if raw == "" || raw == "null" {
		return Blob{Kind: BlobUnparseable}
	}

	var num float64
	if err := json.Unmarshal([]byte(raw), &num); err == nil {
		return Blob{Kind: BlobScalar, Scalar: num}
	}

	var str string
	if err := json.Unmarshal([]byte(raw), &str); err == nil {
		if f, err := strconv.ParseFloat(str, 64); err == nil {
			return Blob{Kind: BlobScalar, Scalar: f}
		}
		return Blob{Kind: BlobUnparseable}
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err == nil {
		keyed := make(map[string]float64, len(obj))
		for k, v := range obj {
			if f, ok := toFloat(v); ok {
				keyed[k] = f
			}
		}
		return Blob{Kind: BlobKeyed, Keyed: keyed}
	}

	return Blob{Kind: BlobUnparseable}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Lookup resolves a channel key against the blob. A scalar blob answers any
// key with its value; a keyed blob answers by lookup; anything else is nil.
func (b Blob) Lookup(key string) *float64 {
	switch b.Kind {
	case BlobScalar:
		v := b.Scalar
		return &v
	case BlobKeyed:
		if v, ok := b.Keyed[key]; ok {
			return &v
		}
	}
	return nil
}

// Amount is the blob's contribution to an accumulation sum for the given
// key: the looked-up value, or 0 when there is none.
func (b Blob) Amount(key string) float64 {
	if v := b.Lookup(key); v != nil {
		return *v
	}
	return 0
}
