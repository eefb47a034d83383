package domain

import "encoding/json"

// ChangePayload is the JSON image of a record on one side of a Change. A
// create carries no Before image and a delete no After image; the zero value
// stands for that missing side.
type ChangePayload struct {
	raw json.RawMessage
}

// RecordPayload encodes a project, application, enquiry or user as a change
// image.
func RecordPayload[T any](record T) (ChangePayload, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return ChangePayload{}, err
	}
	return ChangePayload{raw: raw}, nil
}

// Present reports whether the image exists.
func (p ChangePayload) Present() bool { return len(p.raw) > 0 }

// Raw returns a copy of the encoded image, or nil when absent.
func (p ChangePayload) Raw() json.RawMessage {
	if len(p.raw) == 0 {
		return nil
	}
	return append(json.RawMessage(nil), p.raw...)
}

// DecodePayload decodes the image into T. It reports false when the image is
// absent or does not decode as T.
func DecodePayload[T any](p ChangePayload) (T, bool) {
	var out T
	if !p.Present() {
		return out, false
	}
	if err := json.Unmarshal(p.raw, &out); err != nil {
		return out, false
	}
	return out, true
}
