package domain

import (
	"bytes"
	"encoding/json"
)

// ID is a webcast or object id that may arrive as a JSON string or number.
// Strings are kept exactly as sent; numbers keep their decimal text. Null and
// values of any other JSON type decode to the empty id.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	*id = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*id = ID(n.String())
	}
	return nil
}

func (id ID) String() string {
	return string(id)
}
