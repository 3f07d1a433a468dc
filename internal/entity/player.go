package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is an opaque server identifier. The server may send it as a JSON number or string.
type ID string

func (that *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if bytes.Equal(data, []byte("null")) {
		*that = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("failed to unmarshal id: %w", err)
		}
		*that = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("failed to unmarshal id: %w", err)
	}
	*that = ID(n.String())

	return nil
}

// MarshalJSON writes canonical integer ids back as numbers so they round-trip to the server unchanged.
// Anything else, including "007" or "+5", stays a string.
func (that ID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(that), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(that) {
		return []byte(that), nil
	}

	return json.Marshal(string(that))
}

type User struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Participant is a registered user bound to a mark for the lifetime of a session.
type Participant struct {
	ID   ID
	Name string
	Mark Mark
}

func NewParticipant(user *User, mark Mark) Participant {
	return Participant{
		ID:   user.ID,
		Name: user.Name,
		Mark: mark,
	}
}

func (that Participant) IsZero() bool {
	return that.ID == "" && that.Name == ""
}
