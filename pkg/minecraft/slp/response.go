package slp

import (
	"bytes"
	"encoding/json"
	"strings"
)

type Response struct {
	Version     Version     `json:"version"`
	Players     Players     `json:"players"`
	Description Description `json:"description"`
	Favicon     string      `json:"favicon,omitempty"`
}

type Version struct {
	Name     string `json:"name"`
	Protocol int    `json:"protocol"`
}

type Players struct {
	Max    int      `json:"max"`
	Online int      `json:"online"`
	Sample []Sample `json:"sample,omitempty"`
}

type Sample struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Description is a chat component carrying the server's MOTD.
// Servers send it either as a plain JSON string or as an object
// with a text field and optional nested extra components
type Description struct {
	Text  string        `json:"text"`
	Extra []Description `json:"extra,omitempty"`
}

type descriptionObject struct {
	Text  string        `json:"text"`
	Extra []Description `json:"extra,omitempty"`
}

func (d *Description) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*d = Description{Text: text}
		return nil
	}
	var obj descriptionObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*d = Description(obj)
	return nil
}

// String flattens the component tree into plain text
func (d Description) String() string {
	if len(d.Extra) == 0 {
		return d.Text
	}
	var b strings.Builder
	b.WriteString(d.Text)
	for _, extra := range d.Extra {
		b.WriteString(extra.String())
	}
	return b.String()
}
