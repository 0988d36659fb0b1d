package driver

import (
	"bytes"

	"golang.org/x/text/encoding/unicode"
)

const gd3Magic = "Gd3 "

// gd3Keys are the GD3 string fields in file order.
var gd3Keys = []string{
	"track_name",
	"track_name_j",
	"game_name",
	"game_name_j",
	"system_name",
	"system_name_j",
	"track_author",
	"track_author_j",
	"date",
	"converted",
	"notes",
}

// blankTags returns tags with every field empty.
func blankTags() Meta {
	m := make(Meta, len(gd3Keys))
	for _, k := range gd3Keys {
		m[k] = ""
	}
	return m
}

// parseGD3 decodes a GD3 tag block starting at data[0]. Missing or
// damaged tags yield blank fields rather than an error.
func parseGD3(data []byte) Meta {
	m := blankTags()
	if !bytes.HasPrefix(data, []byte(gd3Magic)) || len(data) < 12 {
		return m
	}
	body := data[12:]
	if n := int(le(data, 8, 4)); n > 0 && n < len(body) {
		body = body[:n]
	}
	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	for _, k := range gd3Keys {
		end := 0
		for end+1 < len(body) && (body[end] != 0 || body[end+1] != 0) {
			end += 2
		}
		if s, err := dec.Bytes(body[:end]); err == nil {
			m[k] = string(s)
		}
		if end+2 >= len(body) {
			break
		}
		body = body[end+2:]
	}
	return m
}
