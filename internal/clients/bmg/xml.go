package bmg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

const xsiNamespace = "http://www.w3.org/2001/XMLSchema-instance"

// XMLToMap decodes a SOAP response body into nested maps. Namespace
// prefixes are stripped from tag names, xsi:nil="true" elements decode
// to nil, repeated sibling tags collapse into a slice, and an element
// carrying both text and children keeps its text under "_text".
// Non-UTF-8 documents (BMG answers in latin-1) are transcoded via the
// declared charset.
func XMLToMap(data []byte) (interface{}, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.CharsetReader = charset.NewReaderLabel

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("empty XML document")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse XML: %w", err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			return parseElement(decoder, start)
		}
	}
}

func parseElement(decoder *xml.Decoder, start xml.StartElement) (interface{}, error) {
	for _, attr := range start.Attr {
		if attr.Name.Space == xsiNamespace && attr.Name.Local == "nil" && attr.Value == "true" {
			if err := decoder.Skip(); err != nil {
				return nil, err
			}
			return nil, nil
		}
	}

	result := map[string]interface{}{}
	for _, attr := range start.Attr {
		if attr.Name.Space == xsiNamespace && attr.Name.Local == "nil" {
			continue
		}
		if attr.Name.Local == "xmlns" || attr.Name.Space == "xmlns" {
			continue
		}
		result[attr.Name.Local] = attr.Value
	}

	var text strings.Builder
	for {
		tok, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to parse XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			child, err := parseElement(decoder, t)
			if err != nil {
				return nil, err
			}
			tag := t.Name.Local

			// Repeated sibling tags become an array
			if existing, ok := result[tag]; ok {
				if list, ok := existing.([]interface{}); ok {
					result[tag] = append(list, child)
				} else {
					result[tag] = []interface{}{existing, child}
				}
			} else {
				result[tag] = child
			}

		case xml.CharData:
			text.Write(t)

		case xml.EndElement:
			trimmed := strings.TrimSpace(text.String())
			if len(result) == 0 {
				if trimmed != "" {
					return trimmed, nil
				}
				return map[string]interface{}{}, nil
			}
			if trimmed != "" {
				result["_text"] = trimmed
			}
			return result, nil
		}
	}
}

// dig walks a nested decoded document along a tag path, nil when any
// hop is missing.
func dig(doc interface{}, path ...string) interface{} {
	current := doc
	for _, key := range path {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current = m[key]
	}
	return current
}
