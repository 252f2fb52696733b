package protocol

import (
	"encoding/base64"
)

// DefaultMimeType is assumed for resource contents that carry no media type.
const DefaultMimeType = "application/octet-stream"

// ResourceContent is one normalized entry of a resource read. Exactly one of
// Text or Data is populated for well-formed host responses; an entry with
// neither still carries its URI and a default MIME type.
type ResourceContent struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text,omitempty"`
	Data     []byte `json:"data,omitempty"`
}

// NormalizeResourceContents converts raw host resource payload entries into
// the common ResourceContent shape. Text entries pass through unchanged,
// base64 blob entries are decoded into bytes, and entries with neither yield
// a URI-only entry with the default MIME type. Entries that cannot be
// interpreted at all are skipped rather than failing the read.
func NormalizeResourceContents(raw []interface{}) []ResourceContent {
	out := make([]ResourceContent, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		content := ResourceContent{}
		if uri, ok := entry["uri"].(string); ok {
			content.URI = uri
		}
		if mime, ok := entry["mimeType"].(string); ok {
			content.MimeType = mime
		}

		if text, ok := entry["text"].(string); ok {
			content.Text = text
			if content.MimeType == "" {
				content.MimeType = "text/plain"
			}
			out = append(out, content)
			continue
		}

		if blob, ok := entry["blob"].(string); ok {
			data, err := base64.StdEncoding.DecodeString(blob)
			if err != nil {
				// Malformed blob payloads are dropped, not surfaced.
				continue
			}
			content.Data = data
			if content.MimeType == "" {
				content.MimeType = DefaultMimeType
			}
			out = append(out, content)
			continue
		}

		if content.MimeType == "" {
			content.MimeType = DefaultMimeType
		}
		out = append(out, content)
	}
	return out
}
