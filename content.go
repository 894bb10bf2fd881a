package acp

// Content block type discriminators (the "type" field of a ContentBlock).
const (
	ContentTypeText         = "text"
	ContentTypeImage        = "image"
	ContentTypeAudio        = "audio"
	ContentTypeResourceLink = "resource_link"
	ContentTypeResource     = "resource"
)

// Annotations carries optional metadata on a ContentBlock: intended
// audience, last-modified time, and relative priority. All fields are
// optional and any subset may be present.
type Annotations struct {
	Audience     []string `json:"audience,omitempty"`
	LastModified string   `json:"lastModified,omitempty"`
	Priority     *float64 `json:"priority,omitempty"`
}

// ContentBlock is the sum type used in prompts, assistant/thought chunks,
// and tool-call content. Type selects which other fields apply:
//
//   - text: Text
//   - image / audio: Data (base64) + MimeType
//   - resource_link: URI (+ optional Name/MimeType via Resource fields)
//   - resource: Resource (embedded text or blob resource contents)
type ContentBlock struct {
	Type        string       `json:"type"`
	Text        string       `json:"text,omitempty"`
	Data        string       `json:"data,omitempty"`
	MimeType    string       `json:"mimeType,omitempty"`
	URI         string       `json:"uri,omitempty"`
	Resource    *Resource    `json:"resource,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

// Resource represents embedded or linked resource contents: either a text
// body or a base64-encoded blob, keyed by URI.
type Resource struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}

// TextBlock is a convenience constructor for the common "text" content
// block, mirroring how the teacher's client built prompt content inline.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: ContentTypeText, Text: text}
}
