// Package response provides slim JSON response builders
// that only serialize fields the client actually renders
package response

import "github.com/kittclouds/tenwords/internal/store"

// Word is the client view of an item: key and payload only.
// Internal ids and serve counts never leave the server.
type Word struct {
	Word        string `json:"word"`
	Translation string `json:"translation"`
}

// WordResponse is the body of GET /words
//
//	{"words": [{"word": "yksi", "translation": "one"}, ...]}
type WordResponse struct {
	Words []Word `json:"words"`
}

// FromItems converts picked items, keeping their order
func FromItems(items []store.Item) *WordResponse {
	resp := &WordResponse{Words: make([]Word, 0, len(items))}
	for _, it := range items {
		resp.Words = append(resp.Words, Word{
			Word:        it.Word,
			Translation: it.Translation,
		})
	}
	return resp
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}
