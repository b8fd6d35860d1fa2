// Package domain holds the types shared between the registration and
// certificate modules: registration records and profile names.
package domain

import "strings"

// Record is one registration entry. Records have no identity besides their
// position in the store and are never updated or deleted.
type Record struct {
	Name       string `json:"name"`
	College    string `json:"college"`
	PaperTitle string `json:"paper_title,omitempty"`
	Email      string `json:"email"`
}

// SafeName derives the document base name from the registrant name.
// Spaces become underscores; path separators are replaced too so a name can
// never address a file outside the output directory. Two records whose names
// sanitize to the same value share a document name and the later one wins.
func (r Record) SafeName() string {
	return nameReplacer.Replace(r.Name)
}

var nameReplacer = strings.NewReplacer(" ", "_", "/", "_", `\`, "_")
