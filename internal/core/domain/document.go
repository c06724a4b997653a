package domain

import (
	"errors"
	"strings"
)

// UploadedDocument is one scanned file submitted for analysis. Content is
// held in memory for the duration of a single pipeline run and never
// persisted.
type UploadedDocument struct {
	Name    string
	Type    string // MIME type
	Content []byte
}

func (d UploadedDocument) IsImage() bool {
	return strings.HasPrefix(d.Type, "image/")
}

// FileMeta is the name/type projection of an uploaded document recorded in
// the analysis state. Content is deliberately excluded.
type FileMeta struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func FileMetaFor(docs []UploadedDocument) []FileMeta {
	meta := make([]FileMeta, 0, len(docs))
	for _, doc := range docs {
		meta = append(meta, FileMeta{Name: doc.Name, Type: doc.Type})
	}
	return meta
}

type inputKind int

const (
	inputNone inputKind = iota
	inputDocuments
	inputText
)

// AnalysisInput is the tagged union of the two accepted pipeline inputs:
// a list of uploaded documents, or free-form fallback text (legacy
// single-input mode). The zero value is invalid; NewAnalysisInput is the
// only constructor, which makes the empty-input rejection structural.
type AnalysisInput struct {
	kind      inputKind
	documents []UploadedDocument
	text      string
}

func NewAnalysisInput(docs []UploadedDocument, fallbackText string) (AnalysisInput, error) {
	if len(docs) > 0 {
		return AnalysisInput{kind: inputDocuments, documents: docs}, nil
	}
	if strings.TrimSpace(fallbackText) != "" {
		return AnalysisInput{kind: inputText, text: fallbackText}, nil
	}
	return AnalysisInput{}, WrapError(ErrEmptyInput, "build analysis input", errors.New("no documents and no fallback text"))
}

func (in AnalysisInput) IsZero() bool {
	return in.kind == inputNone
}

func (in AnalysisInput) Documents() ([]UploadedDocument, bool) {
	return in.documents, in.kind == inputDocuments
}

func (in AnalysisInput) Text() (string, bool) {
	return in.text, in.kind == inputText
}
