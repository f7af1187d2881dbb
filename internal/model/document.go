// Package model defines the document shapes produced by analysis and
// the deterministic ordering applied before rendering.
package model

// MemberKind classifies a document member.
type MemberKind string

const (
	KindMethod   MemberKind = "method"
	KindField    MemberKind = "field"
	KindConstant MemberKind = "constant"
)

// Shape names the apparent form a subject type was flattened from.
type Shape string

const (
	ShapeInterface Shape = "interface"
	ShapeStruct    Shape = "struct"
	ShapeEnum      Shape = "enum"
)

// Member is one documented member of a subject type.
type Member struct {
	Name       string     `json:"name"`
	Kind       MemberKind `json:"kind"`
	Signature  string     `json:"signature"`
	Doc        string     `json:"doc,omitempty"`
	Deprecated bool       `json:"deprecated,omitempty"`
}

// Document is the self-contained description of one published handle.
// It holds no references back into the analyzed program, so it stays
// valid after the program is released.
type Document struct {
	// ID is the stable identity the handle was published under.
	ID string `json:"id"`

	// Name is the exported identifier naming the handle.
	Name string `json:"name"`

	// Package is the import path declaring the handle, and File the
	// module-relative path of its source file.
	Package string `json:"package"`
	File    string `json:"file"`

	Description string `json:"description,omitempty"`
	Deprecated  bool   `json:"deprecated,omitempty"`

	// Signature is the instantiated type of the exported handle.
	Signature string `json:"signature"`

	// Decl is the normalized declaration block of the subject type.
	Decl string `json:"decl"`

	Shape   Shape    `json:"shape"`
	Members []Member `json:"members"`
}
