package main

import "time"

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIDocument is a JSON-friendly document summary.
type CLIDocument struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Package     string      `json:"package"`
	File        string      `json:"file"`
	Shape       string      `json:"shape"`
	Deprecated  bool        `json:"deprecated,omitempty"`
	MemberCount int         `json:"member_count"`
	OutputFile  string      `json:"output_file"`
	Members     []CLIMember `json:"members,omitempty"`
}

// CLIMember is a JSON-friendly document member.
type CLIMember struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Signature  string `json:"signature"`
	Deprecated bool   `json:"deprecated,omitempty"`
}

// CLIArtifact is a JSON-friendly cached artifact record.
type CLIArtifact struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	FileName   string    `json:"file_name"`
	RenderedAt time.Time `json:"rendered_at"`
}
