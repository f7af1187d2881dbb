package refdoc

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/refdoc/internal/config"
)

// Golden test format.
type goldenFile struct {
	Documents []goldenDoc `json:"documents"`
}

type goldenDoc struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Package     string         `json:"package"`
	File        string         `json:"file"`
	Shape       string         `json:"shape"`
	Description string         `json:"description,omitempty"`
	Members     []goldenMember `json:"members"`
}

type goldenMember struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Deprecated bool   `json:"deprecated,omitempty"`
}

// TestGolden walks testdata/modules/ and checks the generated document
// set of each sample module against its golden.json.
func TestGolden(t *testing.T) {
	moduleDirs, err := os.ReadDir(filepath.Join("testdata", "modules"))
	require.NoError(t, err)

	for _, entry := range moduleDirs {
		if !entry.IsDir() {
			continue
		}
		moduleDir := filepath.Join("testdata", "modules", entry.Name())
		goldenPath := filepath.Join(moduleDir, "golden.json")
		if _, err := os.Stat(goldenPath); os.IsNotExist(err) {
			continue
		}

		t.Run(entry.Name(), func(t *testing.T) {
			data, err := os.ReadFile(goldenPath)
			require.NoError(t, err)
			var golden goldenFile
			require.NoError(t, json.Unmarshal(data, &golden))

			e, err := New(config.Config{
				Module:    moduleDir,
				Entry:     "./refs",
				Dirs:      []string{"."},
				Output:    filepath.Join(t.TempDir(), "out"),
				Highlight: config.HighlightPlain,
				Env:       []string{"GOWORK=off", "GOFLAGS=-mod=mod"},
			})
			require.NoError(t, err)

			set, err := e.Generate(context.Background())
			require.NoError(t, err)
			require.Len(t, set.Pages, len(golden.Documents), "document count")

			for i, want := range golden.Documents {
				doc := set.Pages[i].Doc
				assert.Equal(t, want.ID, doc.ID)
				assert.Equal(t, want.Name, doc.Name)
				assert.Equal(t, want.Package, doc.Package)
				assert.Equal(t, want.File, doc.File)
				assert.Equal(t, want.Shape, string(doc.Shape))
				if want.Description != "" {
					assert.Equal(t, want.Description, doc.Description)
				}

				require.Len(t, doc.Members, len(want.Members), "members of %s", want.ID)
				for j, wm := range want.Members {
					assert.Equal(t, wm.Name, doc.Members[j].Name, "%s member %d", want.ID, j)
					assert.Equal(t, wm.Kind, string(doc.Members[j].Kind), "%s member %s", want.ID, wm.Name)
					assert.Equal(t, wm.Deprecated, doc.Members[j].Deprecated, "%s member %s", want.ID, wm.Name)
				}
			}
		})
	}
}
