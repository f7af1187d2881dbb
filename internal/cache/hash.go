package cache

import (
	"crypto/sha256"
	"fmt"

	"github.com/jward/refdoc/internal/model"
)

// ComputeDocHash computes a deterministic hash over a document's
// semantic fields. Members feed the hash in declaration order, since
// their order is part of the document's meaning.
func ComputeDocHash(doc model.Document) string {
	h := sha256.New()
	fmt.Fprintf(h, "id:%s\n", doc.ID)
	fmt.Fprintf(h, "name:%s\n", doc.Name)
	fmt.Fprintf(h, "package:%s\n", doc.Package)
	fmt.Fprintf(h, "file:%s\n", doc.File)
	fmt.Fprintf(h, "description:%s\n", doc.Description)
	fmt.Fprintf(h, "deprecated:%v\n", doc.Deprecated)
	fmt.Fprintf(h, "signature:%s\n", doc.Signature)
	fmt.Fprintf(h, "decl:%s\n", doc.Decl)
	fmt.Fprintf(h, "shape:%s\n", doc.Shape)
	for _, m := range doc.Members {
		fmt.Fprintf(h, "member:%s:%s:%s:%v:%s\n", m.Name, m.Kind, m.Signature, m.Deprecated, m.Doc)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// HashBytes returns the hash of rendered output bytes.
func HashBytes(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}
