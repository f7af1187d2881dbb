package refdoc

import (
	"github.com/jward/refdoc/internal/cache"
	"github.com/jward/refdoc/internal/config"
	"github.com/jward/refdoc/internal/model"
	"github.com/jward/refdoc/internal/scan"
)

// Public type aliases for the internal pipeline types. These are Go
// type aliases (=) — identical to the internal types at compile time.
// External consumers use these names; no conversion is needed.

type Config = config.Config
type Document = model.Document
type Member = model.Member
type MemberKind = model.MemberKind
type Shape = model.Shape
type Artifact = cache.Artifact

const (
	KindMethod   = model.KindMethod
	KindField    = model.KindField
	KindConstant = model.KindConstant
)

const (
	ShapeInterface = model.ShapeInterface
	ShapeStruct    = model.ShapeStruct
	ShapeEnum      = model.ShapeEnum
)

// Error taxonomy, aliased from the packages that raise them. All of
// these abort a run; only snippet highlighting degrades softly.

// NotFoundError: the entry package exports no factory under the
// requested name.
type NotFoundError = scan.NotFoundError

// AmbiguousError: one exported name resolves to more than one distinct
// declaration, or two scanned handles share an exported name.
type AmbiguousError = scan.AmbiguousError

// CycleError: a re-export chain cycles or exceeds the alias depth
// bound.
type CycleError = scan.CycleError

// IdentityError: a factory call lacks a usable compile-time identity,
// or two handles publish the same id.
type IdentityError = model.IdentityError

// BuildError: a subject type could not be turned into a document;
// wraps the cause and the originating file.
type BuildError = model.BuildError
