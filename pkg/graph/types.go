package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
)

// NodeID is a content-addressed identifier for graph nodes.
type NodeID string

// IsZero reports whether the ID is unset.
func (id NodeID) IsZero() bool { return id == "" }

// Short returns a truncated form of the ID for log and error messages.
func (id NodeID) Short() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}

// ContentHash is the hex sha256 of a node's kind, data, and children. Two
// nodes with the same hash denote the same subtree.
type ContentHash string

// SourceRef points back at the DSL expression that created a node.
type SourceRef struct {
	Line    int    `json:"line,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// Vec3 is the graph-level vector: plain exported fields so node data stays
// serializable without depending on the kernel's vector type.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns the component-wise sum.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// IsZero reports whether all components are exactly zero.
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Length returns the Euclidean norm.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// HashNode computes the content hash over kind, data, and child IDs. Data is
// folded in via its fmt representation, which is stable for the plain structs
// used as node data.
func HashNode(kind NodeKind, data NodeData, children []NodeID) ContentHash {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%#v|", kind, data)
	for _, c := range children {
		fmt.Fprintf(h, "%s|", c)
	}
	return ContentHash(hex.EncodeToString(h.Sum(nil)))
}

// NewNodeID derives a node ID from a content hash.
func NewNodeID(hash ContentHash) NodeID {
	return NodeID(hash)
}

// NodeIDFromPath derives a node ID by hashing a path string. Named nodes use
// this so their identity follows the name rather than the content: editing a
// parameter keeps the ID stable across evaluations.
func NodeIDFromPath(path string) NodeID {
	sum := sha256.Sum256([]byte(path))
	return NodeID(hex.EncodeToString(sum[:]))
}
