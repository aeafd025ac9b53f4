// Package graph defines the design graph types for Armature.
// The design graph is an immutable DAG of geometry primitives, transforms,
// modifiers, and groups that represents a parametric design.
package graph
