// Package model defines the core entities of a sound-Edit project.
//
// A project is a tree: ProjectInfo owns Tracks, each Track owns an ordered
// sequence of AudioClips, and the project carries informational Markers.
// RenderTask lives outside that tree; its lifecycle is independent of the
// project it was rendered from.
//
// All types serialize to JSON with the field names the project file format
// uses on disk. Timestamps serialize as RFC 3339 / ISO-8601.
package model
