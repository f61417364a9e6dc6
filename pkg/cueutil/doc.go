// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates declarative input against an embedded CUE schema.
//
// Both the packaging manifest and the user configuration file go through the same flow:
//
//  1. Compile the embedded schema
//  2. Compile the user document (CUE or JSON) and unify it with a schema definition
//  3. Validate and decode into a Go value
//
// Errors carry the offending field path in JSON-path notation, e.g.
// "manifest.json: files[0]: incompatible list lengths (2 and 3)".
package cueutil
