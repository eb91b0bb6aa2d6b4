// Package formula provides the record types shared by every other internal
// package.
//
// This package contains type definitions and identity hashing only. All other
// internal packages import formula; formula imports nothing internal. This
// keeps the record layer foundational with no circular dependencies.
//
// Key design constraints:
//   - Category is a closed set; anything outside it is rejected at load time
//   - Records are immutable after snapshot loading
//   - All JSON and YAML tags use snake_case
package formula
