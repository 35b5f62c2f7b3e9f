// Package ir provides the property value model shared by every other package.
//
// ir imports nothing internal. Values are a sealed sum type (IRValue) with a
// total order (Compare) used by the interval algebra, result ordering and the
// order-preserving relation codec.
//
// Key design constraints:
//   - NO float types anywhere - use int64 for numbers
//   - Strings are NFC normalized before they are stored or compared
//   - Canonical JSON (RFC 8785) is used for every fingerprint
package ir
