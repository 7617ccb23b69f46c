// Package ir provides the value types held by reactive cells and their
// canonical encoding.
//
// This package contains value definitions only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Values are a sealed set: Null, String, Int, Float, Bool, Array, Object
//   - Floats must be finite (no NaN or infinities)
//   - Equality is canonical-JSON equality (RFC 8785 key order, NFC strings)
//   - Fingerprints use SHA-256 with domain separation
package ir
