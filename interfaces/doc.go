// Package interfaces defines core types and capability interfaces for the
// spool tag scanner, separating contracts from implementations.
//
// # Tag Types
//
// TagUID: The card's unique identifier as read from the transport, 4-16
// bytes. SectorKey and SectorKeySet carry the per-tag authentication keys
// produced by the derivation unit; a key set is derived fresh for every
// scan session and never persisted.
//
// ScanRecord: The accumulated decoded state for one tag presentation. All
// fields start at their zero value except TrayUID, which starts at the
// MissingTrayUID sentinel. A field is only overwritten by a successful
// decode of its owning block.
//
// # Hardware Capabilities
//
// TagTransport: Presence polling, UID acquisition and the per-block
// authenticate/read primitives. Implementations report authentication
// failure, read failure and tag absence through the sentinel errors
// ErrAuthFailed, ErrReadFailed and ErrNoTag so callers can tell transient
// conditions apart from a lost transport.
//
// Toner, Display: Operator feedback. Both are optional; the session runs
// with either or both absent.
//
// # Scan Log Storage
//
// ScanStore: Append-only scan log used by the remote append service, with
// duplicate detection keyed on (code, trayUid). ScanStoreFactory creates
// stores from URI strings (file://, s3://).
package interfaces
