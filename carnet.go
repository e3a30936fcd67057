// Package carnet resolves scanned identity-card QR codes into structured
// personal records. A decoded QR payload is resolved by fetching the card
// page it points to, flattening the page to visible text, and running a
// heuristic field extractor over that text.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, rod/, goquery/).
package carnet
