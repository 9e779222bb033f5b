// Package qrlogin holds the domain model for QR-code logins against external
// seller portals: the platform driver contract, immutable cookie snapshots,
// verification challenges, the login attempt state machine and the crawl
// account records that a completed login writes to.
//
// Drivers live in infrastructure/qrlogin. The orchestration that ties a
// driver to account persistence lives in application/qrlogin.
package qrlogin
