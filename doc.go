// Package adminAuth authenticates administrators of a multi-tenant backend and
// resolves the permission set behind every protected request.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// adminAuth is the public surface. It exposes [Engine], [Builder], [Config],
// [Identity] and the collaborator contracts [UserDirectory] and
// [PermissionStore]. Flow orchestration, the lockout policy, the id cache and
// notification dispatch live under internal/ and are never exported directly.
// Storage adapters live in sqlstore and memstore; HTTP glue lives in
// middleware.
//
// # What this package must NOT do
//
//   - Own account or permission storage. The engine reads accounts and asks
//     the directory to mutate lockout state.
//   - Trust the permission claim inside a session token for authorization.
//   - Unlock accounts, revoke tokens or evict id cache entries.
//   - Import any sub-package that re-imports adminAuth (no import cycles).
//
// # Performance contract
//
// ResolveIdentity runs on every protected request. Token verification is
// CPU-only; after the first request for an account the uuid lookup is served
// from the id cache, leaving one directory read and one permission read.
// Login is deliberately slow because password derivation is iterated.
package adminAuth
