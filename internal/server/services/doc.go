// Package services contains the server-side business logic of itemkeeper.
//
// # Overview
//
// The package provides:
//  1. TokenService, the token store: opaque access/refresh pairs with a
//     per-user cap, in-place rotation, revocation and the expiry sweep.
//  2. Authorizer, which turns a bearer token into an Identity and enforces
//     admin-only, owner-or-admin and the user-update guard.
//  3. VersionGate, which rejects clients declaring a retired x-version.
//  4. AuthService, UserService, ItemService and RoleService, the resource
//     logic behind the HTTP handlers.
//
// # Error Handling
//
// Every failure leaving a service is a *common.Fault. Its Detail is safe to
// show to clients; Info carries the internal diagnostic and is only logged.
// Credential failures share one Detail so that callers cannot tell an
// unknown user from a wrong password or a disabled account.
//
// # Concurrency
//
// Services hold no mutable state and are safe for concurrent use. Every
// operation takes a context.Context that bounds its database calls.
// Multi-step writes run inside dbx.Store.WithTx.
package services
