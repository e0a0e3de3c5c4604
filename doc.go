// Package careerpilot provides the account and session core of the
// CareerPilot service: credential storage, bcrypt verification, JWT issuance
// and validation, plus the HTTP surface that exposes them.
//
// Session model:
//   - Tokens are stateless HS256 JWTs carrying only the account identifier
//     and a validity window. There is no server-side session state and no
//     revocation list; a token stays valid until it expires.
//   - Role and profile data are re-read from the store on every request that
//     needs them, so a role change takes effect immediately instead of
//     waiting out token expiry.
//
// Error taxonomy:
//   - Every failure is classified with go-errors categories. Validation and
//     conflict faults keep their message across the HTTP boundary; storage
//     and provider failures surface as availability faults with a generic
//     body, with the cause only in the server log.
//
// Subpackages wire the core to the outside world: stores/mongodb persists
// accounts and chat history, middleware/jwtware gates routes behind a bearer
// token, chat proxies the career assistant, and mailer handles the contact
// form.
package careerpilot
