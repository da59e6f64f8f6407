// Package docs provides Swagger API documentation for the back office
package docs

// @tag.name auth
// @tag.description Sign up, sign in and session lookup

// @tag.name investors
// @tag.description Investor profiles, balances and account status

// @tag.name withdrawals
// @tag.description Withdrawal submission and review

// @tag.name commissions
// @tag.description Commission ledger, summary and payouts

// @tag.name analytics
// @tag.description Portfolio dashboard aggregates

// @tag.name exports
// @tag.description Downloadable reports

// @tag.name widgets
// @tag.description Market widget embed options

// @tag.name me
// @tag.description Endpoints scoped to the signed-in investor

// @tag.name admin
// @tag.description Administrator user management

// @tag.name health
// @tag.description Liveness, readiness and build information
