// Package billing orchestrates the billing domain: subscription creation
// and lifecycle, proration on plan and seat changes, promo application,
// and the invoice lifecycle.
//
// The service holds no state of its own; all entities live in the stores
// it is constructed with. Every public operation is a single logical
// transaction: any failure aborts the operation and surfaces the error
// without partial effect on the in-memory backends.
package billing
