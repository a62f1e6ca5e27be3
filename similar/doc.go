// Package similar assembles the list of products similar to a given product.
//
// Service.GetSimilar confirms the root product exists, discovers candidate ids,
// fetches every candidate concurrently through a resilience.Caller and keeps
// only the candidates that were fetched successfully. Assembled results are
// memoized per product id in a ResultCache.
//
// # Degradation
//
//   - Root absent, or its existence cannot be confirmed: ErrProductNotFound.
//   - Candidate discovery fails: an empty Result that is not cached.
//   - A candidate fails: it is dropped and logged; the others are returned.
//   - The caller's context ends: its error is returned and nothing is cached.
//
// Contract violations (invalid ids, malformed upstream bodies for the root)
// surface as *InternalError, matched with errors.Is(err, ErrInternal).
package similar
