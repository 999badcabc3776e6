// Package batch submits star requests in fixed-size concurrent groups.
//
// The URL list is cut into consecutive groups of Config.GroupSize. Every
// request of a group is started at once; the next group starts only after
// the whole group has finished. Group boundaries are the only concurrency
// limit, so at most GroupSize requests are ever in flight.
//
// Example usage:
//
//	submitter := batch.NewSubmitter(githubClient, batch.DefaultConfig(), nil, logger)
//	submitter.Submit(ctx, urls)
//
// Each request ends in one Outcome:
//   - Succeeded: GitHub answered 204 No Content
//   - Rejected: any other status (recorded on the outcome)
//   - TransportFailed: the exchange could not be completed
//
// Outcomes go to a Reporter as soon as they are known. None of them stops
// the run; Submit has no error return.
package batch
