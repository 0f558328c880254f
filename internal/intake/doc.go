// Package intake validates batches of submitted files against an intake
// Policy and reports which files were accepted and which were rejected.
//
// Partition is the pure core: given files in submission order it returns a
// Result whose Accepted and Rejected slices are disjoint, together cover the
// input, and each preserve input order. Rejections carry a ValidationError
// naming the rule that failed:
//
//	TypeRejected       the accept specification did not match
//	SizeTooSmall       below the minimum file size
//	SizeTooLarge       above the maximum file size
//	MultipleNotAllowed a second valid file when only one is allowed
//	TotalSizeExceeded  the running total passed the aggregate bound
//
// The aggregate bound is greedy: the first accepted file that would push the
// running total over the bound, and every accepted file after it, is rejected.
//
// Engine wires Partition to an EventSource (drop zone, file picker, HTTP
// upload) and fires callbacks after every batch. Policies are explicit
// values; nothing in this package reads global configuration.
package intake
