// Package evidence builds the capped, categorized evidence bundle that
// accompanies an audit report.
//
// Classification is by category and name keyword match with
// first-matching-bucket-wins semantics; a finding that matches no bucket
// keyword is not retained. Each bucket keeps at most ten items, records
// overflow in its Truncated flag, and truncates snippets to a fixed
// length so report size stays bounded regardless of page size.
package evidence
