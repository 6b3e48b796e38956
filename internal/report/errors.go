package report

import "errors"

var (
	// ErrNotFound covers both a genuinely missing report and a
	// cross-tenant denial, so a denied caller learns nothing about
	// whether the report exists.
	ErrNotFound = errors.New("report not found")

	// ErrInvalidTransition: the report is no longer pending. Approve and
	// reject are terminal; the loser of a concurrent review race sees
	// this too.
	ErrInvalidTransition = errors.New("invalid review transition")

	// ErrNotApproved gates PDF export and insurance disclosure.
	ErrNotApproved = errors.New("report not approved")
)
