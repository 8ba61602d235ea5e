package ledger

import (
	"net/http"

	"go-leave/internal/shared/apperror"
)

// ErrLedgerUnderflow means a release exceeded what was reserved. That is a
// broken invariant elsewhere in the system, not a user mistake: the caller
// must abort its transaction and the occurrence should be logged for
// investigation.
var ErrLedgerUnderflow = apperror.New(
	apperror.CodeInternalError,
	"leave balance release exceeds reserved days",
	http.StatusInternalServerError,
)
