package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errSample = Conflict("settlement_not_draft")

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConflict, KindOf(errSample))
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("finalize: %w", errSample)))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestWithFieldStillMatchesSentinel(t *testing.T) {
	base := Validation("invalid_request")
	withField := base.WithField("week_start", "must be YYYY-MM-DD")

	assert.ErrorIs(t, withField, base)
	assert.Empty(t, base.Fields)
	assert.Equal(t, "invalid_request (week_start: must be YYYY-MM-DD)", withField.Error())
}
