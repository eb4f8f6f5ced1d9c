package clierr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCodeOf(t *testing.T) {
	cause := errors.New("boom")

	assert.Equal(t, 0, ExitCodeOf(nil))
	assert.Equal(t, 1, ExitCodeOf(cause))
	assert.Equal(t, ExitUsage, ExitCodeOf(New(ExitUsage, "bad flag")))
	assert.Equal(t, ExitTooling, ExitCodeOf(fmt.Errorf("outer: %w", Wrap(ExitTooling, "git", cause))))
	assert.Equal(t, 1, ExitCodeOf(New(0, "zero is normalized")))
}

func TestExitError_Message(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ExitTooling, "reading HEAD", cause)

	assert.Equal(t, "reading HEAD: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "2 blocking violations", Newf(ExitPolicy, "%d blocking violations", 2).Error())
	assert.Equal(t, "plain", Wrap(ExitUsage, "plain", nil).Error())
}
