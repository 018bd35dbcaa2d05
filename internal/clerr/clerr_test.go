package clerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDerivesCategoryAndSeverity(t *testing.T) {
	err := New(SchemaError, "migration 3 failed", nil)
	assert.Equal(t, CategorySchema, err.Category)
	assert.Equal(t, SeverityFatal, err.Severity)
	assert.True(t, IsFatal(err))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(IoError, cause)
	assert.Equal(t, cause, err.Unwrap())
	assert.ErrorIs(t, err, cause)
}

func TestIsMatchesByKind(t *testing.T) {
	a := New(QueryFailed, "bad filter", nil)
	b := New(QueryFailed, "other message", nil)
	c := New(StoreError, "bad filter", nil)

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
	assert.True(t, Is(a, QueryFailed))
	assert.False(t, Is(a, StoreError))
}

func TestWithPathAndDetail(t *testing.T) {
	err := New(IoError, "read failed", nil).WithPath("a.go").WithDetail("errno", "13")
	assert.Equal(t, "a.go", err.Path)
	assert.Equal(t, "13", err.Details["errno"])
	assert.Contains(t, err.Error(), "a.go")
}

func TestKindOfNonClerrError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}
