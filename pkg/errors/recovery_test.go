package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecover_WithPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "TestOperation")
		panic("test panic message")
	}

	err := testFunc()
	require.Error(t, err)

	var panicErr *PanicError
	require.True(t, As(err, &panicErr))
	assert.Equal(t, "TestOperation", panicErr.Operation)
	assert.Equal(t, "test panic message", panicErr.PanicValue)
	assert.NotEmpty(t, panicErr.StackTrace)
	assert.Equal(t, "gdreg: panic in TestOperation: test panic message", panicErr.Error())
	assert.Contains(t, panicErr.String(), "Stack trace:")
}

func TestRecover_WithoutPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "TestOperation")
		return nil
	}
	assert.NoError(t, testFunc())
}

func TestRecover_WithExistingError(t *testing.T) {
	originalErr := New("original error")

	testFunc := func() (err error) {
		defer Recover(&err, "TestOperation")
		err = originalErr
		panic("panic after error")
	}

	err := testFunc()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in TestOperation")
	assert.Contains(t, err.Error(), "original error")
	assert.True(t, Is(err, originalErr))
}

func TestRecover_DifferentPanicTypes(t *testing.T) {
	testCases := []struct {
		name       string
		panicValue interface{}
	}{
		{"string panic", "string panic"},
		{"int panic", 42},
		{"error panic", fmt.Errorf("error as panic")},
		{"struct panic", struct{ Msg string }{"struct message"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			testFunc := func() (err error) {
				defer Recover(&err, "TypeTest")
				panic(tc.panicValue)
			}

			var panicErr *PanicError
			require.True(t, As(testFunc(), &panicErr))
			assert.Equal(t, fmt.Sprintf("%v", tc.panicValue), fmt.Sprintf("%v", panicErr.PanicValue))
		})
	}
}

func BenchmarkRecover_NoPanic(b *testing.B) {
	for i := 0; i < b.N; i++ {
		func() (err error) {
			defer Recover(&err, "BenchmarkOp")
			return nil
		}()
	}
}
