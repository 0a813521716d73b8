package requestid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsure_Generates(t *testing.T) {
	ctx, id := Ensure(context.Background(), "")
	assert.NotEmpty(t, id)
	assert.Equal(t, id, FromContext(ctx))
}

func TestEnsure_KeepsIncoming(t *testing.T) {
	ctx, id := Ensure(context.Background(), "req-42")
	assert.Equal(t, "req-42", id)
	assert.Equal(t, "req-42", FromContext(ctx))
}

func TestFromContext_Missing(t *testing.T) {
	assert.Empty(t, FromContext(context.Background()))
}

func TestWithRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "test-123")
	assert.Equal(t, "test-123", FromContext(ctx))
}
