package redis

import (
	"errors"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestTranslateError(t *testing.T) {
	assert.ErrorIs(t, TranslateError(goredis.Nil), ErrCacheMiss)
	assert.NoError(t, TranslateError(nil))

	other := errors.New("connection refused")
	assert.Equal(t, other, TranslateError(other))
}
