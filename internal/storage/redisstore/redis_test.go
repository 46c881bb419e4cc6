package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uma-arai/sbcntr-hotel/internal/common/apperror"
	"github.com/uma-arai/sbcntr-hotel/internal/lib/logger/sl"
	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

func TestStore_Key(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		location string
		want     string
	}{
		{name: "プレフィックスあり", prefix: "sbcntr-hotel", location: "hotels", want: "sbcntr-hotel:hotels"},
		{name: "プレフィックスなし", prefix: "", location: "hotels", want: "hotels"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(nil, tt.prefix, sl.Discard())
			assert.Equal(t, tt.want, s.key(tt.location))
		})
	}
}

func TestStore_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	s := New(client, "test", sl.Discard())
	ctx := context.Background()

	_, err := s.Load(ctx, "hotels")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrPersistence)

	err = s.Save(ctx, "hotels", []model.Record{{"hotel_id": "H1"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrPersistence)
}
