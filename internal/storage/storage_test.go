package storage

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uma-arai/sbcntr-hotel/internal/model"
)

func newBufferLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

func TestDecodeCollection(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantCount int
		wantLog   string
	}{
		{name: "空配列", data: `[]`, wantCount: 0},
		{name: "2件", data: `[{"hotel_id":"H1"},{"hotel_id":"H2"}]`, wantCount: 2},
		{name: "JSONが壊れている", data: `[{"hotel_id":`, wantCount: 0, wantLog: "level=ERROR"},
		{name: "配列でない", data: `{"hotel_id":"H1"}`, wantCount: 0, wantLog: "expected array"},
		{name: "末尾に余分なデータ", data: `[] []`, wantCount: 0, wantLog: "trailing data"},
		{name: "オブジェクトでない要素はスキップ", data: `[{"hotel_id":"H1"}, 3, "x", null]`, wantCount: 1, wantLog: "skipping non-object record"},
		{name: "空ファイル", data: ``, wantCount: 0, wantLog: "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, buf := newBufferLogger()
			got := DecodeCollection(log, "data/hotels.json", []byte(tt.data))

			require.NotNil(t, got)
			assert.Len(t, got, tt.wantCount)
			if tt.wantLog != "" {
				assert.Contains(t, buf.String(), tt.wantLog)
			}
		})
	}
}

func TestDecodeCollection_PreservesIntegers(t *testing.T) {
	log, _ := newBufferLogger()
	got := DecodeCollection(log, "x", []byte(`[{"total_rooms": 12}]`))

	require.Len(t, got, 1)
	assert.Equal(t, json.Number("12"), got[0]["total_rooms"])
}

func TestEncodeCollection(t *testing.T) {
	data, err := EncodeCollection(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	data, err = EncodeCollection([]model.Record{{"hotel_id": "H1", "total_rooms": 2}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"hotel_id":"H1","total_rooms":2}]`, string(data))
	assert.Contains(t, string(data), "\n  ")
}
