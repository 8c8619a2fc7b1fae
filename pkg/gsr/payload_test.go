package gsr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseADC(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    uint16
		wantErr bool
	}{
		{name: "plain", payload: []byte("2048"), want: 2048},
		{name: "trailing newline", payload: []byte("2048\r\n"), want: 2048},
		{name: "surrounding spaces", payload: []byte("  17 "), want: 17},
		{name: "zero", payload: []byte("0"), want: 0},
		{name: "full scale", payload: []byte("4095"), want: 4095},
		{name: "leading plus", payload: []byte("+12"), want: 12},
		{name: "above resolution", payload: []byte("4096"), wantErr: true},
		{name: "negative", payload: []byte("-1"), wantErr: true},
		{name: "empty", payload: []byte(""), wantErr: true},
		{name: "whitespace only", payload: []byte(" \n"), wantErr: true},
		{name: "non numeric", payload: []byte("abc"), wantErr: true},
		{name: "float", payload: []byte("12.5"), wantErr: true},
		{name: "two numbers", payload: []byte("12 13"), wantErr: true},
		{name: "invalid utf-8", payload: []byte{0xff, 0xfe, '1'}, wantErr: true},
		{name: "overflow", payload: []byte("99999999999"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseADC(tt.payload, 4095)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
