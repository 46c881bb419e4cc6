package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_DSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "localhostはSSL無効",
			cfg:  Config{Host: "localhost", Port: 5432, UserName: "app", Password: "pw", DBName: "hotel"},
			want: "host=localhost port=5432 user=app password=pw dbname=hotel sslmode=disable",
		},
		{
			name: "リモートはSSL必須",
			cfg:  Config{Host: "db.example.com", Port: 5432, UserName: "app", Password: "pw", DBName: "hotel"},
			want: "host=db.example.com port=5432 user=app password=pw dbname=hotel sslmode=require",
		},
		{
			name: "明示的なSSLモード",
			cfg:  Config{Host: "localhost", Port: 15432, UserName: "app", Password: "pw", DBName: "hotel", SSLMode: "verify-full"},
			want: "host=localhost port=15432 user=app password=pw dbname=hotel sslmode=verify-full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.DSN())
		})
	}
}
