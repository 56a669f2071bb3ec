// util/json_test.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"strings"
	"testing"
)

func TestUnmarshalJSONBytes(t *testing.T) {
	type cfg struct {
		MaxFlights int    `json:"max_flights"`
		Name       string `json:"name"`
	}

	tests := []struct {
		name   string
		json   string
		errSub string
		expect cfg
	}{
		{
			name:   "valid",
			json:   `{"max_flights": 12, "name": "lahore"}`,
			expect: cfg{MaxFlights: 12, Name: "lahore"},
		},
		{
			name:   "syntax error on second line",
			json:   "{\n  \"max_flights\": 12,,\n}",
			errSub: "line 2",
		},
		{
			name:   "type error",
			json:   `{"max_flights": "twelve"}`,
			errSub: "invalid for type int",
		},
		{
			name:   "unknown field",
			json:   `{"runways": 3}`,
			errSub: "unknown field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c cfg
			err := UnmarshalJSONBytes([]byte(tt.json), &c)
			if tt.errSub == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if c != tt.expect {
					t.Errorf("got %+v, expected %+v", c, tt.expect)
				}
			} else if err == nil || !strings.Contains(err.Error(), tt.errSub) {
				t.Errorf("expected error containing %q, got %v", tt.errSub, err)
			}
		})
	}
}
