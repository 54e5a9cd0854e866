package main

import (
	"bufio"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/untilthen/untilthen-go/internal/model"
)

func TestParseUnit(t *testing.T) {
	cases := []struct {
		in      string
		want    model.YieldUnit
		wantErr bool
	}{
		{"", model.YieldNone, false},
		{"none", model.YieldNone, false},
		{"eth", model.YieldNone, false},
		{"native", model.YieldNative, false},
		{"NATIVE", model.YieldNative, false},
		{"link", model.YieldAltToken, false},
		{"alt", model.YieldAltToken, false},
		{"doge", 0, true},
	}
	for _, tc := range cases {
		got, err := parseUnit(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseUnit(%q): want error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseUnit(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseUnit(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseReleaseTime(t *testing.T) {
	got, err := parseReleaseTime("1900000000")
	if err != nil {
		t.Fatalf("unix: %v", err)
	}
	if got.Unix() != 1900000000 {
		t.Fatalf("unix = %d", got.Unix())
	}

	got, err = parseReleaseTime("2030-03-14T15:00:00Z")
	if err != nil {
		t.Fatalf("rfc3339: %v", err)
	}
	want := time.Date(2030, 3, 14, 15, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("rfc3339 = %v, want %v", got, want)
	}

	if _, err := parseReleaseTime("tomorrow"); err == nil {
		t.Fatal("want error for a free-form time")
	}
}

func TestConsoleApprover(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"yes\n", true},
		{"n\n", false},
		{"\n", false},
		{"whatever\n", false},
	}
	for _, tc := range cases {
		approve := consoleApprover(bufio.NewReader(strings.NewReader(tc.in)))
		if got := approve(context.Background(), "sign transaction"); got != tc.want {
			t.Errorf("approve with input %q = %v, want %v", tc.in, got, tc.want)
		}
	}
}
