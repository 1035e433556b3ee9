package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pigeonflight/pkg/geo"
)

type line struct {
	Type    string      `json:"type"`
	Path    []geo.Point `json:"path"`
	Error   string      `json:"error"`
	Arrived *bool       `json:"arrived"`
	Ticks   int         `json:"ticks"`
}

func decodeLines(t *testing.T, out string) []line {
	t.Helper()
	var lines []line
	sc := bufio.NewScanner(strings.NewReader(out))
	sc.Buffer(make([]byte, 1<<20), 1<<20)
	for sc.Scan() {
		var l line
		require.NoError(t, json.Unmarshal(sc.Bytes(), &l), sc.Text())
		lines = append(lines, l)
	}
	return lines
}

func TestRun_Flags(t *testing.T) {
	var stdout bytes.Buffer
	err := run(context.Background(), []string{"-start", "31,30", "-end", "31.01,30", "-summary"}, strings.NewReader(""), &stdout, io.Discard)
	require.NoError(t, err)

	lines := decodeLines(t, stdout.String())
	require.Greater(t, len(lines), 2)
	assert.Equal(t, "path", lines[0].Type)
	assert.Equal(t, geo.Point{Lat: 31, Lon: 30}, lines[0].Path[0])

	updates := lines[1 : len(lines)-1]
	for _, u := range updates {
		assert.Equal(t, "update", u.Type)
	}

	sum := lines[len(lines)-1]
	require.NotNil(t, sum.Arrived, "last line is the summary")
	assert.True(t, *sum.Arrived)
	assert.Equal(t, len(updates), sum.Ticks)
}

func TestRun_Stdin(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"init","start":{"lat":31,"lng":30},"end":{"lat":31.01,"lng":30}}`,
		``,
		`{"type":"init","start":{"lat":95,"lng":30},"end":{"lat":31,"lng":30}}`,
		`not json`,
		`{"type":"init","start":{"lat":31,"lng":30},"end":{"lat":31,"lng":30.01}}`,
	}, "\n")

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), nil, strings.NewReader(input), &stdout, io.Discard))

	var types []string
	for _, l := range decodeLines(t, stdout.String()) {
		if len(types) == 0 || types[len(types)-1] != l.Type || l.Type != "update" {
			types = append(types, l.Type)
		}
	}
	assert.Equal(t, []string{"path", "update", "error", "error", "path", "update"}, types)
}

func TestRun_TickLimit(t *testing.T) {
	var stdout bytes.Buffer
	err := run(context.Background(), []string{"-start", "31,30", "-end", "31.5,30", "-max-ticks", "3", "-summary"}, nil, &stdout, io.Discard)
	require.NoError(t, err)

	lines := decodeLines(t, stdout.String())
	require.Len(t, lines, 5, "path, three updates, summary")
	assert.False(t, *lines[4].Arrived)
	assert.Equal(t, 3, lines[4].Ticks)
}

func TestRun_BadFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"Start Without End", []string{"-start", "31,30"}},
		{"Bad Point", []string{"-start", "31", "-end", "31,30"}},
		{"Bad Number", []string{"-start", "north,30", "-end", "31,30"}},
		{"Unknown Flag", []string{"-bogus"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), tt.args, strings.NewReader(""), io.Discard, io.Discard)
			assert.Error(t, err)
		})
	}
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := run(ctx, []string{"-start", "31,30", "-end", "31.5,30"}, nil, io.Discard, io.Discard)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParsePoint(t *testing.T) {
	p, err := parsePoint(" 31.5 , -0.25 ")
	require.NoError(t, err)
	assert.Equal(t, geo.Point{Lat: 31.5, Lon: -0.25}, p)
}
