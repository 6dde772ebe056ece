package table

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf)
	table.WithHeader([]string{"HEADER1", "H2", "h3"})
	table.WithColumnAlignment([]Alignment{AlignLeft, AlignRight, AlignLeft})
	table.WithHeaderAlignment([]Alignment{AlignCenter, AlignCenter, AlignRight})
	table.Append([]string{"ROW1", "ROW2", "foo bar"})
	table.Append([]string{"a", "b", "c"})
	table.Render()

	expected := `
+---------+------+---------+
| HEADER1 |  H2  |      h3 |
+---------+------+---------+
| ROW1    | ROW2 | foo bar |
| a       |    b | c       |
+---------+------+---------+
`
	require.Equal(t, strings.TrimSpace(expected)+"\n", buf.String())
}

func TestColoredTable(t *testing.T) {
	bold := color.New(color.Bold)
	bold.EnableColor()
	green := color.New(color.FgGreen)
	green.EnableColor()

	var buf bytes.Buffer
	table := NewTable(&buf)
	table.WithHeader([]string{"HEADER1", "HEADER2", "HEADER3"})
	table.WithColumnAlignment([]Alignment{AlignLeft, AlignRight, AlignLeft})
	table.WithHeaderAlignment([]Alignment{AlignCenter, AlignCenter, AlignCenter})
	table.Append([]string{bold.Sprint("Bold text"), "12345", green.Sprint("Green text")})
	table.Append([]string{"Normal", bold.Sprint("999"), green.Sprint("More color")})
	table.Render()

	result := buf.String()
	require.Contains(t, result, "\x1b[")
	lines := strings.Split(strings.TrimSuffix(result, "\n"), "\n")
	require.Len(t, lines, 6)
	for i, line := range lines {
		require.Equal(t, len(lines[0]), len(stripAnsi(line)), "line %d", i)
	}
}

func TestRaggedRows(t *testing.T) {
	var buf bytes.Buffer
	NewTable(&buf).WithRows([][]string{{"a"}, {"b", "cc"}}).Render()
	expected := `
+---+----+
| a |    |
| b | cc |
+---+----+
`
	require.Equal(t, strings.TrimSpace(expected)+"\n", buf.String())
}
