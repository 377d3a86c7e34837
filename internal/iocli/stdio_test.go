package iocli

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Проверяем что NewStdio возвращает валидный объект
func TestNewStdio(t *testing.T) {
	stdio := NewStdio()
	assert.NotNil(t, stdio)
}

func TestPrintlnAndPrintf(t *testing.T) {
	var out bytes.Buffer
	stdio := &Stdio{out: &out}

	stdio.Println("hello", "world")
	stdio.Printf("test %d %s", 1, "abc")
	_, err := stdio.Write([]byte("!"))
	require.NoError(t, err)

	assert.Equal(t, "hello world\ntest 1 abc!", out.String())
}

// Тест ReadInput: читаем из буфера вместо os.Stdin
func TestReadInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "single line", input: "user input\n", want: []string{"user input"}},
		{name: "buffered lines", input: "first\n  second  \n", want: []string{"first", "second"}},
		{name: "no trailing newline", input: "last", want: []string{"last"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			stdio := &Stdio{in: bufio.NewReader(strings.NewReader(tt.input)), out: &out}

			for _, want := range tt.want {
				got, err := stdio.ReadInput("Prompt: ")
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
			assert.True(t, strings.HasPrefix(out.String(), "Prompt: "))
		})
	}
}

func TestReadInput_EOF(t *testing.T) {
	stdio := &Stdio{in: bufio.NewReader(strings.NewReader("")), out: &bytes.Buffer{}}
	_, err := stdio.ReadInput("Prompt: ")
	assert.Error(t, err)
}
