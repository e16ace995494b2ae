package hexfmt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressAndByte(t *testing.T) {
	assert.Equal(t, "00000000", Address(0))
	assert.Equal(t, "0000ABCD", Address(0xABCD))
	assert.Equal(t, "0A", Byte(0x0A))
	assert.Equal(t, "FF", Byte(0xFF))
}

func TestSize(t *testing.T) {
	assert.Equal(t, "512 B", Size(512))
	assert.Equal(t, "1.50 KB", Size(1536))
	assert.Equal(t, "2.00 MB", Size(2<<20))
	assert.Equal(t, "1.00 GB", Size(1<<30))
}

func TestGlyph_ASCII(t *testing.T) {
	assert.Equal(t, 'A', ASCII.Glyph('A'))
	assert.Equal(t, '.', ASCII.Glyph(0x00))
	assert.Equal(t, '.', ASCII.Glyph(0x7F))
	assert.Equal(t, '.', ASCII.Glyph(0xE9))
	assert.Equal(t, "Hi..", ASCII.Text([]byte{'H', 'i', 0x0A, 0xFF}))
}

func TestGlyph_Codepages(t *testing.T) {
	assert.Equal(t, 'é', Latin1.Glyph(0xE9))
	assert.Equal(t, '€', Windows1252.Glyph(0x80))
	assert.Equal(t, '░', CP437.Glyph(0xB0))
	// control bytes never render, whatever the code page
	assert.Equal(t, '.', CP437.Glyph(0x01))
}

func TestParseCharset(t *testing.T) {
	cs, err := ParseCharset("")
	require.NoError(t, err)
	assert.Equal(t, ASCII, cs)

	cs, err = ParseCharset("CP437")
	require.NoError(t, err)
	assert.Equal(t, CP437, cs)

	_, err = ParseCharset("ebcdic")
	require.Error(t, err)
}

func TestLine(t *testing.T) {
	row := []byte("Hello world\n")
	got := Line(0x10, row, DumpOptions{})
	want := "00000010  48 65 6C 6C 6F 20 77 6F  72 6C 64 0A              |Hello world.|"
	assert.Equal(t, want, got)

	lower := Line(0x10, row, DumpOptions{Lower: true})
	assert.True(t, strings.HasPrefix(lower, "00000010  48 65 6c 6c 6f"))
	assert.True(t, strings.HasSuffix(lower, "|Hello world.|"))
}

func TestDump(t *testing.T) {
	data := make([]byte, 20)
	for i := range data {
		data[i] = byte('a' + i)
	}
	var out bytes.Buffer
	require.NoError(t, Dump(&out, 0x100, data, DumpOptions{BytesPerRow: 8}))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "00000100  61 62 63 64  65 66 67 68  |abcdefgh|", lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "00000110  71 72 73 74"))
	assert.True(t, strings.HasSuffix(lines[2], "|qrst|"))
}
