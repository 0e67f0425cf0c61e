package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/mudcore/internal/catalog"
	"github.com/udisondev/mudcore/internal/command"
	"github.com/udisondev/mudcore/internal/command/commands"
	"github.com/udisondev/mudcore/internal/config"
	"github.com/udisondev/mudcore/internal/parser"
)

func TestRunConsole(t *testing.T) {
	cat := catalog.New(&catalog.MemorySource{Records: &catalog.Records{}})
	require.NoError(t, cat.Initialize(context.Background()))

	w := newWorld()
	player := w.populate(cat)

	reg := command.NewRegistry(nil)
	d := command.NewDispatcher(reg, command.Options{})
	t.Cleanup(d.Close)
	require.NoError(t, commands.RegisterAll(reg, commands.Deps{World: w, Catalog: cat}))

	in := strings.NewReader("say hello\nxyzzy\nquit\nsay unreachable\n")
	var out bytes.Buffer
	require.NoError(t, runConsole(context.Background(), in, &out, d, player))

	got := out.String()
	assert.Contains(t, got, "The Village Square")
	assert.Contains(t, got, "You say, 'hello'")
	assert.Contains(t, got, "Goodbye.")
	assert.NotContains(t, got, "unreachable")
}

func TestWorld_Lookup(t *testing.T) {
	cat := catalog.New(&catalog.MemorySource{Records: &catalog.Records{}})
	require.NoError(t, cat.Initialize(context.Background()))

	w := newWorld()
	player := w.populate(cat)

	p, ok := w.FindPlayer("wanderer")
	require.True(t, ok)
	assert.Same(t, player, p)
	assert.Len(t, w.Players(), 1)

	guard, ok := w.actor("mob-guard")
	require.True(t, ok)
	mob, ok := guard.AsMobile()
	require.True(t, ok)
	assert.Equal(t, "guard", mob.Trigger())

	_, ok = w.actor("nobody")
	assert.False(t, ok)
}

func TestParserConfig(t *testing.T) {
	pc := parserConfig(config.ParserConfig{Quotes: `"`, Escape: "", CommentPrefixes: []string{"//"}, MinAbbrev: 2, MaxEditDistance: 1})
	assert.Equal(t, []rune{'"'}, pc.Quotes)
	assert.Equal(t, rune(0), pc.Escape)

	p := parser.New(pc)
	cmd, err := p.Parse("// note")
	require.NoError(t, err)
	assert.True(t, cmd.Comment)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLogLevel("debug").String())
	assert.Equal(t, "INFO", parseLogLevel("bogus").String())
}
