package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/coursebot/core/telegram/commands"
)

func noop(tele.Context) error { return nil }

func TestRegistryRegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCommand("/Start", commands.Command{
		Handler: noop, Description: "menu", Aliases: []string{"begin", "/begin", "/start", ""},
	}))
	require.NoError(t, reg.RegisterCommand("/stats", commands.Command{Handler: noop, Description: "stats", Hidden: true}))

	name, cmd, ok := reg.LookupCommand("/start@CourseBot now")
	require.True(t, ok)
	assert.Equal(t, "/start", name)
	assert.Equal(t, []string{"/begin"}, cmd.Aliases)

	name, _, ok = reg.LookupCommand("begin")
	require.True(t, ok)
	assert.Equal(t, "/start", name)

	_, _, ok = reg.LookupCommand("/missing")
	assert.False(t, ok)

	assert.Equal(t, []tele.Command{{Text: "start", Description: "menu"}}, reg.ListCommands(true))
	assert.Len(t, reg.ListCommands(false), 2)
}

func TestRegistryRejects(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "menu", Aliases: []string{"go"}}))

	assert.ErrorIs(t, reg.RegisterCommand("start", commands.Command{Handler: noop, Description: "x"}), ErrInvalidCommand)
	assert.ErrorIs(t, reg.RegisterCommand("/help", commands.Command{Handler: noop}), ErrInvalidCommand)
	assert.ErrorIs(t, reg.RegisterCommand("/help", commands.Command{Description: "x"}), ErrInvalidCommand)
	assert.ErrorIs(t, reg.RegisterCommand("/START", commands.Command{Handler: noop, Description: "x"}), ErrDuplicateCommand)
	assert.ErrorIs(t, reg.RegisterCommand("/go", commands.Command{Handler: noop, Description: "x"}), ErrDuplicateCommand)
	assert.ErrorIs(t, reg.RegisterCommand("/help", commands.Command{Handler: noop, Description: "x", Aliases: []string{"start"}}), ErrDuplicateCommand)

	_, _, ok := reg.LookupCommand("/help")
	assert.False(t, ok, "a rejected command leaves nothing behind")
	assert.Len(t, reg.Commands(), 1)
}
