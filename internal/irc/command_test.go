package irc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		token string
		want  Command
	}{
		{"001", Command(1)},
		{"433", Command(433)},
		{"601", Command(601)},
		{"PRIVMSG", CommandPrivmsg},
		{"NOTICE", CommandNotice},
		{"ERROR", CommandError},
		{"FOO", CommandUnknown},
		{"privmsg", CommandUnknown},
		{"000", CommandUnknown},
		{"1000", CommandUnknown},
		{"", CommandUnknown},
		{"12a", CommandUnknown},
	}

	for _, test := range tests {
		assert.Equal(t, test.want, Classify(test.token), test.token)
	}
}

func TestCommandNumeric(t *testing.T) {
	welcome := Classify("001")
	assert.True(t, welcome.IsNumeric())
	assert.True(t, welcome.IsReply())
	assert.False(t, welcome.IsError())
	assert.Equal(t, 1, welcome.Code())
	assert.Equal(t, "001", welcome.String())
	assert.Equal(t, "RPL_WELCOME", welcome.Name())

	inUse := Classify("433")
	assert.True(t, inUse.IsError())
	assert.Equal(t, "ERR_NICKNAMEINUSE", inUse.Name())

	// Unnamed codes fall back to the range table
	assert.True(t, Classify("499").IsError())
	assert.True(t, Classify("299").IsReply())
	assert.True(t, Classify("601").IsReply())
	assert.Equal(t, "299", Classify("299").Name())

	assert.False(t, CommandJoin.IsNumeric())
	assert.Equal(t, 0, CommandJoin.Code())
	assert.Equal(t, "JOIN", CommandJoin.String())
	assert.Equal(t, "JOIN", CommandJoin.Name())
	assert.Equal(t, "UNKNOWN", CommandUnknown.String())
}

func TestNumericCommand(t *testing.T) {
	assert.Equal(t, Command(RplEndOfMotd), NumericCommand(376))
	assert.Equal(t, CommandUnknown, NumericCommand(0))
	assert.Equal(t, CommandUnknown, NumericCommand(1000))
}
