package chatcmder

import (
	"strconv"
	"strings"
)

type inputKind int

const (
	inputEmpty inputKind = iota
	inputMessage
	inputPrompt
	inputClear
	inputListPrompts
	inputHelp
	inputExit
	inputUnknownCommand
)

// input is a parsed line from the chat prompt. Lines starting with "/" are
// commands; "/N" selects the sample prompt with flat index N.
type input struct {
	kind  inputKind
	text  string
	index int
}

func parseInput(raw string) input {
	text := strings.TrimSpace(raw)
	if text == "" {
		return input{kind: inputEmpty}
	}

	if !strings.HasPrefix(text, "/") {
		return input{kind: inputMessage, text: text}
	}

	cmd := strings.ToLower(strings.TrimPrefix(text, "/"))
	switch cmd {
	case "exit", "quit":
		return input{kind: inputExit}
	case "clear":
		return input{kind: inputClear}
	case "prompts":
		return input{kind: inputListPrompts}
	case "help":
		return input{kind: inputHelp}
	}

	if n, err := strconv.Atoi(cmd); err == nil {
		return input{kind: inputPrompt, index: n}
	}

	return input{kind: inputUnknownCommand, text: text}
}

const commandHelp = `/1../N   send a sample prompt
/prompts list sample prompts
/clear   clear the conversation
/exit    quit`
