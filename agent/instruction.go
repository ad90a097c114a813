package agent

import (
	"context"
	"strings"
)

// InstructionParam is either a static string or a function of the run
// context.
type InstructionParam[C any] struct {
	String *string
	Func   func(ctx context.Context, contextVal C) (string, error)
}

// InstructionString is shorthand for a static instruction.
func InstructionString[C any](s string) InstructionParam[C] {
	return InstructionParam[C]{String: &s}
}

// InstructionFunc is shorthand for a dynamic instruction.
func InstructionFunc[C any](fn func(ctx context.Context, contextVal C) (string, error)) InstructionParam[C] {
	return InstructionParam[C]{Func: fn}
}

// Helper function to build the system prompt from instructions
func getPrompt[C any](ctx context.Context, instructions []InstructionParam[C], contextVal C) (string, error) {
	prompts := make([]string, 0, len(instructions))
	for _, param := range instructions {
		if param.String != nil {
			prompts = append(prompts, *param.String)
		} else if param.Func != nil {
			prompt, err := param.Func(ctx, contextVal)
			if err != nil {
				return "", err
			}
			prompts = append(prompts, prompt)
		}
	}

	return strings.Join(prompts, "\n"), nil
}
